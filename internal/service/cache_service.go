package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 树查询缓存键后缀
const (
	CacheKindDescendants = "descendants"
	CacheKindAncestors   = "ancestors"
	CacheKindPath        = "path"
	CacheKindStats       = "stats"
)

var cacheKinds = []string{CacheKindDescendants, CacheKindAncestors, CacheKindPath, CacheKindStats}

// CacheService 服务商树查询缓存。
//
// rdb 为 nil 时整体退化为直通模式: 读全部 miss, 写与失效均为空操作,
// 树查询仍然正确, 只是每次都落库。
type CacheService struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheService(rdb *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *CacheService {
	if prefix == "" {
		prefix = "sp:tree:"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CacheService{rdb: rdb, prefix: prefix, ttl: ttl, logger: logger}
}

func (s *CacheService) key(nodeID int64, kind string) string {
	return fmt.Sprintf("%s%d:%s", s.prefix, nodeID, kind)
}

// Get 读缓存, 未命中或缓存不可用时返回 false
func (s *CacheService) Get(ctx context.Context, nodeID int64, kind string, dest interface{}) bool {
	if s.rdb == nil {
		return false
	}
	raw, err := s.rdb.Get(ctx, s.key(nodeID, kind)).Result()
	if err != nil {
		if err != redis.Nil && s.logger != nil {
			s.logger.Warn("tree cache get failed",
				zap.Int64("node_id", nodeID),
				zap.String("kind", kind),
				zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false
	}
	return true
}

// Set 写缓存, 失败只记日志不影响调用方
func (s *CacheService) Set(ctx context.Context, nodeID int64, kind string, value interface{}) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.key(nodeID, kind), raw, s.ttl).Err(); err != nil && s.logger != nil {
		s.logger.Warn("tree cache set failed",
			zap.Int64("node_id", nodeID),
			zap.String("kind", kind),
			zap.Error(err))
	}
}

// InvalidateNode 清除该节点全部四类缓存
func (s *CacheService) InvalidateNode(ctx context.Context, nodeID int64) {
	if s.rdb == nil {
		return
	}
	keys := make([]string, 0, len(cacheKinds))
	for _, kind := range cacheKinds {
		keys = append(keys, s.key(nodeID, kind))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil && s.logger != nil {
		s.logger.Warn("tree cache invalidate node failed",
			zap.Int64("node_id", nodeID),
			zap.Error(err))
	}
}

// InvalidateDescendantsOf 仅清除父节点的后代列表缓存。
// 新增/修改子节点只会让父节点的 descendants 过期, 其余缓存靠 TTL 收敛。
func (s *CacheService) InvalidateDescendantsOf(ctx context.Context, parentID int64) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.key(parentID, CacheKindDescendants)).Err(); err != nil && s.logger != nil {
		s.logger.Warn("tree cache invalidate descendants failed",
			zap.Int64("parent_id", parentID),
			zap.Error(err))
	}
}
