package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/dk264874293/cloud-back-service/internal/testutil"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTreeService(t *testing.T) *service.ServiceProviderService {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repo := repository.NewServiceProviderRepository(db)
	cache := service.NewCacheService(nil, "", 0, zap.NewNop())
	return service.NewServiceProviderService(repo, cache)
}

func mustCreateNode(t *testing.T, svc *service.ServiceProviderService, name, nodeType string, parentID *int64) *entity.ServiceProvider {
	t.Helper()
	node, err := svc.CreateNode(context.Background(), &service.CreateNodeRequest{
		Name:     name,
		Type:     nodeType,
		Region:   "浙江省",
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("create node %s: %v", name, err)
	}
	return node
}

func TestCreateNodeHierarchy(t *testing.T) {
	svc := newTreeService(t)
	ctx := context.Background()

	root := mustCreateNode(t, svc, "华东加盟商", entity.ProviderTypeFranchise, nil)
	if root.Level != 0 || root.Path != "" || root.ParentID != nil || root.RootID != nil {
		t.Fatalf("unexpected root node: level=%d path=%q", root.Level, root.Path)
	}

	channel := mustCreateNode(t, svc, "杭州渠道", entity.ProviderTypeChannel, &root.ID)
	if channel.Level != root.Level+1 {
		t.Errorf("channel level = %d, want %d", channel.Level, root.Level+1)
	}
	if channel.RootID == nil || *channel.RootID != root.ID {
		t.Errorf("channel root_id = %v, want %d", channel.RootID, root.ID)
	}

	leaf := mustCreateNode(t, svc, "滨江服务商", entity.ProviderTypeServiceProvider, &channel.ID)
	if leaf.RootID == nil || *leaf.RootID != root.ID {
		t.Errorf("leaf root_id = %v, want %d", leaf.RootID, root.ID)
	}
	if leaf.Level != 2 {
		t.Errorf("leaf level = %d, want 2", leaf.Level)
	}

	got, err := svc.Get(ctx, leaf.ID)
	if err != nil {
		t.Fatalf("get leaf: %v", err)
	}
	if got.Status != entity.ProviderStatusActive {
		t.Errorf("leaf status = %s, want ACTIVE", got.Status)
	}
}

func TestCreateNodeTypeMatrix(t *testing.T) {
	svc := newTreeService(t)
	ctx := context.Background()

	root := mustCreateNode(t, svc, "加盟商A", entity.ProviderTypeFranchise, nil)
	channel := mustCreateNode(t, svc, "渠道A", entity.ProviderTypeChannel, &root.ID)
	leaf := mustCreateNode(t, svc, "服务商A", entity.ProviderTypeServiceProvider, &channel.ID)

	cases := []struct {
		name     string
		nodeType string
		parentID *int64
	}{
		{"渠道不能作为根节点", entity.ProviderTypeChannel, nil},
		{"服务商不能作为根节点", entity.ProviderTypeServiceProvider, nil},
		{"加盟商下只能挂渠道", entity.ProviderTypeFranchise, &root.ID},
		{"渠道下不能再挂渠道", entity.ProviderTypeChannel, &channel.ID},
		{"服务商是叶子节点", entity.ProviderTypeServiceProvider, &leaf.ID},
	}
	for _, tc := range cases {
		_, err := svc.CreateNode(ctx, &service.CreateNodeRequest{
			Name:     tc.name,
			Type:     tc.nodeType,
			ParentID: tc.parentID,
		})
		if !errors.Is(err, service.ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tc.name, err)
		}
	}

	if _, err := svc.CreateNode(ctx, &service.CreateNodeRequest{Name: "x", Type: "DEALER"}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("unknown type: err = %v, want ErrValidation", err)
	}
}

func TestUpdateNodeRejectsReparent(t *testing.T) {
	svc := newTreeService(t)
	ctx := context.Background()

	rootA := mustCreateNode(t, svc, "加盟商A", entity.ProviderTypeFranchise, nil)
	rootB := mustCreateNode(t, svc, "加盟商B", entity.ProviderTypeFranchise, nil)
	channel := mustCreateNode(t, svc, "渠道", entity.ProviderTypeChannel, &rootA.ID)

	if _, err := svc.UpdateNode(ctx, channel.ID, &service.UpdateNodeRequest{ParentID: &rootB.ID}); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("re-parent err = %v, want ErrValidation", err)
	}

	// 传入与当前一致的父节点不算迁移
	name := "杭州渠道(新)"
	updated, err := svc.UpdateNode(ctx, channel.ID, &service.UpdateNodeRequest{Name: &name, ParentID: &rootA.ID})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Errorf("name = %s, want %s", updated.Name, name)
	}

	status := entity.ProviderStatusSuspended
	if _, err := svc.UpdateNode(ctx, channel.ID, &service.UpdateNodeRequest{Status: &status}); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	bad := "CLOSED"
	if _, err := svc.UpdateNode(ctx, channel.ID, &service.UpdateNodeRequest{Status: &bad}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("bad status err = %v, want ErrValidation", err)
	}
}

func TestTreeQueries(t *testing.T) {
	svc := newTreeService(t)
	ctx := context.Background()

	root := mustCreateNode(t, svc, "加盟商", entity.ProviderTypeFranchise, nil)
	ch1 := mustCreateNode(t, svc, "渠道1", entity.ProviderTypeChannel, &root.ID)
	ch2 := mustCreateNode(t, svc, "渠道2", entity.ProviderTypeChannel, &root.ID)
	sp1 := mustCreateNode(t, svc, "服务商1", entity.ProviderTypeServiceProvider, &ch1.ID)
	sp2 := mustCreateNode(t, svc, "服务商2", entity.ProviderTypeServiceProvider, &ch1.ID)

	descendants, err := svc.GetDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(descendants) != 4 {
		t.Fatalf("root descendants = %d, want 4", len(descendants))
	}
	// (level, id) 升序: 渠道在前, 服务商在后
	wantOrder := []int64{ch1.ID, ch2.ID, sp1.ID, sp2.ID}
	for i, d := range descendants {
		if d.ID != wantOrder[i] {
			t.Errorf("descendants[%d].ID = %d, want %d", i, d.ID, wantOrder[i])
		}
	}

	ch1Desc, err := svc.GetDescendants(ctx, ch1.ID)
	if err != nil {
		t.Fatalf("ch1 descendants: %v", err)
	}
	if len(ch1Desc) != 2 {
		t.Errorf("ch1 descendants = %d, want 2", len(ch1Desc))
	}

	ancestors, err := svc.GetAncestors(ctx, sp1.ID)
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].ID != ch1.ID || ancestors[1].ID != root.ID {
		t.Errorf("sp1 ancestors order wrong: %+v", ancestors)
	}

	chain, err := svc.GetFullPath(ctx, sp1.ID)
	if err != nil {
		t.Fatalf("full path: %v", err)
	}
	if len(chain) != 3 || chain[0].ID != root.ID || chain[1].ID != ch1.ID || chain[2].ID != sp1.ID {
		t.Errorf("sp1 full path wrong: %+v", chain)
	}

	stats, err := svc.CountDescendantsByType(ctx, root.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[entity.ProviderTypeChannel] != 2 || stats[entity.ProviderTypeServiceProvider] != 2 {
		t.Errorf("stats = %v", stats)
	}
}

func TestTreeCacheInvalidationOnWrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewServiceProviderRepository(db)
	cache := service.NewCacheService(rdb, "sp:tree:", 10*time.Minute, zap.NewNop())
	svc := service.NewServiceProviderService(repo, cache)
	ctx := context.Background()

	root := mustCreateNode(t, svc, "加盟商", entity.ProviderTypeFranchise, nil)
	ch1 := mustCreateNode(t, svc, "渠道1", entity.ProviderTypeChannel, &root.ID)
	descKey := fmt.Sprintf("sp:tree:%d:%s", root.ID, service.CacheKindDescendants)

	first, err := svc.GetDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("descendants = %d, want 1", len(first))
	}
	if !mr.Exists(descKey) {
		t.Fatalf("descendants not cached under %s", descKey)
	}

	// 新增子节点只打掉父节点的后代列表缓存
	ch2 := mustCreateNode(t, svc, "渠道2", entity.ProviderTypeChannel, &root.ID)
	if mr.Exists(descKey) {
		t.Error("parent descendants cache not invalidated on child create")
	}
	second, err := svc.GetDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("descendants after create: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("descendants = %d, want 2 after child create", len(second))
	}

	// 绕过服务直改库不会失效缓存, 证明读确实走缓存
	if err := repo.Delete(ctx, ch2.ID); err != nil {
		t.Fatalf("raw delete: %v", err)
	}
	stale, err := svc.GetDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if len(stale) != 2 {
		t.Errorf("read bypassed cache, descendants = %d, want cached 2", len(stale))
	}

	// 更新子节点同样打掉父节点后代缓存, 下一次读回源
	name := "渠道1(新)"
	if _, err := svc.UpdateNode(ctx, ch1.ID, &service.UpdateNodeRequest{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if mr.Exists(descKey) {
		t.Error("parent descendants cache not invalidated on child update")
	}
	fresh, err := svc.GetDescendants(ctx, root.ID)
	if err != nil {
		t.Fatalf("fresh read: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Name != name {
		t.Errorf("fresh descendants = %+v, want the renamed channel only", fresh)
	}

	// 删除节点清掉其全部缓存和父节点后代缓存
	if _, err := svc.GetAncestors(ctx, ch1.ID); err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	ancKey := fmt.Sprintf("sp:tree:%d:%s", ch1.ID, service.CacheKindAncestors)
	if !mr.Exists(ancKey) {
		t.Fatalf("ancestors not cached under %s", ancKey)
	}
	if err := svc.DeleteNode(ctx, ch1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(ancKey) {
		t.Error("node caches not invalidated on delete")
	}
	if mr.Exists(descKey) {
		t.Error("parent descendants cache not invalidated on delete")
	}
}

func TestDeleteNode(t *testing.T) {
	svc := newTreeService(t)
	ctx := context.Background()

	root := mustCreateNode(t, svc, "加盟商", entity.ProviderTypeFranchise, nil)
	channel := mustCreateNode(t, svc, "渠道", entity.ProviderTypeChannel, &root.ID)

	if err := svc.DeleteNode(ctx, channel.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, channel.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("get deleted err = %v, want ErrNotFound", err)
	}
	if err := svc.DeleteNode(ctx, 99999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("delete missing err = %v, want ErrNotFound", err)
	}
}
