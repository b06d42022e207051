package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dk264874293/cloud-back-service/internal/config"
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 认证服务
type AuthService struct {
	userRepo       *repository.UserRepository
	invitationRepo *repository.InvitationRepository
	rdb            *redis.Client
	cfg            *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, invitationRepo *repository.InvitationRepository, rdb *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		rdb:            rdb,
		cfg:            cfg,
	}
}

// TokenPair Token对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RegisterRequest 注册请求, 带邀请码时注册为服务商成员
type RegisterRequest struct {
	Phone          string `json:"phone" binding:"required"`
	Password       string `json:"password" binding:"required,min=6"`
	Nickname       string `json:"nickname"`
	InvitationCode string `json:"invitation_code"`
}

// Register 手机号注册
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*entity.User, *TokenPair, error) {
	exists, err := s.userRepo.ExistsByPhone(ctx, req.Phone)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, fmt.Errorf("%w: phone already registered", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Nickname:     req.Nickname,
		Role:         entity.RoleUser,
	}

	// 邀请码绑定服务商节点, 注册为服务商成员
	if req.InvitationCode != "" {
		inv, err := s.invitationRepo.FindByCode(ctx, req.InvitationCode)
		if err != nil {
			if err == repository.ErrNotFound {
				return nil, nil, fmt.Errorf("%w: invitation code not found", ErrValidation)
			}
			return nil, nil, err
		}
		if !inv.Usable(time.Now()) {
			return nil, nil, fmt.Errorf("%w: invitation code not usable", ErrValidation)
		}
		user.Role = entity.RoleProvider
		user.ServiceProviderID = &inv.ServiceProviderID
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("创建用户失败: %w", err)
	}

	if req.InvitationCode != "" {
		// 使用计数失败不回滚注册
		inv, _ := s.invitationRepo.FindByCode(ctx, req.InvitationCode)
		if inv != nil {
			_ = s.invitationRepo.IncrementUsedCount(ctx, inv.ID)
		}
	}

	tokenPair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}
	return user, tokenPair, nil
}

// Login 手机号密码登录
func (s *AuthService) Login(ctx context.Context, phone, password string) (*entity.User, *TokenPair, error) {
	user, err := s.userRepo.FindByPhone(ctx, phone)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil, fmt.Errorf("%w: incorrect phone or password", ErrValidation)
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("%w: incorrect phone or password", ErrValidation)
	}

	tokenPair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate token: %w", err)
	}
	return user, tokenPair, nil
}

// generateTokenPair 生成Token对
func (s *AuthService) generateTokenPair(user *entity.User) (*TokenPair, error) {
	now := time.Now()
	jti := uuid.New().String()

	accessClaims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"uid":  user.ID,
		"role": user.Role,
		"iss":  s.cfg.JWT.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.JWT.AccessTokenExpire).Unix(),
		"jti":  jti,
	}
	if user.BankID != nil {
		accessClaims["bank_id"] = *user.BankID
	}
	if user.ServiceProviderID != nil {
		accessClaims["service_provider_id"] = *user.ServiceProviderID
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshJti := uuid.New().String()
	refreshClaims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"type": "refresh",
		"iss":  s.cfg.JWT.Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.JWT.RefreshTokenExpire).Unix(),
		"jti":  refreshJti,
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	// 存储Refresh Token到Redis
	if s.rdb != nil {
		ctx := context.Background()
		s.rdb.Set(ctx, "token:refresh:"+refreshJti, user.ID, s.cfg.JWT.RefreshTokenExpire)
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.cfg.JWT.AccessTokenExpire.Seconds()),
	}, nil
}

// RefreshToken 刷新Token, 旧的 refresh jti 即刻作废
func (s *AuthService) RefreshToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	token, err := jwt.Parse(refreshTokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims["type"] != "refresh" {
		return nil, fmt.Errorf("invalid token type")
	}

	jti, _ := claims["jti"].(string)
	if s.rdb != nil {
		userIDStr, err := s.rdb.Get(ctx, "token:refresh:"+jti).Result()
		if err != nil || userIDStr == "" {
			return nil, fmt.Errorf("refresh token expired or invalid")
		}
		s.rdb.Del(ctx, "token:refresh:"+jti)
	}

	sub, _ := claims["sub"].(string)
	var userID int64
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil {
		return nil, fmt.Errorf("invalid token subject")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found")
	}

	return s.generateTokenPair(user)
}

// Logout 登出, 作废所有已知 refresh token 由客户端丢弃实现
func (s *AuthService) Logout(ctx context.Context, refreshTokenString string) error {
	if s.rdb == nil || refreshTokenString == "" {
		return nil
	}
	token, err := jwt.Parse(refreshTokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if jti, ok := claims["jti"].(string); ok {
			s.rdb.Del(ctx, "token:refresh:"+jti)
		}
	}
	return nil
}

// GetCurrentUser 获取当前用户
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}
