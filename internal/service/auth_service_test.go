package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dk264874293/cloud-back-service/internal/config"
	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/dk264874293/cloud-back-service/internal/testutil"
	"github.com/redis/go-redis/v9"
)

type authTestEnv struct {
	auth           *service.AuthService
	invitationRepo *repository.InvitationRepository
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{}
	cfg.JWT.Secret = testutil.JWTSecret
	cfg.JWT.Issuer = "cloud-back-service"
	cfg.JWT.AccessTokenExpire = 2 * time.Hour
	cfg.JWT.RefreshTokenExpire = 7 * 24 * time.Hour

	userRepo := repository.NewUserRepository(db)
	invitationRepo := repository.NewInvitationRepository(db)
	return &authTestEnv{
		auth:           service.NewAuthService(userRepo, invitationRepo, rdb, cfg),
		invitationRepo: invitationRepo,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := context.Background()

	user, tokens, err := env.auth.Register(ctx, &service.RegisterRequest{
		Phone:    "13800138000",
		Password: "secret123",
		Nickname: "张三",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != entity.RoleUser {
		t.Errorf("role = %s, want USER", user.Role)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if tokens.ExpiresIn != int64((2 * time.Hour).Seconds()) {
		t.Errorf("expires_in = %d", tokens.ExpiresIn)
	}

	// 手机号重复
	if _, _, err := env.auth.Register(ctx, &service.RegisterRequest{Phone: "13800138000", Password: "secret123"}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("duplicate phone err = %v, want ErrValidation", err)
	}

	if _, _, err := env.auth.Login(ctx, "13800138000", "wrong"); !errors.Is(err, service.ErrValidation) {
		t.Errorf("wrong password err = %v, want ErrValidation", err)
	}
	if _, _, err := env.auth.Login(ctx, "13999999999", "secret123"); !errors.Is(err, service.ErrValidation) {
		t.Errorf("unknown phone err = %v, want ErrValidation", err)
	}

	logged, _, err := env.auth.Login(ctx, "13800138000", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("login user id = %d, want %d", logged.ID, user.ID)
	}
}

func TestRegisterWithInvitation(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := context.Background()

	inv := &entity.Invitation{
		Code:              "INV-TEST-0001",
		ServiceProviderID: 5,
		CreatedByID:       1,
		Status:            entity.InvitationActive,
		MaxUses:           1,
	}
	if err := env.invitationRepo.Create(ctx, inv); err != nil {
		t.Fatalf("seed invitation: %v", err)
	}

	user, _, err := env.auth.Register(ctx, &service.RegisterRequest{
		Phone:          "13700137000",
		Password:       "secret123",
		InvitationCode: "INV-TEST-0001",
	})
	if err != nil {
		t.Fatalf("register with code: %v", err)
	}
	if user.Role != entity.RoleProvider {
		t.Errorf("role = %s, want PROVIDER", user.Role)
	}
	if user.ServiceProviderID == nil || *user.ServiceProviderID != 5 {
		t.Errorf("service_provider_id = %v, want 5", user.ServiceProviderID)
	}

	// 次数用尽后不再可用
	if _, _, err := env.auth.Register(ctx, &service.RegisterRequest{
		Phone:          "13600136000",
		Password:       "secret123",
		InvitationCode: "INV-TEST-0001",
	}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("exhausted code err = %v, want ErrValidation", err)
	}

	if _, _, err := env.auth.Register(ctx, &service.RegisterRequest{
		Phone:          "13500135000",
		Password:       "secret123",
		InvitationCode: "NO-SUCH-CODE",
	}); !errors.Is(err, service.ErrValidation) {
		t.Errorf("unknown code err = %v, want ErrValidation", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := context.Background()

	_, tokens, err := env.auth.Register(ctx, &service.RegisterRequest{Phone: "13800138001", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rotated, err := env.auth.RefreshToken(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh did not rotate tokens")
	}

	// 旧 refresh token 即刻作废
	if _, err := env.auth.RefreshToken(ctx, tokens.RefreshToken); err == nil {
		t.Error("reused refresh token should fail")
	}

	// access token 不是 refresh 类型
	if _, err := env.auth.RefreshToken(ctx, rotated.AccessToken); err == nil {
		t.Error("access token should not be accepted as refresh token")
	}
}

func TestLogout(t *testing.T) {
	env := newAuthTestEnv(t)
	ctx := context.Background()

	_, tokens, err := env.auth.Register(ctx, &service.RegisterRequest{Phone: "13800138002", Password: "secret123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := env.auth.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.auth.RefreshToken(ctx, tokens.RefreshToken); err == nil {
		t.Error("refresh after logout should fail")
	}

	// 无效 token 登出为空操作
	if err := env.auth.Logout(ctx, "not-a-jwt"); err != nil {
		t.Errorf("logout garbage token err = %v", err)
	}
}
