package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/dk264874293/cloud-back-service/internal/handler"
	"github.com/dk264874293/cloud-back-service/internal/middleware"
	"github.com/dk264874293/cloud-back-service/internal/repository"
	"github.com/dk264874293/cloud-back-service/internal/service"
	"github.com/dk264874293/cloud-back-service/internal/testutil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type providerTestEnv struct {
	router     *gin.Engine
	adminToken string
	userToken  string
}

func setupProviderHandler(t *testing.T) *providerTestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repo := repository.NewServiceProviderRepository(db)
	cache := service.NewCacheService(nil, "", 0, zap.NewNop())
	h := handler.NewServiceProviderHandler(service.NewServiceProviderService(repo, cache))

	r := testutil.SetupRouter()
	providers := testutil.AuthGroup(r, "/api/v1/service-providers")
	providers.GET("", h.List)
	providers.GET("/:id", h.Get)
	providers.GET("/:id/descendants", h.Descendants)
	providers.GET("/:id/path", h.FullPath)
	providers.GET("/:id/stats", h.Stats)

	adminOnly := providers.Group("")
	adminOnly.Use(middleware.RequireRole(entity.RoleAdmin))
	{
		adminOnly.POST("", h.Create)
		adminOnly.PUT("/:id", h.Update)
		adminOnly.DELETE("/:id", h.Delete)
	}

	return &providerTestEnv{
		router:     r,
		adminToken: testutil.GenerateTestToken(1, entity.RoleAdmin),
		userToken:  testutil.GenerateTestToken(100, entity.RoleUser),
	}
}

func (env *providerTestEnv) createNode(t *testing.T, name, nodeType string, parentID *int64) int64 {
	t.Helper()
	body := map[string]interface{}{"name": name, "type": nodeType, "region": "浙江省"}
	if parentID != nil {
		body["parent_id"] = *parentID
	}
	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/service-providers", body, env.adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s: status %d body %s", name, w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	return int64(data["id"].(float64))
}

func TestServiceProviderCreateAndGet(t *testing.T) {
	env := setupProviderHandler(t)

	rootID := env.createNode(t, "华东加盟商", entity.ProviderTypeFranchise, nil)
	channelID := env.createNode(t, "杭州渠道", entity.ProviderTypeChannel, &rootID)

	w := testutil.DoRequest(env.router, http.MethodGet, fmt.Sprintf("/api/v1/service-providers/%d", channelID), nil, env.userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["type"] != entity.ProviderTypeChannel {
		t.Errorf("type = %v, want CHANNEL", data["type"])
	}
	if int64(data["parent_id"].(float64)) != rootID {
		t.Errorf("parent_id = %v, want %d", data["parent_id"], rootID)
	}

	w = testutil.DoRequest(env.router, http.MethodGet, "/api/v1/service-providers/99999", nil, env.userToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing node: status %d, want 404", w.Code)
	}
}

func TestServiceProviderRoleGate(t *testing.T) {
	env := setupProviderHandler(t)

	body := map[string]interface{}{"name": "加盟商", "type": entity.ProviderTypeFranchise}
	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/service-providers", body, env.userToken)
	if w.Code != http.StatusForbidden {
		t.Errorf("user create: status %d, want 403", w.Code)
	}

	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/service-providers", body, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: status %d, want 401", w.Code)
	}
}

func TestServiceProviderTypeValidation(t *testing.T) {
	env := setupProviderHandler(t)

	// 渠道不能作为根节点
	body := map[string]interface{}{"name": "渠道", "type": entity.ProviderTypeChannel}
	w := testutil.DoRequest(env.router, http.MethodPost, "/api/v1/service-providers", body, env.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("channel as root: status %d, want 400", w.Code)
	}

	// 缺少必填字段
	w = testutil.DoRequest(env.router, http.MethodPost, "/api/v1/service-providers", map[string]interface{}{"name": "x"}, env.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing type: status %d, want 400", w.Code)
	}
}

func TestServiceProviderTreeEndpoints(t *testing.T) {
	env := setupProviderHandler(t)

	rootID := env.createNode(t, "加盟商", entity.ProviderTypeFranchise, nil)
	channelID := env.createNode(t, "渠道", entity.ProviderTypeChannel, &rootID)
	leafID := env.createNode(t, "服务商", entity.ProviderTypeServiceProvider, &channelID)

	w := testutil.DoRequest(env.router, http.MethodGet, fmt.Sprintf("/api/v1/service-providers/%d/descendants", rootID), nil, env.userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("descendants: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	if len(items) != 2 {
		t.Errorf("descendants = %d, want 2", len(items))
	}

	w = testutil.DoRequest(env.router, http.MethodGet, fmt.Sprintf("/api/v1/service-providers/%d/path", leafID), nil, env.userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("path: status %d", w.Code)
	}
	data = testutil.ParseResponse(w)["data"].(map[string]interface{})
	chain := data["items"].([]interface{})
	if len(chain) != 3 {
		t.Fatalf("full path = %d, want 3", len(chain))
	}
	first := chain[0].(map[string]interface{})
	if int64(first["id"].(float64)) != rootID {
		t.Errorf("path[0] = %v, want root %d", first["id"], rootID)
	}

	w = testutil.DoRequest(env.router, http.MethodGet, fmt.Sprintf("/api/v1/service-providers/%d/stats", rootID), nil, env.userToken)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status %d", w.Code)
	}
	stats := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if stats[entity.ProviderTypeChannel].(float64) != 1 {
		t.Errorf("stats = %v", stats)
	}
}

func TestServiceProviderUpdateDelete(t *testing.T) {
	env := setupProviderHandler(t)

	rootID := env.createNode(t, "加盟商", entity.ProviderTypeFranchise, nil)
	otherRootID := env.createNode(t, "加盟商B", entity.ProviderTypeFranchise, nil)
	channelID := env.createNode(t, "渠道", entity.ProviderTypeChannel, &rootID)

	w := testutil.DoRequest(env.router, http.MethodPut, fmt.Sprintf("/api/v1/service-providers/%d", channelID),
		map[string]interface{}{"name": "杭州渠道"}, env.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["name"] != "杭州渠道" {
		t.Errorf("name = %v", data["name"])
	}

	// 迁移父节点拒绝
	w = testutil.DoRequest(env.router, http.MethodPut, fmt.Sprintf("/api/v1/service-providers/%d", channelID),
		map[string]interface{}{"parent_id": otherRootID}, env.adminToken)
	if w.Code != http.StatusBadRequest {
		t.Errorf("re-parent: status %d, want 400", w.Code)
	}

	w = testutil.DoRequest(env.router, http.MethodDelete, fmt.Sprintf("/api/v1/service-providers/%d", channelID), nil, env.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}
	w = testutil.DoRequest(env.router, http.MethodGet, fmt.Sprintf("/api/v1/service-providers/%d", channelID), nil, env.adminToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("get deleted: status %d, want 404", w.Code)
	}
}
