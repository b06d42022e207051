package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/dk264874293/cloud-back-service/internal/entity"
	"github.com/gin-gonic/gin"
)

func TestGetActor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", int64(7))
	c.Set("role", entity.RoleUser)
	actor := GetActor(c)
	if actor.ID != 7 || actor.Role != entity.RoleUser {
		t.Errorf("actor = %+v", actor)
	}
	if actor.BankID != nil {
		t.Errorf("bank_id = %v, want nil for non-bank token", *actor.BankID)
	}

	// 银行令牌带 bank_id, 银行侧操作以它为身份
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Set("user_id", int64(50))
	c.Set("role", entity.RoleBank)
	c.Set("bank_id", int64(3))
	actor = GetActor(c)
	if actor.BankID == nil || *actor.BankID != 3 {
		t.Errorf("bank_id = %v, want 3", actor.BankID)
	}
}
