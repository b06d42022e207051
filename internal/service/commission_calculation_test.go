package service

import (
	"math"
	"testing"

	"github.com/dk264874293/cloud-back-service/internal/entity"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func findItem(t *testing.T, items []CommissionLineItem, commissionType string) CommissionLineItem {
	t.Helper()
	for _, it := range items {
		if it.CommissionType == commissionType {
			return it
		}
	}
	t.Fatalf("commission item %s not found", commissionType)
	return CommissionLineItem{}
}

func TestCalculateCommissionDefaultRule(t *testing.T) {
	items := CalculateCommission(5000, nil, CommissionParticipants{})
	if len(items) != 5 {
		t.Fatalf("expected 5 fixed items without participants, got %d", len(items))
	}

	expected := map[string]float64{
		entity.CommissionPlatform:  1500.00,
		entity.CommissionAgent:     350.00,
		entity.CommissionFranchise: 315.00,
		entity.CommissionChannel:   127.575,
		entity.CommissionService:   127.575,
	}
	for commissionType, amount := range expected {
		item := findItem(t, items, commissionType)
		if !almostEqual(item.Amount, amount) {
			t.Errorf("%s amount = %v, want %v", commissionType, item.Amount, amount)
		}
		if item.RecipientID != 0 {
			t.Errorf("%s recipient = %d, want 0", commissionType, item.RecipientID)
		}
		if item.RecipientRole != commissionType {
			t.Errorf("%s recipient role = %q, want %q", commissionType, item.RecipientRole, commissionType)
		}
	}

	// 渠道与服务商平分组合费率
	channel := findItem(t, items, entity.CommissionChannel)
	svc := findItem(t, items, entity.CommissionService)
	if !almostEqual(channel.Rate, svc.Rate) {
		t.Errorf("channel rate %v != service rate %v", channel.Rate, svc.Rate)
	}
	if !almostEqual(channel.Rate+svc.Rate, 0.05103) {
		t.Errorf("channel+service rate = %v, want 0.05103", channel.Rate+svc.Rate)
	}
}

func TestCalculateCommissionParticipants(t *testing.T) {
	developerID := int64(7)
	handlerID := int64(9)
	items := CalculateCommission(5000, nil, CommissionParticipants{
		DeveloperID: &developerID,
		HandlerID:   &handlerID,
	})
	if len(items) != 7 {
		t.Fatalf("expected 7 items with 2 participants, got %d", len(items))
	}

	dev := findItem(t, items, entity.CommissionDeveloper)
	if dev.RecipientID != developerID {
		t.Errorf("developer recipient = %d, want %d", dev.RecipientID, developerID)
	}
	if dev.RecipientRole != entity.CommissionDeveloper {
		t.Errorf("developer role = %s", dev.RecipientRole)
	}
	if !almostEqual(dev.Amount, 5000*0.051597) {
		t.Errorf("developer amount = %v, want %v", dev.Amount, 5000*0.051597)
	}

	handler := findItem(t, items, entity.CommissionHandler)
	if handler.RecipientID != handlerID {
		t.Errorf("handler recipient = %d, want %d", handler.RecipientID, handlerID)
	}
	if !almostEqual(handler.Amount, 100.00) {
		t.Errorf("handler amount = %v, want 100", handler.Amount)
	}

	// 未挂人的角色不产生分佣项
	for _, it := range items {
		if it.CommissionType == entity.CommissionAccountManager || it.CommissionType == entity.CommissionInterviewer {
			t.Errorf("unexpected item %s for absent participant", it.CommissionType)
		}
	}
}

func TestCalculateCommissionCustomRule(t *testing.T) {
	accountManagerID := int64(3)
	rule := &entity.CommissionRule{
		PlatformRate:       0.25,
		AgentRate:          0.05,
		FranchiseRate:      0.04,
		ChannelServiceRate: 0.06,
		DeveloperRate:      0.03,
		AccountManagerRate: 0.05,
		InterviewerRate:    0.01,
		HandlerRate:        0.01,
	}
	items := CalculateCommission(10000, rule, CommissionParticipants{AccountManagerID: &accountManagerID})

	platform := findItem(t, items, entity.CommissionPlatform)
	if !almostEqual(platform.Amount, 2500) {
		t.Errorf("platform amount = %v, want 2500", platform.Amount)
	}
	channel := findItem(t, items, entity.CommissionChannel)
	if !almostEqual(channel.Amount, 300) {
		t.Errorf("channel amount = %v, want 300", channel.Amount)
	}
	am := findItem(t, items, entity.CommissionAccountManager)
	if !almostEqual(am.Amount, 500) {
		t.Errorf("account manager amount = %v, want 500", am.Amount)
	}
	if am.RecipientID != accountManagerID {
		t.Errorf("account manager recipient = %d, want %d", am.RecipientID, accountManagerID)
	}
}
