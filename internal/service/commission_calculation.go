package service

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
)

// 内置兜底费率表, 省份规则与全国默认规则都不存在时使用
var defaultCommissionRule = entity.CommissionRule{
	PlatformRate:       0.30,
	AgentRate:          0.07,
	FranchiseRate:      0.063,
	ChannelServiceRate: 0.05103,
	DeveloperRate:      0.051597,
	AccountManagerRate: 0.06,
	InterviewerRate:    0.02,
	HandlerRate:        0.02,
}

// CommissionLineItem 单条分佣计算结果, recipientId=0 表示平台内部留存
type CommissionLineItem struct {
	CommissionType string
	RecipientID    int64
	RecipientRole  string
	Rate           float64
	Amount         float64
}

// CommissionParticipants 订单上各角色的参与人, 为 nil 的角色不产生分佣项
type CommissionParticipants struct {
	DeveloperID      *int64
	AccountManagerID *int64
	InterviewerID    *int64
	HandlerID        *int64
}

// CalculateCommission 按规则计算分佣明细。
//
// 固定产出平台/代理/加盟商/渠道/服务商五项（渠道与服务商各占组合费率的一半），
// 开发人/管户人/面谈人/办理人仅在订单上挂了对应人员时产出。
// 各项金额独立按 orderAmount × rate 计算, 不要求合计等于订单金额。
func CalculateCommission(orderAmount float64, rule *entity.CommissionRule, p CommissionParticipants) []CommissionLineItem {
	if rule == nil {
		rule = &defaultCommissionRule
	}

	items := []CommissionLineItem{
		{CommissionType: entity.CommissionPlatform, RecipientID: 0, RecipientRole: entity.CommissionPlatform, Rate: rule.PlatformRate},
		{CommissionType: entity.CommissionAgent, RecipientID: 0, RecipientRole: entity.CommissionAgent, Rate: rule.AgentRate},
		{CommissionType: entity.CommissionFranchise, RecipientID: 0, RecipientRole: entity.CommissionFranchise, Rate: rule.FranchiseRate},
		{CommissionType: entity.CommissionChannel, RecipientID: 0, RecipientRole: entity.CommissionChannel, Rate: rule.ChannelServiceRate * 0.5},
		{CommissionType: entity.CommissionService, RecipientID: 0, RecipientRole: entity.CommissionService, Rate: rule.ChannelServiceRate * 0.5},
	}

	if p.DeveloperID != nil {
		items = append(items, CommissionLineItem{
			CommissionType: entity.CommissionDeveloper,
			RecipientID:    *p.DeveloperID,
			RecipientRole:  entity.CommissionDeveloper,
			Rate:           rule.DeveloperRate,
		})
	}
	if p.AccountManagerID != nil {
		items = append(items, CommissionLineItem{
			CommissionType: entity.CommissionAccountManager,
			RecipientID:    *p.AccountManagerID,
			RecipientRole:  entity.CommissionAccountManager,
			Rate:           rule.AccountManagerRate,
		})
	}
	if p.InterviewerID != nil {
		items = append(items, CommissionLineItem{
			CommissionType: entity.CommissionInterviewer,
			RecipientID:    *p.InterviewerID,
			RecipientRole:  entity.CommissionInterviewer,
			Rate:           rule.InterviewerRate,
		})
	}
	if p.HandlerID != nil {
		items = append(items, CommissionLineItem{
			CommissionType: entity.CommissionHandler,
			RecipientID:    *p.HandlerID,
			RecipientRole:  entity.CommissionHandler,
			Rate:           rule.HandlerRate,
		})
	}

	for i := range items {
		items[i].Amount = orderAmount * items[i].Rate
	}
	return items
}
