package service

import (
	"github.com/dk264874293/cloud-back-service/internal/entity"
)

// 对接订单状态流转表, 状态 -> 可达状态集合
var connectionTransitions = map[string][]string{
	entity.ConnPendingAssign:   {entity.ConnInReview, entity.ConnCancelled},
	entity.ConnInReview:        {entity.ConnWaitingPurchase, entity.ConnCancelled},
	entity.ConnWaitingPurchase: {entity.ConnInOffline, entity.ConnCancelled},
	entity.ConnInOffline:       {entity.ConnConfirmed, entity.ConnCancelled, entity.ConnFailed},
	entity.ConnConfirmed:       {},
	entity.ConnCancelled:       {},
	entity.ConnFailed:          {},
}

// 委托订单状态流转表
var entrustmentTransitions = map[string][]string{
	entity.EntrustPendingReview: {entity.EntrustApproved, entity.EntrustRejected, entity.EntrustCancelled},
	entity.EntrustApproved:      {entity.EntrustProcessing},
	entity.EntrustProcessing:    {entity.EntrustCompleted, entity.EntrustFailed},
	entity.EntrustRejected:      {},
	entity.EntrustCompleted:     {},
	entity.EntrustCancelled:     {},
	entity.EntrustFailed:        {},
}

// 对接订单可取消状态集合, 注意不含 IN_OFFLINE
var connectionCancelable = map[string]bool{
	entity.ConnPendingAssign:   true,
	entity.ConnInReview:        true,
	entity.ConnWaitingPurchase: true,
}

// CanTransitionConnection 对接订单状态是否可达
func CanTransitionConnection(from, to string) bool {
	for _, next := range connectionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanTransitionEntrustment 委托订单状态是否可达
func CanTransitionEntrustment(from, to string) bool {
	for _, next := range entrustmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsConnectionCancelable 对接订单当前状态能否由用户取消
func IsConnectionCancelable(status string) bool {
	return connectionCancelable[status]
}

// IsConnectionBankPurchasable 银行能否确认购买
func IsConnectionBankPurchasable(status string) bool {
	return status == entity.ConnWaitingPurchase
}

// IsEntrustmentCancelable 委托订单能否由用户取消
func IsEntrustmentCancelable(status string) bool {
	return status == entity.EntrustPendingReview
}

// IsConnectionTerminal 对接订单是否已到终态
func IsConnectionTerminal(status string) bool {
	return len(connectionTransitions[status]) == 0
}

// IsEntrustmentTerminal 委托订单是否已到终态
func IsEntrustmentTerminal(status string) bool {
	return len(entrustmentTransitions[status]) == 0
}
