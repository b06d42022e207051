package service

import (
	"testing"

	"github.com/dk264874293/cloud-back-service/internal/entity"
)

func TestConnectionTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{entity.ConnPendingAssign, entity.ConnInReview, true},
		{entity.ConnPendingAssign, entity.ConnCancelled, true},
		{entity.ConnPendingAssign, entity.ConnWaitingPurchase, false},
		{entity.ConnInReview, entity.ConnWaitingPurchase, true},
		{entity.ConnInReview, entity.ConnConfirmed, false},
		{entity.ConnWaitingPurchase, entity.ConnInOffline, true},
		{entity.ConnWaitingPurchase, entity.ConnFailed, false},
		{entity.ConnInOffline, entity.ConnConfirmed, true},
		{entity.ConnInOffline, entity.ConnFailed, true},
		{entity.ConnInOffline, entity.ConnCancelled, true},
		{entity.ConnConfirmed, entity.ConnCancelled, false},
		{entity.ConnCancelled, entity.ConnInReview, false},
		{entity.ConnFailed, entity.ConnConfirmed, false},
		// 不可倒退
		{entity.ConnInOffline, entity.ConnWaitingPurchase, false},
		{entity.ConnWaitingPurchase, entity.ConnInReview, false},
	}
	for _, tc := range cases {
		if got := CanTransitionConnection(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionConnection(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEntrustmentTransitions(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{entity.EntrustPendingReview, entity.EntrustApproved, true},
		{entity.EntrustPendingReview, entity.EntrustRejected, true},
		{entity.EntrustPendingReview, entity.EntrustCancelled, true},
		{entity.EntrustPendingReview, entity.EntrustProcessing, false},
		{entity.EntrustApproved, entity.EntrustProcessing, true},
		{entity.EntrustApproved, entity.EntrustCompleted, false},
		{entity.EntrustProcessing, entity.EntrustCompleted, true},
		{entity.EntrustProcessing, entity.EntrustFailed, true},
		{entity.EntrustProcessing, entity.EntrustCancelled, false},
		{entity.EntrustCompleted, entity.EntrustProcessing, false},
		{entity.EntrustRejected, entity.EntrustApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransitionEntrustment(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionEntrustment(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestConnectionCancelable(t *testing.T) {
	cancelable := []string{entity.ConnPendingAssign, entity.ConnInReview, entity.ConnWaitingPurchase}
	for _, status := range cancelable {
		if !IsConnectionCancelable(status) {
			t.Errorf("IsConnectionCancelable(%s) = false, want true", status)
		}
	}
	// 线下对接后不可再由用户取消
	notCancelable := []string{entity.ConnInOffline, entity.ConnConfirmed, entity.ConnCancelled, entity.ConnFailed}
	for _, status := range notCancelable {
		if IsConnectionCancelable(status) {
			t.Errorf("IsConnectionCancelable(%s) = true, want false", status)
		}
	}
}

func TestEntrustmentCancelable(t *testing.T) {
	if !IsEntrustmentCancelable(entity.EntrustPendingReview) {
		t.Errorf("IsEntrustmentCancelable(PENDING_REVIEW) = false, want true")
	}
	for _, status := range []string{entity.EntrustApproved, entity.EntrustProcessing, entity.EntrustCompleted, entity.EntrustFailed} {
		if IsEntrustmentCancelable(status) {
			t.Errorf("IsEntrustmentCancelable(%s) = true, want false", status)
		}
	}
}

func TestBankPurchasable(t *testing.T) {
	if !IsConnectionBankPurchasable(entity.ConnWaitingPurchase) {
		t.Errorf("IsConnectionBankPurchasable(WAITING_PURCHASE) = false, want true")
	}
	for _, status := range []string{entity.ConnPendingAssign, entity.ConnInReview, entity.ConnInOffline, entity.ConnConfirmed} {
		if IsConnectionBankPurchasable(status) {
			t.Errorf("IsConnectionBankPurchasable(%s) = true, want false", status)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, status := range []string{entity.ConnConfirmed, entity.ConnCancelled, entity.ConnFailed} {
		if !IsConnectionTerminal(status) {
			t.Errorf("IsConnectionTerminal(%s) = false, want true", status)
		}
	}
	for _, status := range []string{entity.ConnPendingAssign, entity.ConnInReview, entity.ConnWaitingPurchase, entity.ConnInOffline} {
		if IsConnectionTerminal(status) {
			t.Errorf("IsConnectionTerminal(%s) = true, want false", status)
		}
	}
	for _, status := range []string{entity.EntrustRejected, entity.EntrustCompleted, entity.EntrustCancelled, entity.EntrustFailed} {
		if !IsEntrustmentTerminal(status) {
			t.Errorf("IsEntrustmentTerminal(%s) = false, want true", status)
		}
	}
}
