package service

import (
	"fmt"
	"math/rand"
	"time"
)

// 单号前缀
const (
	OrderNoPrefixConnection  = "CO"
	OrderNoPrefixEntrustment = "ET"
	OrderNoPrefixPayment     = "PAY"
	OrderNoPrefixWithdrawal  = "WIT"
)

// GenerateOrderNo 生成业务单号: 前缀 + 时间戳 + 4位随机数
func GenerateOrderNo(prefix string) string {
	return fmt.Sprintf("%s%s%04d", prefix, time.Now().Format("20060102150405"), rand.Intn(10000))
}
