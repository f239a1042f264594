package enum

// RefundSource identifies the channel a refund action came from.
type RefundSource string

const (
	RefundSourcePOS     RefundSource = "POS"
	RefundSourceAdmin   RefundSource = "ADMIN"
	RefundSourceAPI     RefundSource = "API"
	RefundSourceWebhook RefundSource = "WEBHOOK"
)

// RefundAction names the operation recorded in the audit trail.
type RefundAction string

const (
	RefundActionInitiated     RefundAction = "refund_initiated"
	RefundActionFullInitiated RefundAction = "full_refund_initiated"
	RefundActionExchange      RefundAction = "exchange_refund_initiated"
	RefundActionBalance       RefundAction = "exchange_balance_refund"
)

// AuditStatus is the outcome recorded on a RefundAuditLog row.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
	AuditStatusPending AuditStatus = "pending"
)

// OrderType identifies how an order was placed.
type OrderType string

const (
	OrderTypePOS      OrderType = "POS"
	OrderTypeOnline   OrderType = "ONLINE"
	OrderTypeExchange OrderType = "EXCHANGE"
)
