package domain

// PaymentConfirmed is the notification event written to the outbox in the
// same transaction as the settlement. Delivery is at-least-once; consumers
// must tolerate duplicates.
type PaymentConfirmed struct {
	OrderID   int64  `json:"order_id"`
	OrderCode string `json:"order_code"`
	AmountVND int64  `json:"amount_vnd"`
	Email     string `json:"email"`
	TxnRef    string `json:"txn_ref"`
}

// PaymentRejected is emitted when a failed settlement cancels the order.
type PaymentRejected struct {
	OrderID   int64  `json:"order_id"`
	OrderCode string `json:"order_code"`
	Email     string `json:"email"`
	Reason    string `json:"reason"`
}

const (
	EventPaymentConfirmed = "PaymentConfirmed"
	EventPaymentRejected  = "PaymentRejected"
)
