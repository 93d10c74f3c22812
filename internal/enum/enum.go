package enum

// Values mirror what the order service sends on the wire; the dispatcher
// rejects anything outside these sets.

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

const (
	PaymentTypeCash   = "CASH"
	PaymentTypeCard   = "CARD"
	PaymentTypeMobile = "MOBILE"
)

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ValidOrderType reports whether s is a known order type.
func ValidOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

// ValidPaymentType reports whether s is a known payment type.
func ValidPaymentType(s string) bool {
	switch s {
	case PaymentTypeCash, PaymentTypeCard, PaymentTypeMobile:
		return true
	}
	return false
}
