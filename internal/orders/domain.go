package orders

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentMethodCOD is the storefront's single payment method.
const PaymentMethodCOD = "cod"

// Item snapshots one cart line at submission time. Prices never change after
// the order is placed, whatever happens to the catalog.
type Item struct {
	ProductID   int64   `json:"product_id"`
	VariantID   int64   `json:"variant_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type Order struct {
	ID                uuid.UUID   `json:"id"`
	CheckoutSessionID uuid.UUID   `json:"checkout_session_id"`
	UserID            string      `json:"user_id"`
	AddressID         int64       `json:"address_id"`
	Subtotal          float64     `json:"subtotal"`
	DeliveryFee       float64     `json:"delivery_fee"`
	TotalAmount       float64     `json:"total_amount"`
	Currency          string      `json:"currency"`
	PaymentMethod     string      `json:"payment_method"`
	Status            OrderStatus `json:"status"`
	Items             []Item      `json:"items"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}
