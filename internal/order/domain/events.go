package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCancelled     = "OrderCancelled"
	EventOrderRemoved       = "OrderRemoved"
)

type OrderCreated struct {
	OrderID    string          `json:"orderId"`
	Number     string          `json:"orderNumber"`
	CustomerID int64           `json:"customerId"`
	Total      decimal.Decimal `json:"total"`
	Items      []Item          `json:"items"`
}

type OrderStatusChanged struct {
	OrderID   string `json:"orderId"`
	From      Status `json:"from"`
	To        Status `json:"to"`
	Location  string `json:"location,omitempty"`
	UpdatedBy string `json:"updatedBy"`
}

type OrderCancelled struct {
	OrderID     string `json:"orderId"`
	CancelledBy Actor  `json:"cancelledBy"`
	Reason      string `json:"reason"`
}

type OrderRemoved struct {
	OrderID        string     `json:"orderId"`
	Reason         string     `json:"reason"`
	Archived       bool       `json:"archived"`
	AutoDeleteDate *time.Time `json:"autoDeleteDate,omitempty"`
}
