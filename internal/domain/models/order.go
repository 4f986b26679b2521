package models

import "time"

// OrderLine is one SKU row of an order.
type OrderLine struct {
	OrderLineID string
	SKU         string
	Quantity    int
}

// OrderRecord is an order as returned by the order source. DatePlaced is in
// UTC and zero when the source omitted it or sent something unparseable.
type OrderRecord struct {
	OrderID       string
	OrderStatus   string
	SalesChannel  string
	DatePlaced    time.Time
	DatePlacedRaw string
	Lines         []OrderLine
}

// OrderQuery selects orders placed within [From, To] for the given channels.
type OrderQuery struct {
	From     time.Time
	To       time.Time
	Channels []string
	Fields   []string
}

// Output selectors understood by the order source.
const (
	FieldOrderID      = "OrderID"
	FieldOrderStatus  = "OrderStatus"
	FieldSalesChannel = "SalesChannel"
	FieldDatePlaced   = "DatePlaced"
	FieldOrderLine    = "OrderLine"
)

// FlatOrderLine is the export row of the data-source endpoint. Field names
// match what existing consumers read.
type FlatOrderLine struct {
	OrderID      string `json:"OrderID"`
	OrderStatus  string `json:"OrderStatus"`
	SalesChannel string `json:"SalesChannel"`
	DatePlaced   string `json:"DatePlaced"`
	OrderLineSKU string `json:"OrderLineSKU"`
	OrderLineQty int    `json:"OrderLineQty"`
}
