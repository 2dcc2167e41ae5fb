// Package lob implements the two-sided price-time-priority ladder of
// spec §4.2: per-side ordered price levels, each a FIFO of resting
// orders, plus the id-index used for O(1) cancel/modify/lookup.
//
// The ordered price levels are grounded in the teacher's queue.go,
// which keys a github.com/huandu/skiplist by price for O(log L)
// insert/erase and O(1) best-price access via Front(). Order storage
// is delegated to package store (spec §4.1's pooled allocator); OrderBook
// owns the FIFO threading and the id-index on top of store's handles.
package lob

import "github.com/anish1337/lob/store"

// Re-exported domain types, following the teacher's own
// type Side = protocol.Side aliasing pattern in models.go.
type (
	OrderID     = store.OrderID
	Price       = store.Price
	Quantity    = store.Quantity
	Side        = store.Side
	OrderType   = store.OrderType
	OrderStatus = store.OrderStatus
)

const (
	Buy  = store.Buy
	Sell = store.Sell
)

const (
	Limit  = store.Limit
	Market = store.Market
	IOC    = store.IOC
	FOK    = store.FOK
)

const (
	New             = store.New
	PartiallyFilled = store.PartiallyFilled
	Filled          = store.Filled
	Cancelled       = store.Cancelled
	Rejected        = store.Rejected
)

// OrderView is the read-only snapshot returned by GetOrder. It copies
// out of the pool so callers cannot mutate resting-order state except
// through the book's own mutators (spec §4.2 get_order()).
type OrderView struct {
	ID             OrderID
	Side           Side
	Type           OrderType
	Price          Price
	Quantity       Quantity
	FilledQuantity Quantity
	Timestamp      int64
	Status         OrderStatus
}

// Remaining returns quantity minus filled quantity.
func (v OrderView) Remaining() Quantity { return v.Quantity - v.FilledQuantity }

// PriceLevelView is a read-only (price, total_quantity) pair, spec
// §4.2 get_levels().
type PriceLevelView struct {
	Price         Price
	TotalQuantity Quantity
}

// Trade is an atomic fill pairing one buy and one sell order, spec §3.
type Trade struct {
	BuyOrderID  OrderID
	SellOrderID OrderID
	Price       Price
	Quantity    Quantity
	Timestamp   int64
}
