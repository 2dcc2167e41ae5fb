package lob

import "github.com/anish1337/lob/store"

// OrderBook is the two-sided ladder of spec §4.2. It owns the pooled
// order store, the per-side price ladders, and the id-index, and
// preserves the invariants of spec §3 across every public operation.
//
// OrderBook is not safe for concurrent use (spec §5: single-writer).
// The MatchingEngine in this package is its sole owner; GetOrder,
// BestBid/BestAsk/Spread/DepthAtPrice/GetLevels/OrderCount form the
// "borrowed read-only view" spec §5 grants external inspectors — Go
// has no compile-time const-reference, so that contract is documented,
// not enforced, exactly as the teacher leaves queue.order's contract
// to callers.
type OrderBook struct {
	pool   *store.Pool
	bids   *ladder
	asks   *ladder
	orders map[OrderID]store.Handle
	clock  Clock
}

// Option configures an OrderBook at construction.
type Option func(*bookConfig)

type bookConfig struct {
	poolOpts []store.Option
	clock    Clock
}

// WithSlabSize overrides the order pool's initial arena capacity.
func WithSlabSize(n int) Option {
	return func(c *bookConfig) { c.poolOpts = append(c.poolOpts, store.WithSlabSize(n)) }
}

// WithClock overrides the monotonic timestamp source, spec §9 ("make
// it injectable for tests").
func WithClock(clock Clock) Option {
	return func(c *bookConfig) { c.clock = clock }
}

// NewOrderBook constructs an empty order book.
func NewOrderBook(opts ...Option) *OrderBook {
	cfg := &bookConfig{clock: SystemClock()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &OrderBook{
		pool:   store.NewPool(cfg.poolOpts...),
		bids:   newBidLadder(),
		asks:   newAskLadder(),
		orders: make(map[OrderID]store.Handle),
		clock:  cfg.clock,
	}
}

func (b *OrderBook) ladderFor(side Side) *ladder {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// AddOrder admits a new resting order, spec §4.2 add_order(). It
// rejects a zero quantity or a duplicate id without mutating state.
func (b *OrderBook) AddOrder(id OrderID, side Side, typ OrderType, price Price, qty Quantity) error {
	if qty == 0 {
		return ErrInvalidQuantity
	}
	if _, exists := b.orders[id]; exists {
		return ErrDuplicateOrderID
	}

	h, ok := b.pool.Acquire()
	if !ok {
		return ErrPoolExhausted
	}

	rec := b.pool.Get(h)
	rec.ID = id
	rec.Side = side
	rec.Type = typ
	rec.Price = price
	rec.Quantity = qty
	rec.FilledQuantity = 0
	rec.Status = New
	rec.Timestamp = b.clock()

	lvl := b.ladderFor(side).getOrCreate(price)
	pushBack(b.pool, lvl, h)
	b.orders[id] = h
	return nil
}

// CancelOrder removes a resting order, spec §4.2 cancel_order(). It
// returns ErrOrderNotFound (no state change) if id is unknown.
func (b *OrderBook) CancelOrder(id OrderID) error {
	h, exists := b.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	b.releaseHandle(h)
	delete(b.orders, id)
	return nil
}

// releaseHandle unlinks h from its price level, eagerly dropping an
// emptied level, and returns the record to the pool. Callers are
// responsible for removing h from the id-index.
func (b *OrderBook) releaseHandle(h store.Handle) {
	rec := b.pool.Get(h)
	lvl := b.ladderFor(rec.Side).getLevel(rec.Price)
	if lvl != nil {
		unlink(b.pool, lvl, h)
		b.ladderFor(rec.Side).removeIfEmpty(lvl)
	}
	b.pool.Release(h)
}

// ModifyOrder changes a resting order's price and/or quantity, spec
// §4.2 modify_order(). It rejects a zero quantity, an unknown id, or a
// quantity below what has already filled.
func (b *OrderBook) ModifyOrder(id OrderID, newPrice Price, newQty Quantity) error {
	if newQty == 0 {
		return ErrInvalidQuantity
	}
	h, exists := b.orders[id]
	if !exists {
		return ErrOrderNotFound
	}

	rec := b.pool.Get(h)
	if newQty < rec.FilledQuantity {
		return ErrModifyBelowFilled
	}

	if newPrice == rec.Price && newQty >= rec.Quantity {
		b.modifyFastPath(h, newQty)
		return nil
	}
	return b.modifySlowPath(h, newPrice, newQty)
}

// modifyFastPath handles a same-price size-up in place, preserving
// time priority (spec §4.2's "Fast path").
func (b *OrderBook) modifyFastPath(h store.Handle, newQty Quantity) {
	rec := b.pool.Get(h)
	lvl := b.ladderFor(rec.Side).getLevel(rec.Price)
	oldRemaining := rec.Remaining()
	rec.Quantity = newQty
	lvl.totalQuantity += rec.Remaining() - oldRemaining
}

// modifySlowPath cancels the resting record and, if any quantity would
// remain, re-admits it with a fresh timestamp, losing time priority
// (spec §4.2's "Slow path"). The filled portion carries over onto the
// replacement record. When newQty <= filled the replacement would have
// zero remaining quantity — spec invariant 6 forbids a fully-filled
// order ever resting in the book — so the order simply stays cancelled,
// matching original_source/src/order_book.cpp's `if (remaining > 0)`
// guard around its own re-admission.
func (b *OrderBook) modifySlowPath(h store.Handle, newPrice Price, newQty Quantity) error {
	rec := b.pool.Get(h)
	id, side, typ, filled := rec.ID, rec.Side, rec.Type, rec.FilledQuantity

	b.releaseHandle(h)
	delete(b.orders, id)

	if newQty <= filled {
		return nil
	}

	h2, ok := b.pool.Acquire()
	if !ok {
		// The old record is already gone; per spec §7 a resource error
		// has no retry. The order no longer rests.
		return ErrPoolExhausted
	}

	rec2 := b.pool.Get(h2)
	rec2.ID = id
	rec2.Side = side
	rec2.Type = typ
	rec2.Price = newPrice
	rec2.Quantity = newQty
	rec2.FilledQuantity = filled
	rec2.Timestamp = b.clock()
	if filled > 0 {
		rec2.Status = PartiallyFilled
	} else {
		rec2.Status = New
	}

	lvl := b.ladderFor(side).getOrCreate(newPrice)
	pushBack(b.pool, lvl, h2)
	b.orders[id] = h2
	return nil
}

// BestBid returns the highest resting buy price, if any.
func (b *OrderBook) BestBid() (Price, bool) {
	lvl := b.bids.front()
	if lvl == nil {
		return 0, false
	}
	return lvl.price, true
}

// BestAsk returns the lowest resting sell price, if any.
func (b *OrderBook) BestAsk() (Price, bool) {
	lvl := b.asks.front()
	if lvl == nil {
		return 0, false
	}
	return lvl.price, true
}

// Spread returns best_ask - best_bid when both sides are non-empty.
func (b *OrderBook) Spread() (Price, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return ask - bid, true
}

// DepthAtPrice returns the resting quantity at price on side, or 0.
func (b *OrderBook) DepthAtPrice(side Side, price Price) Quantity {
	return b.ladderFor(side).depthAt(price)
}

// GetLevels returns up to n (price, total_quantity) pairs in
// side-natural order (bids descending, asks ascending). n == 0 means
// "every level".
func (b *OrderBook) GetLevels(side Side, n int) []PriceLevelView {
	return b.ladderFor(side).top(n)
}

// GetOrder returns a read-only snapshot of a resting order.
func (b *OrderBook) GetOrder(id OrderID) (OrderView, bool) {
	h, exists := b.orders[id]
	if !exists {
		return OrderView{}, false
	}
	rec := b.pool.Get(h)
	return OrderView{
		ID:             rec.ID,
		Side:           rec.Side,
		Type:           rec.Type,
		Price:          rec.Price,
		Quantity:       rec.Quantity,
		FilledQuantity: rec.FilledQuantity,
		Timestamp:      rec.Timestamp,
		Status:         rec.Status,
	}, true
}

// OrderCount returns the number of resting orders.
func (b *OrderBook) OrderCount() int {
	return len(b.orders)
}

// Clear releases every resting order and empties the book.
func (b *OrderBook) Clear() {
	b.bids = newBidLadder()
	b.asks = newAskLadder()
	b.orders = make(map[OrderID]store.Handle)
	b.pool.Clear()
}

// PoolStats exposes the pooled allocator's usage, spec §4.1 stats(),
// for the "pool reuse" testable property of spec §8.
func (b *OrderBook) PoolStats() store.Stats {
	return b.pool.Stats()
}

// --- Privileged operations, matcher-only (spec §4.2) ---
//
// These are unexported: the MatchingEngine lives in this same package
// so it can reach them directly, while anything outside package lob
// is limited to the public surface above — the closest Go analogue to
// the teacher's convention of keeping queue's mutators package-private
// to match and calling them only from order_book.go's handlers.

// firstOrderAt returns the handle at the head of side's FIFO at price,
// or store.NilHandle if the level doesn't exist or is empty.
func (b *OrderBook) firstOrderAt(side Side, price Price) store.Handle {
	lvl := b.ladderFor(side).getLevel(price)
	if lvl == nil {
		return store.NilHandle
	}
	return lvl.head
}

// firstOrderAtBest returns the handle resting at the best price on
// side, or store.NilHandle if side is empty.
func (b *OrderBook) firstOrderAtBest(side Side) store.Handle {
	lvl := b.ladderFor(side).front()
	if lvl == nil {
		return store.NilHandle
	}
	return lvl.head
}

// handleFor returns the pool handle backing a resting order's id, for
// the matcher to continue operating on an order it just admitted.
func (b *OrderBook) handleFor(id OrderID) (store.Handle, bool) {
	h, ok := b.orders[id]
	return h, ok
}

// record exposes the pool record backing a handle, for the matcher's
// hot loop. The returned pointer is invalidated by any Acquire that
// triggers a grow; the matcher never holds one across such a call.
func (b *OrderBook) record(h store.Handle) *store.Record {
	return b.pool.Get(h)
}

// removeFilledOrder unlinks and releases a fully-filled resting order,
// spec §4.2 remove_filled_order(). Precondition: record.IsFilled().
func (b *OrderBook) removeFilledOrder(h store.Handle) {
	id := b.pool.Get(h).ID
	b.releaseHandle(h)
	delete(b.orders, id)
}

// updateLevelTotalIncremental folds a resting order's remaining-
// quantity delta into its level's total, spec §4.2
// update_level_total_incremental(). Called after the matcher mutates
// filled_quantity on a resting order.
func (b *OrderBook) updateLevelTotalIncremental(h store.Handle, oldRemaining Quantity) {
	rec := b.pool.Get(h)
	lvl := b.ladderFor(rec.Side).getLevel(rec.Price)
	if lvl == nil {
		return
	}
	lvl.totalQuantity += rec.Remaining() - oldRemaining
}

// cancelHandle is CancelOrder's internal counterpart for when the
// matcher already holds a handle (IOC/FOK/Market residual cleanup),
// avoiding a redundant id-index lookup.
func (b *OrderBook) cancelHandle(h store.Handle) {
	id := b.pool.Get(h).ID
	b.releaseHandle(h)
	delete(b.orders, id)
}
