package lob

import (
	"sync/atomic"

	"github.com/anish1337/lob/store"
)

// TradeCallback is invoked synchronously, inside SubmitOrder, once per
// fill, in matching order (spec §6, §4.3 "Common matching step").
type TradeCallback func(Trade)

// MatchingEngine is the stateless driver of spec §4.3: given a newly
// admitted order it repeatedly crosses it against the opposite side
// under price-time priority, emits trades, and reconciles status.
//
// MatchingEngine owns its OrderBook exclusively (spec §5); it is not
// safe for concurrent use, and the trade callback must not re-enter
// any MatchingEngine or OrderBook mutator. A reentrant SubmitOrder,
// CancelOrder or ModifyOrder on the engine during the callback is
// rejected, per spec §9's defensive "in-match flag"; mutators called
// directly on the OrderBook are not guarded.
type MatchingEngine struct {
	book     *OrderBook
	trades   []Trade
	callback TradeCallback
	inMatch  atomic.Bool
}

// NewMatchingEngine constructs an engine with its own empty order
// book. callback may be nil. opts configure the underlying OrderBook
// (e.g. WithSlabSize, WithClock).
func NewMatchingEngine(callback TradeCallback, opts ...Option) *MatchingEngine {
	return &MatchingEngine{
		book:     NewOrderBook(opts...),
		callback: callback,
	}
}

// GetOrderBook returns the engine's order book. Per spec §5 this is a
// "borrowed read-only view" for external inspection; Go cannot enforce
// that at compile time, so treat the returned pointer as read-only.
func (e *MatchingEngine) GetOrderBook() *OrderBook {
	return e.book
}

// DrainTrades atomically moves and returns every trade accumulated
// since construction or the last drain, spec §4.3 "Trade buffer".
func (e *MatchingEngine) DrainTrades() []Trade {
	out := e.trades
	e.trades = nil
	return out
}

// SubmitOrder admits and, per its type, matches a new order, spec
// §4.3's "Submission flow". It returns Rejected without any state
// change for a zero quantity, a duplicate id, pool exhaustion, or a
// reentrant call from inside the trade callback.
func (e *MatchingEngine) SubmitOrder(id OrderID, side Side, typ OrderType, price Price, qty Quantity) OrderStatus {
	if e.inMatch.Load() {
		logger.Warn("rejected reentrant submit_order call from trade callback", "order_id", id)
		return Rejected
	}
	if qty == 0 {
		return Rejected
	}

	e.inMatch.Store(true)
	defer e.inMatch.Store(false)

	switch typ {
	case Limit:
		return e.submitLimit(id, side, price, qty)
	case Market:
		return e.submitMarket(id, side, qty)
	case IOC:
		return e.submitIOC(id, side, price, qty)
	case FOK:
		return e.submitFOK(id, side, price, qty)
	default:
		return Rejected
	}
}

// CancelOrder cancels a resting order, spec §6. It collapses the
// book's sentinel errors to the boolean success signal spec §6
// specifies for this entry point.
func (e *MatchingEngine) CancelOrder(id OrderID) bool {
	if e.inMatch.Load() {
		return false
	}
	return e.book.CancelOrder(id) == nil
}

// ModifyOrder modifies a resting order, spec §6. It collapses the
// book's sentinel errors to the boolean success signal spec §6
// specifies for this entry point.
func (e *MatchingEngine) ModifyOrder(id OrderID, newPrice Price, newQty Quantity) bool {
	if e.inMatch.Load() {
		return false
	}
	return e.book.ModifyOrder(id, newPrice, newQty) == nil
}

func (e *MatchingEngine) submitLimit(id OrderID, side Side, price Price, qty Quantity) OrderStatus {
	if err := e.book.AddOrder(id, side, Limit, price, qty); err != nil {
		logger.Debug("submit_order rejected", "order_id", id, "reason", err)
		return Rejected
	}
	h, _ := e.book.handleFor(id)
	e.matchLoop(h, side, true, price)
	return e.finalize(h, false)
}

// submitMarket implements spec §9's resolved open question #2: an
// unfilled market-order residual is cancelled unconditionally, the
// same policy as IOC, instead of resting at its nominal price.
func (e *MatchingEngine) submitMarket(id OrderID, side Side, qty Quantity) OrderStatus {
	if err := e.book.AddOrder(id, side, Market, 0, qty); err != nil {
		logger.Debug("submit_order rejected", "order_id", id, "reason", err)
		return Rejected
	}
	h, _ := e.book.handleFor(id)
	e.matchLoop(h, side, false, 0)
	return e.finalize(h, true)
}

func (e *MatchingEngine) submitIOC(id OrderID, side Side, price Price, qty Quantity) OrderStatus {
	if err := e.book.AddOrder(id, side, IOC, price, qty); err != nil {
		logger.Debug("submit_order rejected", "order_id", id, "reason", err)
		return Rejected
	}
	h, _ := e.book.handleFor(id)
	e.matchLoop(h, side, true, price)
	return e.finalize(h, true)
}

// submitFOK implements spec §9's resolved open question #1: the
// all-or-nothing pre-check the reference implementation omits. It
// walks the opposite side's levels, at acceptable prices, summing
// reachable quantity; if that sum can't cover qty the order is
// rejected before ever touching the book — no partial match, no
// trade, no mutation.
func (e *MatchingEngine) submitFOK(id OrderID, side Side, price Price, qty Quantity) OrderStatus {
	if e.reachableQuantity(side, price) < qty {
		logger.Debug("fok rejected by pre-check", "order_id", id, "requested", qty)
		return Rejected
	}

	if err := e.book.AddOrder(id, side, FOK, price, qty); err != nil {
		logger.Debug("submit_order rejected", "order_id", id, "reason", err)
		return Rejected
	}
	h, _ := e.book.handleFor(id)
	e.matchLoop(h, side, true, price)
	// The pre-check guarantees a full fill; cancelling any residual is
	// a defensive fallback, never expected to trigger.
	return e.finalize(h, true)
}

// reachableQuantity sums resting quantity on the opposite side that
// the aggressor's limit price can legally reach, walking levels
// best-to-worst so it stops as soon as price eligibility ends.
func (e *MatchingEngine) reachableQuantity(side Side, limitPrice Price) Quantity {
	var sum Quantity
	for _, lvl := range e.book.GetLevels(opposite(side), 0) {
		if side == Buy && lvl.Price > limitPrice {
			break
		}
		if side == Sell && lvl.Price < limitPrice {
			break
		}
		sum += lvl.TotalQuantity
	}
	return sum
}

// finalize reconciles the aggressor's terminal status after a match
// loop, spec §4.3 "Post-matching status reconciliation". If
// cancelResidual is set and quantity remains, the residual is
// cancelled (IOC/FOK/Market policy) and the report is Cancelled,
// mirroring the reference implementation's submit_order: a cancelled
// residual is simply absent from get_order afterward.
func (e *MatchingEngine) finalize(h store.Handle, cancelResidual bool) OrderStatus {
	rec := e.book.record(h)
	if rec.IsFilled() {
		e.book.removeFilledOrder(h)
		return Filled
	}

	if cancelResidual {
		e.book.cancelHandle(h)
		return Cancelled
	}

	if rec.FilledQuantity > 0 {
		rec.Status = PartiallyFilled
		return PartiallyFilled
	}
	rec.Status = New
	return New
}

// matchLoop repeatedly crosses the order at h against the opposite
// side under price-time priority, spec §4.3 "Common matching step".
// gated selects whether the aggressor's price bounds the match
// (Limit/IOC/FOK) or not (Market).
func (e *MatchingEngine) matchLoop(h store.Handle, side Side, gated bool, limitPrice Price) {
	opp := opposite(side)
	for {
		agg := e.book.record(h)
		if agg.Remaining() == 0 {
			return
		}

		restH := e.book.firstOrderAtBest(opp)
		if restH == store.NilHandle {
			return
		}

		resting := e.book.record(restH)
		if gated {
			if side == Buy && limitPrice < resting.Price {
				return
			}
			if side == Sell && limitPrice > resting.Price {
				return
			}
		}

		e.executeFill(h, restH, side)
	}
}

// executeFill performs one fill between the aggressor (h, on side) and
// the resting order (restH), emitting a trade and removing the
// resting order if it is now fully filled.
func (e *MatchingEngine) executeFill(h, restH store.Handle, side Side) {
	agg := e.book.record(h)
	resting := e.book.record(restH)

	oldAggRemaining := agg.Remaining()
	oldRestRemaining := resting.Remaining()
	tradeQty := oldAggRemaining
	if oldRestRemaining < tradeQty {
		tradeQty = oldRestRemaining
	}

	agg.FilledQuantity += tradeQty
	resting.FilledQuantity += tradeQty

	e.book.updateLevelTotalIncremental(h, oldAggRemaining)
	e.book.updateLevelTotalIncremental(restH, oldRestRemaining)

	buyID, sellID := agg.ID, resting.ID
	if side == Sell {
		buyID, sellID = resting.ID, agg.ID
	}

	trade := Trade{
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Price:       resting.Price,
		Quantity:    tradeQty,
		Timestamp:   e.book.clock(),
	}
	e.trades = append(e.trades, trade)
	logger.Debug("match", "buy_order_id", buyID, "sell_order_id", sellID, "price", trade.Price, "quantity", tradeQty)

	if e.callback != nil {
		e.callback(trade)
	}

	if resting.IsFilled() {
		e.book.removeFilledOrder(restH)
	}
}

func opposite(side Side) Side {
	if side == Buy {
		return Sell
	}
	return Buy
}
