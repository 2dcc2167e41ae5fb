package lob

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchingEngine_PriceTimePriorityAggregation(t *testing.T) {
	e := NewMatchingEngine(nil, WithClock(NewCounterClock(1)))

	require.Equal(t, New, e.SubmitOrder(1, Buy, Limit, 100, 10))
	require.Equal(t, New, e.SubmitOrder(2, Buy, Limit, 100, 5))
	require.Equal(t, New, e.SubmitOrder(3, Buy, Limit, 100, 8))

	levels := e.GetOrderBook().GetLevels(Buy, 1)
	require.Equal(t, Quantity(23), levels[0].TotalQuantity)

	status := e.SubmitOrder(4, Sell, Limit, 100, 12)
	require.Equal(t, Filled, status)

	levels = e.GetOrderBook().GetLevels(Buy, 1)
	require.Equal(t, Quantity(11), levels[0].TotalQuantity)

	h := e.GetOrderBook().firstOrderAt(Buy, 100)
	head := e.GetOrderBook().record(h)
	require.Equal(t, OrderID(2), head.ID)
	require.Equal(t, Quantity(3), head.Remaining())
}

func TestMatchingEngine_PartialFill(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 5))
	status := e.SubmitOrder(2, Buy, Limit, 100, 10)
	require.Equal(t, PartiallyFilled, status)

	v, ok := e.GetOrderBook().GetOrder(2)
	require.True(t, ok)
	require.Equal(t, Quantity(5), v.FilledQuantity)
	require.Equal(t, Quantity(5), v.Remaining())

	_, ok = e.GetOrderBook().GetOrder(1)
	require.False(t, ok, "fully filled resting order must be released")

	trades := e.DrainTrades()
	require.Len(t, trades, 1)
	require.Equal(t, Trade{BuyOrderID: 2, SellOrderID: 1, Price: 100, Quantity: 5}, withoutTimestamp(trades[0]))
}

func TestMatchingEngine_FullTwoSidedFill(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 10))
	status := e.SubmitOrder(2, Buy, Limit, 100, 10)
	require.Equal(t, Filled, status)

	require.Equal(t, 0, e.GetOrderBook().OrderCount())
	trades := e.DrainTrades()
	require.Len(t, trades, 1)
	require.Equal(t, Quantity(10), trades[0].Quantity)
}

func TestMatchingEngine_MarketSweep(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 10))
	require.Equal(t, New, e.SubmitOrder(2, Sell, Limit, 101, 5))

	status := e.SubmitOrder(3, Buy, Market, 0, 8)
	require.Equal(t, Filled, status)

	v, ok := e.GetOrderBook().GetOrder(1)
	require.True(t, ok)
	require.Equal(t, Quantity(2), v.Remaining())

	trades := e.DrainTrades()
	require.Len(t, trades, 1)
	require.Equal(t, Quantity(8), trades[0].Quantity)
	require.Equal(t, Price(100), trades[0].Price)
}

func TestMatchingEngine_MarketResidualIsCancelledNotRested(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 5))

	status := e.SubmitOrder(2, Buy, Market, 0, 10)
	require.Equal(t, Cancelled, status, "unfilled market residual is cancelled, not left resting at price 0")

	_, ok := e.GetOrderBook().GetOrder(2)
	require.False(t, ok)
	require.Equal(t, 0, e.GetOrderBook().OrderCount())
}

func TestMatchingEngine_ModifyPreservesFilledPortion(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Buy, Limit, 100, 10))
	require.Equal(t, Filled, e.SubmitOrder(2, Sell, Limit, 100, 4))

	require.True(t, e.ModifyOrder(1, 105, 20))

	v, ok := e.GetOrderBook().GetOrder(1)
	require.True(t, ok)
	require.Equal(t, Price(105), v.Price)
	require.Equal(t, Quantity(20), v.Quantity)
	require.Equal(t, Quantity(4), v.FilledQuantity)
	require.Equal(t, Quantity(16), v.Remaining())

	bid, _ := e.GetOrderBook().BestBid()
	require.Equal(t, Price(105), bid)
}

func TestMatchingEngine_IOCCancelsResidual(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 3))

	status := e.SubmitOrder(2, Buy, IOC, 100, 10)
	require.Equal(t, Cancelled, status)

	_, ok := e.GetOrderBook().GetOrder(2)
	require.False(t, ok)

	trades := e.DrainTrades()
	require.Len(t, trades, 1)
	require.Equal(t, Quantity(3), trades[0].Quantity)
}

func TestMatchingEngine_FOKRejectsWhenReachableQuantityInsufficient(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 5))
	require.Equal(t, New, e.SubmitOrder(2, Sell, Limit, 101, 3))

	status := e.SubmitOrder(3, Buy, FOK, 101, 20)
	require.Equal(t, Rejected, status, "reachable quantity at acceptable prices (8) is below requested (20)")

	require.Empty(t, e.DrainTrades(), "a rejected FOK must never touch the book")
	require.Equal(t, 2, e.GetOrderBook().OrderCount())
}

func TestMatchingEngine_FOKFillsCompletelyWhenReachable(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 5))
	require.Equal(t, New, e.SubmitOrder(2, Sell, Limit, 101, 10))

	status := e.SubmitOrder(3, Buy, FOK, 101, 12)
	require.Equal(t, Filled, status)

	trades := e.DrainTrades()
	var total Quantity
	for _, tr := range trades {
		total += tr.Quantity
	}
	require.Equal(t, Quantity(12), total)
}

func TestMatchingEngine_FOKRespectsLimitPriceInReachabilityWalk(t *testing.T) {
	e := NewMatchingEngine(nil)

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 5))
	require.Equal(t, New, e.SubmitOrder(2, Sell, Limit, 200, 50))

	status := e.SubmitOrder(3, Buy, FOK, 100, 10)
	require.Equal(t, Rejected, status, "only the 5 units at price 100 are reachable at this limit price")
}

func TestMatchingEngine_TradeCallbackInvokedSynchronously(t *testing.T) {
	var seen []Trade
	e := NewMatchingEngine(func(tr Trade) { seen = append(seen, tr) })

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 10))
	require.Equal(t, Filled, e.SubmitOrder(2, Buy, Limit, 100, 10))

	require.Len(t, seen, 1)
	require.Equal(t, Quantity(10), seen[0].Quantity)
}

func TestMatchingEngine_ReentrantSubmitFromCallbackIsRejected(t *testing.T) {
	var e *MatchingEngine
	var reentrantStatus OrderStatus
	e = NewMatchingEngine(func(tr Trade) {
		reentrantStatus = e.SubmitOrder(99, Buy, Limit, 1, 1)
	})

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 10))
	require.Equal(t, Filled, e.SubmitOrder(2, Buy, Limit, 100, 10))

	require.Equal(t, Rejected, reentrantStatus)
	_, ok := e.GetOrderBook().GetOrder(99)
	require.False(t, ok)
}

func TestMatchingEngine_ConservationOfFilledQuantity(t *testing.T) {
	// Order 2 is fully filled and released once SubmitOrder returns, so
	// both parties are read inside the trade callback, while the fill's
	// two records are still in the book.
	var e *MatchingEngine
	var bothFound bool
	var filledSum Quantity
	e = NewMatchingEngine(func(tr Trade) {
		v1, ok1 := e.GetOrderBook().GetOrder(tr.SellOrderID)
		v2, ok2 := e.GetOrderBook().GetOrder(tr.BuyOrderID)
		bothFound = ok1 && ok2
		filledSum = v1.FilledQuantity + v2.FilledQuantity
	})

	require.Equal(t, New, e.SubmitOrder(1, Sell, Limit, 100, 7))
	e.SubmitOrder(2, Buy, Limit, 100, 4)

	require.True(t, bothFound)

	require.Equal(t, Quantity(8), filledSum, "sum of filled_quantity across both parties increases by 2*trade_qty for one fill of size 4")
}

func TestMatchingEngine_SubmitOrderRejectsZeroQuantity(t *testing.T) {
	e := NewMatchingEngine(nil)
	require.Equal(t, Rejected, e.SubmitOrder(1, Buy, Limit, 100, 0))
	require.Equal(t, 0, e.GetOrderBook().OrderCount())
}

func withoutTimestamp(tr Trade) Trade {
	tr.Timestamp = 0
	return tr
}
