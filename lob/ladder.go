package lob

import (
	"github.com/anish1337/lob/store"
	"github.com/huandu/skiplist"
)

// ladder is one side of the book: an ordered map from price to
// priceLevel, grounded in the teacher's queue.go (its depthList +
// priceList pair, here renamed to their spec §4.2 roles). Bids are
// ordered highest-first, asks lowest-first; both give O(log L)
// insert/erase and O(1) best-price access via levels.Front().
type ladder struct {
	side   store.Side
	levels *skiplist.SkipList
	index  map[Price]*skiplist.Element
}

func priceLess(a, b Price) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newBidLadder() *ladder {
	return &ladder{
		side: store.Buy,
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			return -priceLess(lhs.(Price), rhs.(Price)) // descending: highest price first
		})),
		index: make(map[Price]*skiplist.Element),
	}
}

func newAskLadder() *ladder {
	return &ladder{
		side: store.Sell,
		levels: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			return priceLess(lhs.(Price), rhs.(Price)) // ascending: lowest price first
		})),
		index: make(map[Price]*skiplist.Element),
	}
}

// getLevel returns the existing level at price, or nil.
func (l *ladder) getLevel(price Price) *priceLevel {
	el, ok := l.index[price]
	if !ok {
		return nil
	}
	return el.Value.(*priceLevel)
}

// getOrCreate returns the level at price, creating an empty one and
// linking it into the skiplist if absent.
func (l *ladder) getOrCreate(price Price) *priceLevel {
	if lvl := l.getLevel(price); lvl != nil {
		return lvl
	}
	lvl := &priceLevel{price: price, head: store.NilHandle, tail: store.NilHandle}
	el := l.levels.Set(price, lvl)
	l.index[price] = el
	return lvl
}

// removeIfEmpty eagerly drops a drained level, spec §3 invariant 2.
func (l *ladder) removeIfEmpty(lvl *priceLevel) {
	if !lvl.empty() {
		return
	}
	el, ok := l.index[lvl.price]
	if !ok {
		return
	}
	l.levels.RemoveElement(el)
	delete(l.index, lvl.price)
}

// front returns the best-priced level (head of the skiplist), or nil.
func (l *ladder) front() *priceLevel {
	el := l.levels.Front()
	if el == nil {
		return nil
	}
	return el.Value.(*priceLevel)
}

// top returns up to n (price, total_quantity) pairs in side-natural
// order. n == 0 means "all levels" (used by the FOK pre-check).
func (l *ladder) top(n int) []PriceLevelView {
	if n == 0 {
		n = l.levels.Len()
	}
	out := make([]PriceLevelView, 0, n)
	el := l.levels.Front()
	for i := 0; i < n && el != nil; i++ {
		lvl := el.Value.(*priceLevel)
		out = append(out, PriceLevelView{Price: lvl.price, TotalQuantity: lvl.totalQuantity})
		el = el.Next()
	}
	return out
}

// depthAt returns the total remaining quantity resting at price, or 0.
func (l *ladder) depthAt(price Price) Quantity {
	lvl := l.getLevel(price)
	if lvl == nil {
		return 0
	}
	return lvl.totalQuantity
}
