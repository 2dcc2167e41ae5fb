package lob

import "github.com/anish1337/lob/store"

// priceLevel is the value stored in the skiplist for one price, spec
// §3 PriceLevel. It threads resting orders into a FIFO by head/tail
// handles rather than raw pointers, so the list survives pool growth —
// the dense-handle design spec §9 recommends as the non-intrusive
// alternative to back-pointers.
type priceLevel struct {
	price         Price
	totalQuantity Quantity
	head          store.Handle
	tail          store.Handle
	count         int
}

// pushBack appends h to the level's FIFO tail and folds its remaining
// quantity into total_quantity (spec §3 invariant 3). New admissions
// always go to the tail to preserve time priority.
func pushBack(pool *store.Pool, lvl *priceLevel, h store.Handle) {
	oldTail := lvl.tail
	rec := pool.Get(h)
	rec.SetLinks(store.NilHandle, oldTail)

	if oldTail != store.NilHandle {
		tailRec := pool.Get(oldTail)
		tailRec.SetLinks(h, tailRec.Prev())
	} else {
		lvl.head = h
	}
	lvl.tail = h
	lvl.totalQuantity += rec.Remaining()
	lvl.count++
}

// unlink removes h from the level's FIFO, without releasing it to the
// pool — its caller, releaseHandle, releases the record afterwards
// (on cancel, fill, and the slow path of modify, which admits a fresh
// record in its place).
func unlink(pool *store.Pool, lvl *priceLevel, h store.Handle) {
	rec := pool.Get(h)
	prev, next := rec.Prev(), rec.Next()

	if prev != store.NilHandle {
		pool.Get(prev).SetLinks(next, pool.Get(prev).Prev())
	} else {
		lvl.head = next
	}
	if next != store.NilHandle {
		pool.Get(next).SetLinks(pool.Get(next).Next(), prev)
	} else {
		lvl.tail = prev
	}

	rec.SetLinks(store.NilHandle, store.NilHandle)
	lvl.totalQuantity -= rec.Remaining()
	lvl.count--
}

// empty reports whether the level's FIFO has drained, spec §3
// invariant 2 ("a level exists iff its FIFO is non-empty").
func (lvl *priceLevel) empty() bool { return lvl.count == 0 }
