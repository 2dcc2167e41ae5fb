// Package store implements the pooled order allocator described in
// spec §4.1: a fixed-cost arena/free-list allocator for order records
// so the order book generates zero steady-state heap traffic.
//
// The arena layout is grounded in the teacher's
// structure/pooled_skiplist.go (index-addressed nodes, doubling growth,
// free-list threaded through the record's own storage) and in
// original_source/include/allocator/slab_allocator.hpp (the slab/
// free-list split this module is distilled from).
package store

import "log/slog"

// OrderID, Price, and Quantity mirror spec §3's data model. They live
// here, the leaf package, and book/engine re-export them as aliases —
// the same pattern the teacher uses for match.Side = protocol.Side.
type (
	OrderID  = uint64
	Price    = int64
	Quantity = uint64
)

// Side identifies which book a resting order belongs to.
type Side int8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType selects the matching routine an order is dispatched to.
type OrderType int8

const (
	Limit OrderType = iota + 1
	Market
	IOC
	FOK
)

// OrderStatus is the lifecycle state of an order, spec §3.
type OrderStatus int8

const (
	New OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
	Rejected
)

// Handle is a dense arena index into the pool. It replaces raw pointers
// so the FIFO threading described in spec §9 ("model the FIFO as a
// separate container keyed by a dense handle into the pool") survives
// arena growth without invalidating references held by the book.
type Handle int32

// NilHandle is the sentinel for "no handle". It is -1, not Handle's
// zero value, because 0 is a valid arena index.
const NilHandle Handle = -1

// Record is an order record as it lives in the pool. next/prev thread
// it into a price level's FIFO (owned by package lob); when the
// record is free, next aliases the free-list link, exactly as spec
// §4.1 permits ("the free-list link may alias the record's own bytes").
type Record struct {
	ID             OrderID
	Side           Side
	Type           OrderType
	Price          Price
	Quantity       Quantity
	FilledQuantity Quantity
	Timestamp      int64
	Status         OrderStatus

	next Handle
	prev Handle
}

// Remaining returns quantity minus filled_quantity, spec §3 "Derived".
func (r *Record) Remaining() Quantity { return r.Quantity - r.FilledQuantity }

// IsFilled reports whether the record has no remaining quantity.
func (r *Record) IsFilled() bool { return r.FilledQuantity >= r.Quantity }

// Next returns the record's FIFO successor handle.
func (r *Record) Next() Handle { return r.next }

// Prev returns the record's FIFO predecessor handle.
func (r *Record) Prev() Handle { return r.prev }

// SetLinks sets the FIFO sibling links; only package lob (via Pool's
// exported Get) should call this — it is the intrusive-list plumbing
// described in spec §3 "two sibling links used to thread the order
// into its price-level FIFO".
func (r *Record) SetLinks(next, prev Handle) {
	r.next = next
	r.prev = prev
}

const (
	// defaultSlabSize is the number of records the pool starts with,
	// mirroring the C++ original's SlabAllocator::DEFAULT_SLAB_SIZE.
	defaultSlabSize = 1024

	// growthFactor doubles capacity on exhaustion, matching the
	// teacher's structure.DefaultGrowthFactor.
	growthFactor = 2
)

// Stats reports pool usage for observability and for the "pool reuse"
// testable property in spec §8.
type Stats struct {
	Slabs       int // number of growth generations, including the initial slab
	SlabSize    int // capacity of the current backing arena
	Live        int // acquired-and-not-released record count
	FreeListLen int // records available for immediate reuse
}

// Pool is the arena-backed order-record allocator of spec §4.1.
// It is not safe for concurrent use; the book (its sole owner, spec
// §5) calls it only from the single command-processing goroutine.
type Pool struct {
	records  []Record
	freeHead Handle
	live     int
	freeLen  int
	grows    int
	logger   *slog.Logger
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithSlabSize overrides the initial arena capacity (default 1024).
func WithSlabSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.records = make([]Record, 0, n)
		}
	}
}

// WithLogger overrides the pool's logger (default: package-level slog
// logger via SetLogger, see logging.go).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// NewPool constructs a Pool with one pre-allocated slab.
func NewPool(opts ...Option) *Pool {
	p := &Pool{freeHead: NilHandle, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if cap(p.records) == 0 {
		p.records = make([]Record, 0, defaultSlabSize)
	}
	return p
}

// Acquire returns a zero-initialized record handle. It first tries the
// free list, then bumps a pointer within the current slab, then grows
// the arena (power-of-two doubling). Acquire only fails if growth
// itself would fail, which cannot happen for a Go slice short of the
// host running out of memory — mirrored here as an ok=false return so
// callers (book.AddOrder) have a resource-error path per spec §7.
func (p *Pool) Acquire() (Handle, bool) {
	if p.freeHead != NilHandle {
		h := p.freeHead
		rec := &p.records[h]
		p.freeHead = rec.next
		*rec = Record{next: NilHandle, prev: NilHandle}
		p.live++
		p.freeLen--
		return h, true
	}

	if len(p.records) == cap(p.records) {
		p.grow()
	}

	p.records = append(p.records, Record{next: NilHandle, prev: NilHandle})
	h := Handle(len(p.records) - 1)
	p.live++
	return h, true
}

// grow doubles the arena's capacity ahead of the next append, so the
// append below never triggers Go's own (unpredictable) growth curve.
func (p *Pool) grow() {
	oldCap := cap(p.records)
	newCap := oldCap * growthFactor
	if newCap == 0 {
		newCap = defaultSlabSize
	}
	grown := make([]Record, len(p.records), newCap)
	copy(grown, p.records)
	p.records = grown
	p.grows++
	if p.logger != nil {
		p.logger.Info("order pool grew", "old_capacity", oldCap, "new_capacity", newCap)
	}
}

// Release pushes handle onto the free list. Storage is reused verbatim
// on the next Acquire; the caller must have already removed handle
// from every index (book's id-index and price-level FIFO) before
// calling Release, per spec §4.1's ownership contract.
func (p *Pool) Release(h Handle) {
	if h == NilHandle {
		return
	}
	rec := &p.records[h]
	*rec = Record{next: p.freeHead, prev: NilHandle}
	p.freeHead = h
	p.live--
	p.freeLen++
}

// Get returns a pointer to the record at h. The pointer is only valid
// until the next Acquire that triggers a grow; callers must not retain
// it across such a call (re-fetch via Get instead).
func (p *Pool) Get(h Handle) *Record {
	if h == NilHandle || int(h) >= len(p.records) {
		return nil
	}
	return &p.records[h]
}

// Stats reports current pool usage, spec §4.1 stats().
func (p *Pool) Stats() Stats {
	return Stats{
		Slabs:       p.grows + 1,
		SlabSize:    cap(p.records),
		Live:        p.live,
		FreeListLen: p.freeLen,
	}
}

// Clear releases every live record and empties the arena, used by
// OrderBook.Clear (spec §4.2 clear()). The arena keeps its current
// capacity, and the growth count reported by Stats().Slabs is not reset.
func (p *Pool) Clear() {
	p.records = p.records[:0]
	p.freeHead = NilHandle
	p.live = 0
	p.freeLen = 0
}
