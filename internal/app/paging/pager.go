/*
Package paging tracks offset pagination for one list screen.

A Pager owns the filter set and the cursor. Every fetch is described by a Ticket
carrying the generation it was issued in; resetting the filters starts a new
generation, so a response that arrives for an older ticket is discarded instead
of overwriting newer results.
*/
package paging

import "sync"

const (
	// PageSize is the category browser page size.
	PageSize = 20

	// FeedPageSize is the random feed page size.
	FeedPageSize = 15
)

// Ticket describes one page request.
type Ticket[F comparable] struct {
	Generation uint64
	Filters    F
	Offset     int
	Limit      int
}

// State is a read-only view of the pager.
type State[F comparable] struct {
	Filters  F
	Offset   int
	HasMore  bool
	InFlight bool
	Loaded   int
}

// Pager is safe for concurrent use.
type Pager[F comparable] struct {
	mu sync.Mutex

	pageSize   int
	generation uint64

	filters  F
	offset   int
	hasMore  bool
	inFlight bool
	loaded   int
}

// New creates a pager with the given page size and zero filters.
func New[F comparable](pageSize int) *Pager[F] {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	return &Pager[F]{pageSize: pageSize, hasMore: true}
}

// PageSize returns the configured page size.
func (p *Pager[F]) PageSize() int {
	return p.pageSize
}

// Reset installs filters, rewinds to offset 0 and returns the ticket for the first page.
// Tickets issued before the reset become stale.
func (p *Pager[F]) Reset(filters F) Ticket[F] {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation++
	p.filters = filters
	p.offset = 0
	p.loaded = 0
	p.hasMore = true
	p.inFlight = true

	return p.ticketLocked()
}

// Next returns the ticket for the following page. It refuses while a fetch is in
// flight or after a short page signalled the end of the list.
func (p *Pager[F]) Next() (Ticket[F], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight || !p.hasMore {
		return Ticket[F]{}, false
	}
	p.inFlight = true
	return p.ticketLocked(), true
}

// Complete records that the request for t returned n items. It returns false when t
// is stale and its items must be dropped.
func (p *Pager[F]) Complete(t Ticket[F], n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.Generation != p.generation {
		return false
	}

	p.inFlight = false
	p.offset = t.Offset + t.Limit
	p.loaded += n
	if n < t.Limit {
		p.hasMore = false
	}
	return true
}

// Fail releases the in-flight flag after a failed request so the page can be retried.
func (p *Pager[F]) Fail(t Ticket[F]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if t.Generation == p.generation {
		p.inFlight = false
	}
}

// Filters returns the active filter set.
func (p *Pager[F]) Filters() F {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filters
}

// State returns a snapshot.
func (p *Pager[F]) State() State[F] {
	p.mu.Lock()
	defer p.mu.Unlock()

	return State[F]{
		Filters:  p.filters,
		Offset:   p.offset,
		HasMore:  p.hasMore,
		InFlight: p.inFlight,
		Loaded:   p.loaded,
	}
}

func (p *Pager[F]) ticketLocked() Ticket[F] {
	return Ticket[F]{
		Generation: p.generation,
		Filters:    p.filters,
		Offset:     p.offset,
		Limit:      p.pageSize,
	}
}
