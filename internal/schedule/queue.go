// Package schedule implements the controller's per-car scheduling queue: a
// SCAN-style ordered sequence of floor stops banded by travel direction.
package schedule

import (
	"container/list"
	"sync"

	"github.com/mukuyev/elevator-control/internal/domain"
)

// entry is one scheduling queue node.
type entry struct {
	floor         domain.Floor
	direction     domain.Direction
	beenDisplayed bool
}

// Queue is an ordered sequence of stops for a single car, arranged as at
// most two monotone blocks: an up-block sorted ascending followed by a
// down-block sorted descending, or vice versa depending on which direction
// loaded first. Within a block, floors never reverse direction; this is
// what gives the queue its SCAN character and lets a "pickup on the way"
// request merge into whichever block is already headed that way.
type Queue struct {
	mu       sync.Mutex
	entries  *list.List
	lastSeen domain.Floor
	hasSeen  bool
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{entries: list.New()}
}

// Insert inserts a src/dst call pair. Direction is derived from whether dst
// is above or below src; both floors are inserted individually using the
// ordered-insert rule so the pickup floor and the destination floor each
// take their place in the correct block.
func (q *Queue) Insert(src, dst domain.Floor) {
	d := domain.DirectionBetween(src, dst)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.orderedInsert(src, d)
	q.orderedInsert(dst, d)
}

// orderedInsert places floor f, travelling in direction d, into the queue.
// An undisplayed node already matching (f, d) makes this a no-op
// (idempotent merge of a duplicate pickup/dropoff). Otherwise the node is
// inserted to preserve the at-most-two-monotone-block invariant: it is
// appended to an existing block that already runs in direction d, sorted
// within that block, or it starts a new trailing block when no block of
// that direction exists yet. Insertion exactly at the boundary between a
// trailing block of direction d and a following block of the opposite
// direction lands at the end of the trailing (d-direction) block.
func (q *Queue) orderedInsert(f domain.Floor, d domain.Direction) {
	for e := q.entries.Front(); e != nil; e = e.Next() {
		v := e.Value.(*entry)
		if !v.beenDisplayed && v.floor == f && v.direction == d {
			return
		}
	}

	blockStart, blockEnd := q.findBlock(d)
	if blockStart == nil {
		q.entries.PushBack(&entry{floor: f, direction: d})
		return
	}

	for e := blockStart; ; e = e.Next() {
		v := e.Value.(*entry)
		if d == domain.DirectionUp {
			if f.Value() < v.floor.Value() {
				q.entries.InsertBefore(&entry{floor: f, direction: d}, e)
				return
			}
		} else {
			if f.Value() > v.floor.Value() {
				q.entries.InsertBefore(&entry{floor: f, direction: d}, e)
				return
			}
		}
		if e == blockEnd {
			q.entries.InsertAfter(&entry{floor: f, direction: d}, e)
			return
		}
	}
}

// findBlock returns the first and last element of the single contiguous run
// of entries sharing direction d, or (nil, nil) if no such run exists. The
// queue holds at most two such runs (up and down) at any time.
func (q *Queue) findBlock(d domain.Direction) (*list.Element, *list.Element) {
	var start, end *list.Element
	for e := q.entries.Front(); e != nil; e = e.Next() {
		v := e.Value.(*entry)
		if v.direction == d {
			if start == nil {
				start = e
			}
			end = e
		} else if start != nil {
			break
		}
	}
	return start, end
}

// PopHead discards the head of the queue, if any.
func (q *Queue) PopHead() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if front := q.entries.Front(); front != nil {
		q.entries.Remove(front)
	}
}

// NextUndisplayed scans for the first undisplayed node, marks it displayed,
// and returns its floor. Returns (zero, false) if the queue is empty or
// every node has already been displayed.
func (q *Queue) NextUndisplayed() (domain.Floor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for e := q.entries.Front(); e != nil; e = e.Next() {
		v := e.Value.(*entry)
		if !v.beenDisplayed {
			v.beenDisplayed = true
			q.lastSeen = v.floor
			q.hasSeen = true
			return v.floor, true
		}
	}
	return domain.Floor(0), false
}

// PrevDisplayed returns the floor of the last node NextUndisplayed returned,
// without mutating the queue.
func (q *Queue) PrevDisplayed() (domain.Floor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastSeen, q.hasSeen
}

// Empty reports whether the queue holds no entries.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.entries.Len() == 0
}

// Len returns the number of undisplayed stops remaining in the queue, for
// diagnostic reporting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for e := q.entries.Front(); e != nil; e = e.Next() {
		if !e.Value.(*entry).beenDisplayed {
			n++
		}
	}
	return n
}
