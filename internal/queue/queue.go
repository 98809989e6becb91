// Package queue provides the in-process work queue that decouples webhook
// ingestion from downstream delivery.
package queue

import (
	"sync"

	"youtube_bot/internal/model"
)

// Kind tags the payload variant carried by an Item.
type Kind int

// Payload kinds. Today only videos flow through the queue; the tag exists so
// new payload kinds can be added without reworking the dispatch site.
const (
	KindVideo Kind = iota
)

// Item is a unit of work for the consumer loop.
type Item struct {
	Kind  Kind
	Video model.Announcement
}

// Queue is an unbounded, concurrency-safe FIFO. A Push never blocks and
// never fails; Pop reports whether an item was available.
type Queue struct {
	mu    sync.Mutex
	items []Item
}

// New creates an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Push appends an item to the back of the queue.
func (q *Queue) Push(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

// Pop removes and returns the item at the front of the queue.
func (q *Queue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
