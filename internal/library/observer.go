package library

import "sync"

// ChangeKind names what happened to the library.
type ChangeKind string

const (
	ChangeLoaded  ChangeKind = "library.loaded"
	ChangeCleared ChangeKind = "library.cleared"
	ChangeAdded   ChangeKind = "book.added"
	ChangeUpdated ChangeKind = "book.updated"
	ChangeDeleted ChangeKind = "book.deleted"
)

// Change is delivered to subscribers after a mutation has been persisted.
type Change struct {
	Kind   ChangeKind `json:"kind"`
	UserID string     `json:"userId"`
	BookID string     `json:"bookId,omitempty"`
}

// Subscribe registers fn to receive every change, synchronously and in
// registration order. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.subs.add(fn)
}

type subscriber struct {
	id int
	fn func(Change)
}

type subscribers struct {
	mu     sync.Mutex
	nextID int
	list   []subscriber
}

func (s *subscribers) add(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	subID := s.nextID
	s.list = append(s.list, subscriber{id: subID, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i := range s.list {
				if s.list[i].id == subID {
					s.list = append(s.list[:i:i], s.list[i+1:]...)
					return
				}
			}
		})
	}
}

// notify calls subscribers outside the lock so they may query the store or unsubscribe.
func (s *subscribers) notify(c Change) {
	s.mu.Lock()
	list := make([]subscriber, len(s.list))
	copy(list, s.list)
	s.mu.Unlock()

	for _, sub := range list {
		sub.fn(c)
	}
}
