package sqlite

import (
	"sync"
)

type changeKind int

const (
	changeRooms changeKind = iota
	changeReservations
)

// change describes a committed mutation. Empty RoomID/UserID act as
// wildcards: a cascading room delete touches reservations of unknown users,
// so it fans out to every reservation watcher.
type change struct {
	Kind   changeKind
	RoomID string
	UserID string
}

type subscriber struct {
	match   func(change) bool
	dirty   chan struct{}
	stop    chan struct{}
	stopped sync.Once
}

// Notifier fans committed mutations out to live-query subscribers. Each
// subscriber owns a goroutine that re-runs its query and delivers the full
// snapshot; the dirty channel has capacity one so bursts of writes coalesce
// into a single redelivery.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]*subscriber)}
}

func (n *Notifier) publish(ch change) {
	if n == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sub := range n.subs {
		if !sub.match(ch) {
			continue
		}
		select {
		case sub.dirty <- struct{}{}:
		default:
		}
	}
}

// subscribe registers a watcher and starts its delivery loop. deliver runs
// synchronously once before subscribe returns, so the caller holds the
// state as of subscription time, then once after every matching change. The
// returned unsubscribe is idempotent. A query failure inside deliver must be
// routed to the watcher's error callback by the caller; the loop itself
// never terminates on delivery errors.
func (n *Notifier) subscribe(match func(change) bool, deliver func()) func() {
	sub := &subscriber{
		match: match,
		dirty: make(chan struct{}, 1),
		stop:  make(chan struct{}),
	}

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = sub
	n.mu.Unlock()

	deliver()

	go func() {
		for {
			select {
			case <-sub.stop:
				return
			case <-sub.dirty:
				deliver()
			}
		}
	}()

	return func() {
		sub.stopped.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(sub.stop)
		})
	}
}

// ActiveSubscriptions reports the number of live watchers.
func (n *Notifier) ActiveSubscriptions() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func matchesReservation(roomID, userID string) func(change) bool {
	return func(ch change) bool {
		if ch.Kind != changeReservations {
			return false
		}
		if roomID != "" && ch.RoomID != "" && ch.RoomID != roomID {
			return false
		}
		if userID != "" && ch.UserID != "" && ch.UserID != userID {
			return false
		}
		return true
	}
}

func matchesRooms(ch change) bool {
	return ch.Kind == changeRooms
}
