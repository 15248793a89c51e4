package game

import "sync"

// Feed fans out room snapshots to subscribers after each committed change.
// A subscriber that falls behind only keeps the newest snapshot, so callers
// must treat deliveries as hints and re-read state when they matter.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Room
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[string]map[int]chan Room)}
}

// Subscribe returns a stream of room snapshots and a cancel func that closes it.
func (f *Feed) Subscribe(roomID string) (<-chan Room, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	ch := make(chan Room, 1)
	group := f.subs[roomID]
	if group == nil {
		group = make(map[int]chan Room)
		f.subs[roomID] = group
	}
	group[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if group := f.subs[roomID]; group != nil {
				delete(group, id)
				if len(group) == 0 {
					delete(f.subs, roomID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (f *Feed) Publish(room Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs[room.ID] {
		select {
		case ch <- room:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- room:
		default:
		}
	}
}

func (f *Feed) Subscribers(roomID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[roomID])
}

type roomLock struct {
	mu   sync.Mutex
	refs int
}

// roomLocks serializes mutating operations per room within this process.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*roomLock
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*roomLock)}
}

func (l *roomLocks) Lock(roomID string) func() {
	l.mu.Lock()
	lock := l.locks[roomID]
	if lock == nil {
		lock = &roomLock{}
		l.locks[roomID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, roomID)
		}
		l.mu.Unlock()
	}
}
