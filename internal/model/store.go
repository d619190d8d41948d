package model

import (
	"sync"
	"time"
)

// Store pairs the latest snapshot with the bounded history. Append updates
// both inside one critical section so a reader never sees the latest pointer
// without the matching history entry, or the reverse.
type Store struct {
	mu      sync.RWMutex
	latest  *Snapshot
	history *HistoryBuffer
}

// NewStore returns an empty Store whose history holds at most capacity entries.
func NewStore(capacity int) *Store {
	return &Store{history: NewHistoryBuffer(capacity)}
}

// Append records s as the newest snapshot.
func (st *Store) Append(s *Snapshot) {
	if s == nil {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.history.Append(s)
	st.latest = s
}

// Seed replaces the current contents with the results of an initial bulk
// fetch. Only the newest Cap() entries of history are kept. A nil latest
// leaves the latest pointer unchanged.
func (st *Store) Seed(latest *Snapshot, history []*Snapshot) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if history != nil {
		st.history.Clear()
		if n := st.history.Cap(); len(history) > n {
			history = history[len(history)-n:]
		}
		for _, s := range history {
			if s != nil {
				st.history.Append(s)
			}
		}
	}
	if latest != nil {
		st.latest = latest
	}
}

// Latest returns the most recent snapshot, or nil if none has arrived.
func (st *Store) Latest() *Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.latest
}

// Len returns the number of snapshots in history.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.history.Len()
}

// Cap returns the history capacity.
func (st *Store) Cap() int {
	return st.history.Cap()
}

// Chronological returns history oldest first.
func (st *Store) Chronological() []*Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.history.Chronological()
}

// RecentFirst returns history newest first.
func (st *Store) RecentFirst() []*Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.history.RecentFirst()
}

// LastUpdate returns the parsed timestamp of the latest snapshot.
func (st *Store) LastUpdate() (time.Time, bool) {
	latest := st.Latest()
	if latest == nil {
		return time.Time{}, false
	}
	return latest.Time()
}
