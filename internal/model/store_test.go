package model

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendUpdatesLatestAndHistory(t *testing.T) {
	st := NewStore(100)
	assert.Nil(t, st.Latest())

	s1 := snap("T1")
	st.Append(s1)
	assert.Same(t, s1, st.Latest())
	assert.Equal(t, 1, st.Len())

	s2 := snap("T2")
	st.Append(s2)
	assert.Same(t, s2, st.Latest())
	assert.Equal(t, []string{"T2", "T1"}, timestamps(st.RecentFirst()))
}

func TestStore_AppendNilIgnored(t *testing.T) {
	st := NewStore(10)
	st.Append(nil)
	assert.Nil(t, st.Latest())
	assert.Equal(t, 0, st.Len())
}

func TestStore_SeedCapsHistory(t *testing.T) {
	st := NewStore(3)
	hist := []*Snapshot{snap("T1"), snap("T2"), snap("T3"), snap("T4"), snap("T5")}
	latest := snap("L")

	st.Seed(latest, hist)
	assert.Same(t, latest, st.Latest())
	assert.Equal(t, []string{"T3", "T4", "T5"}, timestamps(st.Chronological()))
}

func TestStore_SeedNilLatestKeepsPointer(t *testing.T) {
	st := NewStore(10)
	prev := snap("T0")
	st.Append(prev)

	st.Seed(nil, []*Snapshot{snap("T1")})
	assert.Same(t, prev, st.Latest())
	assert.Equal(t, []string{"T1"}, timestamps(st.Chronological()))
}

func TestStore_SeedNilHistoryKeepsEntries(t *testing.T) {
	st := NewStore(10)
	st.Append(snap("T0"))

	latest := snap("L")
	st.Seed(latest, nil)
	assert.Same(t, latest, st.Latest())
	assert.Equal(t, []string{"T0"}, timestamps(st.Chronological()))
}

func TestStore_LastUpdate(t *testing.T) {
	st := NewStore(10)
	_, ok := st.LastUpdate()
	assert.False(t, ok)

	st.Append(snap("2025-09-10 10:01:30"))
	ts, ok := st.LastUpdate()
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())
	assert.Equal(t, 1, ts.Minute())
	assert.Equal(t, 30, ts.Second())
}

// A reader must never see a latest pointer whose snapshot is missing from history.
func TestStore_LatestAlwaysInHistory(t *testing.T) {
	st := NewStore(5)
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			st.Append(snap(fmt.Sprintf("T%d", i)))
		}
		close(stop)
	}()

	violations := 0
	for {
		select {
		case <-stop:
			wg.Wait()
			assert.Zero(t, violations)
			return
		default:
		}
		st.mu.RLock()
		latest := st.latest
		recent := st.history.RecentFirst()
		st.mu.RUnlock()
		if latest != nil && (len(recent) == 0 || recent[0] != latest) {
			violations++
		}
		time.Sleep(time.Microsecond)
	}
}
