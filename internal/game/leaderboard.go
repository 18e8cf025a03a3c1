package game

import (
	"sort"
	"sync"
	"time"
)

// DefaultLeaderboardSize is how many finished sessions are kept.
const DefaultLeaderboardSize = 10

// Leaderboard keeps the best finished sessions of this process, highest
// score first. Equal scores keep the earlier session ahead.
//
// Operations:
//   - Record: O(n) insert into a bounded slice
//   - Top/Best: O(k) copy
type Leaderboard struct {
	mu      sync.RWMutex
	size    int
	entries []LeaderboardEntry
}

// LeaderboardEntry is one finished session.
type LeaderboardEntry struct {
	Session  int       `json:"session"`
	Score    int       `json:"score"`
	Ticks    uint64    `json:"ticks"`
	Finished time.Time `json:"finished"`
	Rank     int       `json:"rank"`
}

// NewLeaderboard creates a leaderboard holding at most size entries.
func NewLeaderboard(size int) *Leaderboard {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &Leaderboard{size: size}
}

// Record adds a finished session. Returns its rank (1 = best), or 0 when the
// score did not make the board.
func (lb *Leaderboard) Record(session, score int, ticks uint64) int {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	// First index with a strictly lower score, so ties stay in arrival order.
	i := sort.Search(len(lb.entries), func(i int) bool {
		return lb.entries[i].Score < score
	})
	if i >= lb.size {
		return 0
	}

	entry := LeaderboardEntry{Session: session, Score: score, Ticks: ticks, Finished: time.Now()}
	lb.entries = append(lb.entries, LeaderboardEntry{})
	copy(lb.entries[i+1:], lb.entries[i:])
	lb.entries[i] = entry
	if len(lb.entries) > lb.size {
		lb.entries = lb.entries[:lb.size]
	}
	return i + 1
}

// Top returns up to n best entries with ranks filled in.
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n <= 0 || n > len(lb.entries) {
		n = len(lb.entries)
	}
	out := make([]LeaderboardEntry, n)
	copy(out, lb.entries[:n])
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Best returns the top entry, if any.
func (lb *Leaderboard) Best() (LeaderboardEntry, bool) {
	top := lb.Top(1)
	if len(top) == 0 {
		return LeaderboardEntry{}, false
	}
	return top[0], true
}

// Length returns the number of entries on the board.
func (lb *Leaderboard) Length() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.entries)
}

// Clear removes all entries.
func (lb *Leaderboard) Clear() {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.entries = nil
}
