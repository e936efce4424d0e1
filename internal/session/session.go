// Package session holds one user's in-memory dashboard state and the command
// handlers that mutate it. Nothing here is persisted.
package session

import (
	"sync"

	"portfolio-dashboard-bot/internal/alert"
	"portfolio-dashboard-bot/internal/types"
	"portfolio-dashboard-bot/internal/watchlist"
)

// State is the lifetime data of one user session
type State struct {
	mu        sync.Mutex
	holdings  []types.Holding
	nextSeq   int64
	watchlist []string
	email     string
	alerts    *alert.Book
	gen       uint64
}

func New() *State {
	return &State{
		watchlist: append([]string(nil), watchlist.Default...),
		alerts:    alert.NewBook(),
	}
}

// Holdings returns a copy of the recorded purchases in insertion order
func (s *State) Holdings() []types.Holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Holding(nil), s.holdings...)
}

// Watchlist returns a copy of the watched tickers
func (s *State) Watchlist() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.watchlist...)
}

// Email is the alert recipient, empty when not set
func (s *State) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// Generation tells apart successive sessions of the same chat
func (s *State) Generation() uint64 {
	return s.gen
}

// Alerts is the session's alert book
func (s *State) Alerts() *alert.Book {
	return s.alerts
}

func (s *State) appendHolding(h types.Holding) types.Holding {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	h.Seq = s.nextSeq
	s.holdings = append(s.holdings, h)
	return h
}

// Store maps chat IDs to their sessions, creating them on first use
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*State
	started  uint64
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*State)}
}

// Get returns the session for id, starting one if needed
func (st *Store) Get(id int64) *State {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	st.started++
	s = New()
	s.gen = st.started
	st.sessions[id] = s
	return s
}

// End discards the session for id
func (st *Store) End(id int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Len is the number of live sessions
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Targets lists the sessions for the background alert service
func (st *Store) Targets() []alert.Target {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]alert.Target, 0, len(st.sessions))
	for id, s := range st.sessions {
		out = append(out, alert.Target{ChatID: id, Book: s.Alerts(), Recipient: s.Email()})
	}
	return out
}
