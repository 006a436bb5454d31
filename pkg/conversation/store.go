// Package conversation keeps per-chat agent history with bounded size and
// token accounting. Turns are opaque beyond counting: the store never inspects
// the agent's representation past the TextParts it exposes.
package conversation

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxHistory bounds retained turns per chat when no limit is configured.
const DefaultMaxHistory = 50

// Turn is one unit of agent history. The store only ever serializes it for
// token counting.
type Turn interface {
	TextParts() []string
}

// primer marks a turn exempt from trimming. Only slot 0 is consulted.
type primer interface {
	Priming() bool
}

// State is the per-chat conversation record. Owned exclusively by the Store.
type State struct {
	ChatID      int64
	CreatedAt   time.Time
	LastUpdated time.Time

	turns       []Turn
	turnTokens  []int
	totalTokens int
}

// Summary is a read-only snapshot of one chat's statistics.
type Summary struct {
	ChatID       int64
	MessageCount int
	TotalTokens  int
	CreatedAt    time.Time
	LastUpdated  time.Time
}

// Store owns every conversation, keyed by chat id, for the process lifetime.
// Growth is bounded per chat by maxHistory but unbounded across chats; there
// is no cross-chat eviction.
type Store struct {
	mu         sync.Mutex
	maxHistory int
	estimate   Estimator
	chats      map[int64]*State
	log        *slog.Logger
}

// NewStore builds a store trimming each chat to maxHistory non-priming turns.
func NewStore(maxHistory int, estimate Estimator, log *slog.Logger) *Store {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if estimate == nil {
		estimate = HeuristicEstimator
	}
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		maxHistory: maxHistory,
		estimate:   estimate,
		chats:      make(map[int64]*State),
		log:        log.With("component", "conversation.store"),
	}
}

// GetOrCreate returns the chat's state, creating an empty one on first access.
// Idempotent: repeated calls return the same instance.
func (s *Store) GetOrCreate(chatID int64) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(chatID)
}

func (s *Store) getOrCreateLocked(chatID int64) *State {
	state, ok := s.chats[chatID]
	if !ok {
		now := time.Now().UTC()
		state = &State{ChatID: chatID, CreatedAt: now, LastUpdated: now}
		s.chats[chatID] = state
	}

	return state
}

// History returns a copy of the chat's retained turns, oldest first.
func (s *Store) History(chatID int64) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrCreateLocked(chatID)
	if len(state.turns) == 0 {
		return nil
	}

	out := make([]Turn, len(state.turns))
	copy(out, state.turns)
	return out
}

// AppendTurn appends one turn, adds its token estimate, and trims.
func (s *Store) AppendTurn(chatID int64, turn Turn) {
	if turn == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrCreateLocked(chatID)
	tokens := s.turnTokens(turn)
	state.turns = append(state.turns, turn)
	state.turnTokens = append(state.turnTokens, tokens)
	state.totalTokens += tokens
	state.LastUpdated = time.Now().UTC()

	s.trimLocked(state)
}

// SetHistory replaces the chat's history with the agent-provided transcript,
// verbatim, then trims and recomputes token totals.
func (s *Store) SetHistory(chatID int64, turns []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrCreateLocked(chatID)
	state.turns = make([]Turn, len(turns))
	copy(state.turns, turns)

	state.turnTokens = make([]int, len(state.turns))
	state.totalTokens = 0
	for i, turn := range state.turns {
		tokens := s.turnTokens(turn)
		state.turnTokens[i] = tokens
		state.totalTokens += tokens
	}
	state.LastUpdated = time.Now().UTC()

	s.trimLocked(state)
}

// Reset discards the chat's state and starts a fresh empty one.
func (s *Store) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return
	}

	now := time.Now().UTC()
	s.chats[chatID] = &State{ChatID: chatID, CreatedAt: now, LastUpdated: now}
	s.log.Info("Reset conversation", "chat_id", chatID)
}

// TokenCount returns the estimated token total over retained turns.
func (s *Store) TokenCount(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(chatID).totalTokens
}

// MessageCount returns the number of retained turns.
func (s *Store) MessageCount(chatID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.getOrCreateLocked(chatID).turns)
}

// Summarize returns a snapshot of the chat's statistics.
func (s *Store) Summarize(chatID int64) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.getOrCreateLocked(chatID)
	return Summary{
		ChatID:       state.ChatID,
		MessageCount: len(state.turns),
		TotalTokens:  state.totalTokens,
		CreatedAt:    state.CreatedAt,
		LastUpdated:  state.LastUpdated,
	}
}

// ActiveChats lists every chat id the store currently holds.
func (s *Store) ActiveChats() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}

	return ids
}

// trimLocked drops the oldest turns beyond maxHistory, subtracting their token
// contribution. A priming turn in slot 0 is retained and excluded from the
// count subject to the limit.
func (s *Store) trimLocked(state *State) {
	turns := state.turns
	tokens := state.turnTokens

	var priming Turn
	primingTokens := 0
	if len(turns) > 0 {
		if p, ok := turns[0].(primer); ok && p.Priming() {
			priming = turns[0]
			primingTokens = tokens[0]
			turns = turns[1:]
			tokens = tokens[1:]
		}
	}

	if len(turns) <= s.maxHistory {
		return
	}

	drop := len(turns) - s.maxHistory
	dropped := 0
	for _, n := range tokens[:drop] {
		dropped += n
	}

	turns = turns[drop:]
	tokens = tokens[drop:]
	state.totalTokens -= dropped

	if priming != nil {
		state.turns = append([]Turn{priming}, turns...)
		state.turnTokens = append([]int{primingTokens}, tokens...)
	} else {
		state.turns = turns
		state.turnTokens = tokens
	}

	s.log.Debug("Trimmed conversation history", "chat_id", state.ChatID, "dropped", drop, "retained", len(state.turns))
}

func (s *Store) turnTokens(turn Turn) int {
	total := 0
	for _, part := range turn.TextParts() {
		total += s.estimate(part)
	}

	return total
}
