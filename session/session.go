// Package session keeps the per-chat conversational state the bot needs
// between updates. The state is deliberately small: which node the menu
// should return to and whether the chat is inside the feedback form.
package session

import "sync"

// State is the volatile per-chat state.
type State struct {
	// ReturnTo is the node the menu resumes at after the form closes.
	ReturnTo int64
	// EnteringFeedback is set while the chat is inside the form.
	EnteringFeedback bool
}

// Store is a concurrency-safe map of chat id to session state.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]State
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]State)}
}

// Get returns the chat's state. A chat never seen before gets the zero
// state: not collecting feedback, resume at the root.
func (s *Store) Get(chatID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[chatID]
}

// Reset drops the chat's state.
func (s *Store) Reset(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// SetReturnTo records the node the menu resumes at.
func (s *Store) SetReturnTo(chatID, nodeID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[chatID]
	st.ReturnTo = nodeID
	s.sessions[chatID] = st
}

// SetEnteringFeedback flips the form flag.
func (s *Store) SetEnteringFeedback(chatID int64, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[chatID]
	st.EnteringFeedback = v
	s.sessions[chatID] = st
}
