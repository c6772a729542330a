// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the in-memory set of conversations and the active
// selection.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
)

// IDPrefix prefixes every conversation id.
const IDPrefix = "chat_"

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("conversation not found")

// NotFoundError reports an operation on an id the store does not hold.
type NotFoundError struct {
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("conversation %q not found", e.ID)
}

// Is implements errors.Is support for ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// =============================================================================
// VIEW TYPES
// =============================================================================

// Entry is one row of the conversation list.
type Entry struct {
	ID           string
	Title        string // Display title
	Active       bool
	MessageCount int
	CreatedAt    time.Time
}

// Snapshot is an immutable copy of the whole store. Version increases with
// every mutation.
type Snapshot struct {
	Version  uint64
	Entries  []Entry
	ActiveID string
	Active   *model.Conversation
}

// =============================================================================
// STORE
// =============================================================================

// Store keeps conversations in insertion order. It is never empty and the
// active id always names a held conversation.
type Store struct {
	mu       sync.Mutex
	order    []*model.Conversation
	activeID string
	nextID   int
	version  uint64
	subs     map[int]chan Snapshot
	nextSub  int
}

// New creates a store holding one empty conversation, chat_1, as active.
func New() *Store {
	s := &Store{
		nextID: 1,
		subs:   make(map[int]chan Snapshot),
	}
	s.createLocked()
	return s
}

// createLocked appends a fresh conversation and makes it active.
func (s *Store) createLocked() string {
	id := fmt.Sprintf("%s%d", IDPrefix, s.nextID)
	s.nextID++
	s.order = append(s.order, model.NewConversation(id))
	s.activeID = id
	return id
}

func (s *Store) indexLocked(id string) int {
	for i, c := range s.order {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Create adds an empty conversation at the end and makes it active. Ids come
// from a counter and are never reused, even after deletes.
func (s *Store) Create() string {
	s.mu.Lock()
	id := s.createLocked()
	s.version++
	s.mu.Unlock()

	s.publish()
	return id
}

// Select makes id the active conversation.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	if s.indexLocked(id) < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	changed := s.activeID != id
	if changed {
		s.activeID = id
		s.version++
	}
	s.mu.Unlock()

	if changed {
		s.publish()
	}
	return nil
}

// Delete removes id. Deleting the only conversation is refused with
// (false, nil). Otherwise the first remaining conversation becomes active.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false, &NotFoundError{ID: id}
	}
	if len(s.order) == 1 {
		s.mu.Unlock()
		return false, nil
	}
	s.order = append(s.order[:idx], s.order[idx+1:]...)
	s.activeID = s.order[0].ID
	s.version++
	s.mu.Unlock()

	s.publish()
	return true, nil
}

// Append adds msg to the end of conversation id.
func (s *Store) Append(id string, msg model.Message) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	s.order[idx].Append(msg)
	s.version++
	s.mu.Unlock()

	s.publish()
	return nil
}

// =============================================================================
// READS
// =============================================================================

// ActiveID returns the active conversation id.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation.
func (s *Store) Active() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order[s.indexLocked(s.activeID)].Clone()
}

// Get returns a copy of conversation id.
func (s *Store) Get(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &NotFoundError{ID: id}
	}
	return s.order[idx].Clone(), nil
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// List returns one entry per conversation in insertion order.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

func (s *Store) entriesLocked() []Entry {
	entries := make([]Entry, len(s.order))
	for i, c := range s.order {
		entries[i] = Entry{
			ID:           c.ID,
			Title:        c.DisplayTitle(),
			Active:       c.ID == s.activeID,
			MessageCount: c.MessageCount(),
			CreatedAt:    c.CreatedAt,
		}
	}
	return entries
}

// Snapshot returns a copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version:  s.version,
		Entries:  s.entriesLocked(),
		ActiveID: s.activeID,
		Active:   s.order[s.indexLocked(s.activeID)].Clone(),
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel that receives the latest snapshot after every
// mutation. A slow reader only ever sees the newest snapshot; stale ones are
// dropped. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
	return ch, cancel
}

// publish delivers the current snapshot to every subscriber.
// Sends happen under the lock so a concurrent unsubscribe cannot close a
// channel mid-send; they never block.
func (s *Store) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
