// Package chat implements the client-side session and conversation
// state machine: the conversation directory synchronized from the
// server, the active-conversation cursor, the one-at-a-time prompt
// submission lifecycle, and the session guard that drops the client
// back to the unauthenticated state when the credential is rejected.
//
// State is the single owned container for all of it. The presentation
// layer reads snapshots and requests mutations through the operations
// here; it never mutates state directly.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/amine-the-boss/juris/internal/api"
)

// ErrMissingFields rejects an auth form submission with empty required
// fields before any network call is made.
var ErrMissingFields = errors.New("all required fields must be filled")

// Service is the remote legal-assistant API as the state machine
// consumes it. *api.Client satisfies it; tests substitute fakes.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, req api.SignupRequest) (string, error)
	Logout(ctx context.Context) error
	Conversations(ctx context.Context) ([]api.Conversation, error)
	CreateConversation(ctx context.Context) (api.Conversation, error)
	DeleteConversation(ctx context.Context, id int64) error
	Ask(ctx context.Context, req api.AskRequest) (api.AskResponse, error)
}

// Credentials is the token register shared with the API client.
type Credentials interface {
	Token() string
	Set(token string)
	Clear()
}

// State owns all session and conversation state. Operations serialize
// on an internal mutex; the active id, when non-zero, always references
// an entry present in the directory.
type State struct {
	svc    Service
	creds  Credentials
	logger *slog.Logger

	mu            sync.Mutex
	conversations []api.Conversation
	activeID      int64 // 0 = no active conversation
	transcript    []api.Message
	submitting    bool
	language      string

	// epoch is bumped on every session reset. A submission captures it
	// before its network call; a completion whose epoch has moved is
	// discarded rather than mutating post-reset state.
	epoch uint64
}

// New creates an empty state container. A token already present in
// creds (persisted by a previous run) makes the state authenticated;
// the caller is expected to Reload to populate the directory.
func New(svc Service, creds Credentials, language string, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		svc:      svc,
		creds:    creds,
		language: language,
		logger:   logger,
	}
}

// Authenticated reports whether a credential is present. Presence is
// necessary but not sufficient: the server may still reject it, which
// lands in the session guard.
func (s *State) Authenticated() bool {
	return s.creds.Token() != ""
}

// Snapshot is a point-in-time read-only view for the presentation
// layer. Slices are copies of the container's bookkeeping; callers must
// not mutate message contents.
type Snapshot struct {
	Conversations []api.Conversation
	ActiveID      int64
	Transcript    []api.Message
	Submitting    bool
	Language      string
}

// Snapshot returns the current view under one lock acquisition.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Conversations: make([]api.Conversation, len(s.conversations)),
		ActiveID:      s.activeID,
		Transcript:    make([]api.Message, len(s.transcript)),
		Submitting:    s.submitting,
		Language:      s.language,
	}
	copy(snap.Conversations, s.conversations)
	copy(snap.Transcript, s.transcript)
	return snap
}

// Language returns the language forwarded with submissions.
func (s *State) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage changes the language forwarded with submissions.
func (s *State) SetLanguage(language string) {
	s.mu.Lock()
	s.language = language
	s.mu.Unlock()
}

// Reload fetches the user's conversations and replaces the directory
// with the server's result; the server is the source of truth, there is
// no client-side merge. A non-empty result moves the cursor to the
// first entry in server order. On failure the prior state is untouched.
func (s *State) Reload(ctx context.Context) error {
	convs, err := s.svc.Conversations(ctx)
	if err != nil {
		s.guard(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = convs
	if len(convs) > 0 {
		s.activeID = convs[0].ID
		s.transcript = copyMessages(convs[0].Messages)
	} else {
		s.activeID = 0
		s.transcript = nil
	}
	return nil
}

// Create asks the server for a new conversation, prepends it to the
// directory without a re-fetch, and makes it active with an empty
// transcript. Prepend, not append: new conversations are the most
// relevant and should surface immediately.
func (s *State) Create(ctx context.Context) error {
	conv, err := s.svc.CreateConversation(ctx)
	if err != nil {
		s.guard(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = append([]api.Conversation{conv}, s.conversations...)
	s.activeID = conv.ID
	s.transcript = nil
	return nil
}

// Remove deletes a conversation server-side and, only on success,
// drops it locally. When the removed entry was active, the cursor fails
// over to the new first entry, or to the empty state if none remain.
// Callers must gate this behind an explicit user confirmation; deletion
// is irreversible.
func (s *State) Remove(ctx context.Context, id int64) error {
	if err := s.svc.DeleteConversation(ctx, id); err != nil {
		s.guard(err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := s.conversations[:0:0]
	for _, conv := range s.conversations {
		if conv.ID != id {
			filtered = append(filtered, conv)
		}
	}
	s.conversations = filtered

	if id == s.activeID {
		if len(filtered) > 0 {
			s.activeID = filtered[0].ID
			s.transcript = copyMessages(filtered[0].Messages)
		} else {
			s.activeID = 0
			s.transcript = nil
		}
	}
	return nil
}

// Select makes the identified conversation active and materializes its
// stored transcript. Selecting an id absent from the directory is a
// silent no-op: it indicates a stale reference from the presentation
// layer, not a condition worth surfacing.
func (s *State) Select(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conv := range s.conversations {
		if conv.ID == id {
			s.activeID = id
			s.transcript = copyMessages(conv.Messages)
			return
		}
	}
}

// guard routes a remote-call failure through the session guard when it
// is a credential rejection. Every operation's failure branch passes
// through here; there is no other status-code check in the package.
func (s *State) guard(err error) {
	if api.IsUnauthorized(err) {
		s.onUnauthorized()
	}
}

// onUnauthorized is the sole path back to the unauthenticated state
// from deep in the call graph: it clears the credential and resets the
// directory, cursor and transcript, discarding any in-flight
// submission's partial effects via the epoch bump.
func (s *State) onUnauthorized() {
	s.creds.Clear()
	s.mu.Lock()
	s.conversations = nil
	s.activeID = 0
	s.transcript = nil
	s.epoch++
	s.mu.Unlock()
	s.logger.Info("credential rejected, session reset")
}

func copyMessages(msgs []api.Message) []api.Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]api.Message, len(msgs))
	copy(out, msgs)
	return out
}

// touch updates a directory entry's timestamp after a local append, so
// sidebar ordering hints stay plausible until the next reload.
func touch(conv *api.Conversation) {
	conv.UpdatedAt = time.Now()
}
