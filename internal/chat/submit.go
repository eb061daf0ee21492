package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/amine-the-boss/juris/internal/api"
)

// FailureMarker is the synthetic assistant turn appended when a
// submission fails. The transcript never shows a user turn without a
// resolution, success or failure.
const FailureMarker = "An error occurred while processing your request."

// ErrBusy rejects a submission while another is outstanding. The
// presentation layer must disable re-entrant submission; receiving this
// error is a caller bug, not a user-facing condition.
var ErrBusy = errors.New("a submission is already in flight")

// ErrEmptyPrompt rejects an empty or whitespace-only prompt with no
// state change and no network call.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Submitting reports whether a submission is outstanding.
func (s *State) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Submit drives one prompt-to-answer round trip:
//
//	idle --Submit--> submitting --(response)--> idle
//
// On success the user turn and the returned answer are appended
// together, and the conversation id the server reports becomes the
// active id (the server allocates a conversation when none was active).
// On failure the user turn is still appended, paired with the literal
// failure marker; a credential rejection additionally invokes the
// session guard, whose reset discards the pair along with everything
// else. The return to idle is unconditional.
func (s *State) Submit(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.submitting = true
	epoch := s.epoch
	language := s.language
	var convID *int64
	if s.activeID != 0 {
		id := s.activeID
		convID = &id
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	resp, err := s.svc.Ask(ctx, api.AskRequest{
		Language:       language,
		Prompt:         prompt,
		ConversationID: convID,
	})

	s.mu.Lock()
	if s.epoch != epoch {
		// The session was reset while the request was in flight
		// (logout or a credential rejection elsewhere). Discard the
		// outcome instead of resurrecting pre-reset state.
		s.mu.Unlock()
		s.logger.Debug("discarding stale submission result")
		return err
	}

	if err != nil {
		s.appendTurnLocked(s.activeID, prompt, FailureMarker)
		s.mu.Unlock()
		s.guard(err)
		return err
	}

	s.appendTurnLocked(resp.ConversationID, prompt, resp.Answer)
	s.activeID = resp.ConversationID
	s.mu.Unlock()
	return nil
}

// appendTurnLocked appends a user/assistant pair atomically: both turns
// become visible together or not at all. When id identifies a directory
// entry the pair is written back through it (the cursor never holds a
// private copy); an id the directory has not seen — the server just
// allocated it — gets a prepended entry first. id 0 (failed submission
// with no active conversation) appends to the view transcript only.
func (s *State) appendTurnLocked(id int64, prompt, answer string) {
	pair := []api.Message{
		{Role: api.RoleUser, Content: prompt},
		{Role: api.RoleAssistant, Content: answer},
	}

	if id == 0 {
		s.transcript = append(s.transcript, pair...)
		return
	}

	idx := -1
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.conversations = append([]api.Conversation{{ID: id}}, s.conversations...)
		idx = 0
	}
	s.conversations[idx].Messages = append(s.conversations[idx].Messages, pair...)
	touch(&s.conversations[idx])
	s.transcript = copyMessages(s.conversations[idx].Messages)
}
