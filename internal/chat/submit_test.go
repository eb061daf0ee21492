package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amine-the-boss/juris/internal/api"
)

func TestSubmitAppendsPairAndAdoptsConversation(t *testing.T) {
	svc := &fakeService{askResp: api.AskResponse{Answer: "Réponse...", ConversationID: 7}}
	s, _ := newTestState(svc)

	if err := s.Submit(context.Background(), "Quelle est la loi sur X?"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := s.Snapshot()
	if snap.ActiveID != 7 {
		t.Errorf("cursor = %d, want server-reported 7", snap.ActiveID)
	}
	if len(snap.Transcript) != 2 {
		t.Fatalf("transcript should gain exactly two entries, got %d", len(snap.Transcript))
	}
	if snap.Transcript[0].Role != api.RoleUser || snap.Transcript[0].Content != "Quelle est la loi sur X?" {
		t.Errorf("first new turn should be the user prompt: %+v", snap.Transcript[0])
	}
	if snap.Transcript[1].Role != api.RoleAssistant || snap.Transcript[1].Content != "Réponse..." {
		t.Errorf("second new turn should be the answer: %+v", snap.Transcript[1])
	}
	// The server-allocated conversation must appear in the directory;
	// the cursor never dangles.
	if len(snap.Conversations) != 1 || snap.Conversations[0].ID != 7 {
		t.Errorf("allocated conversation missing from directory: %+v", snap.Conversations)
	}
}

func TestSubmitWritesBackThroughDirectoryEntry(t *testing.T) {
	svc := &fakeService{askResp: api.AskResponse{Answer: "ok", ConversationID: 3}}
	s, _ := newTestState(svc)
	s.conversations = []api.Conversation{{ID: 3, Messages: []api.Message{{Role: api.RoleUser, Content: "old"}}}}
	s.activeID = 3
	s.transcript = []api.Message{{Role: api.RoleUser, Content: "old"}}

	if err := s.Submit(context.Background(), "next"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := s.Snapshot()
	if got := len(snap.Conversations[0].Messages); got != 3 {
		t.Errorf("directory entry should hold the appended pair, got %d messages", got)
	}
	if len(snap.Transcript) != 3 {
		t.Errorf("transcript should mirror the directory entry, got %d messages", len(snap.Transcript))
	}
}

func TestSubmitFailureAppendsFailureMarker(t *testing.T) {
	svc := &fakeService{askErr: errors.New("boom")}
	s, creds := newTestState(svc)

	err := s.Submit(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	snap := s.Snapshot()
	if len(snap.Transcript) != 2 {
		t.Fatalf("failed submission must still show a paired turn, got %d messages", len(snap.Transcript))
	}
	if snap.Transcript[0].Content != "hello" {
		t.Errorf("user turn = %q", snap.Transcript[0].Content)
	}
	if snap.Transcript[1].Role != api.RoleAssistant || snap.Transcript[1].Content != FailureMarker {
		t.Errorf("assistant turn = %+v, want the failure marker", snap.Transcript[1])
	}
	if creds.Token() == "" {
		t.Error("a transient failure must not clear the credential")
	}
}

func TestSubmitEmptyPromptRejected(t *testing.T) {
	svc := &fakeService{}
	s, _ := newTestState(svc)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		if err := s.Submit(context.Background(), prompt); !errors.Is(err, ErrEmptyPrompt) {
			t.Errorf("prompt %q: expected ErrEmptyPrompt, got %v", prompt, err)
		}
	}
	if svc.askCalls.Load() != 0 {
		t.Errorf("empty prompts must not reach the network, got %d calls", svc.askCalls.Load())
	}
	if got := len(s.Snapshot().Transcript); got != 0 {
		t.Errorf("empty prompts must not change the transcript, got %d messages", got)
	}
}

func TestSubmitWhileSubmittingRejected(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	svc := &fakeService{}
	svc.askFn = func(req api.AskRequest) (api.AskResponse, error) {
		entered <- struct{}{}
		<-release
		return api.AskResponse{Answer: "late", ConversationID: 1}, nil
	}
	s, _ := newTestState(svc)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "first") }()
	<-entered

	if err := s.Submit(context.Background(), "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if svc.askCalls.Load() != 1 {
		t.Errorf("rejected submission must not issue a second call, got %d", svc.askCalls.Load())
	}
	if got := len(s.Snapshot().Transcript); got != 0 {
		t.Errorf("rejected submission must not alter the transcript, got %d messages", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if s.Submitting() {
		t.Error("state stuck in submitting after completion")
	}
	// Idle again: a new submission goes through.
	if err := s.Submit(context.Background(), "third"); err != nil {
		t.Errorf("Submit after idle: %v", err)
	}
}

func TestSubmitUnauthorizedResetsSession(t *testing.T) {
	svc := &fakeService{askErr: errUnauthorized()}
	s, creds := newTestState(svc)
	s.conversations = []api.Conversation{{ID: 1}}
	s.activeID = 1

	err := s.Submit(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if creds.Token() != "" {
		t.Error("credential not cleared on rejection")
	}
	snap := s.Snapshot()
	if len(snap.Conversations) != 0 || snap.ActiveID != 0 {
		t.Errorf("directory/cursor not reset: %+v", snap)
	}
	// The synthetic failure turn is discarded along with the reset.
	if len(snap.Transcript) != 0 {
		t.Errorf("transcript should be empty after reset, got %+v", snap.Transcript)
	}
	if s.Submitting() {
		t.Error("state stuck in submitting after reset")
	}
}

func TestSubmitReturnsToIdleOnFailure(t *testing.T) {
	svc := &fakeService{askErr: errors.New("boom")}
	s, _ := newTestState(svc)

	if err := s.Submit(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if s.Submitting() {
		t.Error("state stuck in submitting after failure")
	}
}

func TestStaleSubmissionDiscardedAfterLogout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	svc := &fakeService{}
	svc.askFn = func(req api.AskRequest) (api.AskResponse, error) {
		entered <- struct{}{}
		<-release
		return api.AskResponse{Answer: "late", ConversationID: 9}, nil
	}
	s, creds := newTestState(svc)

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background(), "pending") }()
	<-entered

	s.Logout(context.Background())
	close(release)
	<-done

	snap := s.Snapshot()
	if len(snap.Transcript) != 0 || snap.ActiveID != 0 || len(snap.Conversations) != 0 {
		t.Errorf("stale response must not resurrect state after logout: %+v", snap)
	}
	if creds.Token() != "" {
		t.Error("logout must leave the credential cleared")
	}

	// The busy flag still clears; allow the deferred transition to land.
	deadline := time.After(time.Second)
	for s.Submitting() {
		select {
		case <-deadline:
			t.Fatal("state stuck in submitting after stale completion")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
