package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry an Authorization header")
		}
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Email != "a@b.com" || req.Password != "x" {
			t.Errorf("unexpected credentials: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"token": "T1", "user_id": 1, "email": "a@b.com"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, staticToken(""), nil)
	tok, err := c.Login(context.Background(), "a@b.com", "x")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok != "T1" {
		t.Errorf("token = %q, want T1", tok)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid Credentials"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, staticToken(""), nil)
	_, err := c.Login(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}
	if IsUnauthorized(err) {
		t.Error("a 400 login rejection is not a credential expiry")
	}
	if got := UserMessage(err); got != "Invalid Credentials" {
		t.Errorf("UserMessage = %q, want server message", got)
	}
}

func TestConversationsSendsTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/conversation-history/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token T1" {
			t.Errorf("Authorization = %q, want 'Token T1'", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		w.Write([]byte(`[{"id":1,"created_at":"2026-08-01T10:00:00Z","updated_at":"2026-08-02T10:00:00Z","messages":[{"id":9,"content":"hi","role":"user","timestamp":"2026-08-01T10:00:00Z"}]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, staticToken("T1"), nil)
	convs, err := c.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations: %v", err)
	}
	if len(convs) != 1 || convs[0].ID != 1 {
		t.Fatalf("unexpected conversations: %+v", convs)
	}
	if len(convs[0].Messages) != 1 || convs[0].Messages[0].Content != "hi" {
		t.Errorf("unexpected messages: %+v", convs[0].Messages)
	}
}

func TestUnauthorizedClassification(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Invalid token."})
		}))

		c := NewClient(srv.URL, 0, staticToken("stale"), nil)
		_, err := c.Conversations(context.Background())
		if !IsUnauthorized(err) {
			t.Errorf("status %d: expected unauthorized classification, got %v", status, err)
		}
		srv.Close()
	}
}

func TestAsk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/legal-assistant/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Language != "French" || req.Prompt != "Quelle est la loi sur X?" {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.ConversationID != nil {
			t.Errorf("expected null conversation_id, got %d", *req.ConversationID)
		}
		json.NewEncoder(w).Encode(AskResponse{Answer: "Réponse...", ResponseTime: 0.5, ConversationID: 7})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, staticToken("T1"), nil)
	resp, err := c.Ask(context.Background(), AskRequest{Language: "French", Prompt: "Quelle est la loi sur X?"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.Answer != "Réponse..." || resp.ConversationID != 7 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestDeleteConversationPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 0, staticToken("T1"), nil)
	if err := c.DeleteConversation(context.Background(), 42); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/delete-conversation/42/" {
		t.Errorf("got %s %s, want DELETE /api/delete-conversation/42/", gotMethod, gotPath)
	}
}

func TestTransportErrorIsNotUnauthorized(t *testing.T) {
	// Point at a closed server to force a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, 0, staticToken("T1"), nil)
	_, err := c.Conversations(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsUnauthorized(err) {
		t.Error("transport failures must classify as transient, not unauthorized")
	}
	if got := UserMessage(err); got != GenericErrorMessage {
		t.Errorf("UserMessage = %q, want generic fallback", got)
	}
}
