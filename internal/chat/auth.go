package chat

import (
	"context"
	"strings"

	"github.com/amine-the-boss/juris/internal/api"
)

// Login authenticates with the service and stores the issued token.
// Client-side validation is presence-only; everything semantic is the
// server's call. Setting the credential triggers a directory reload; a
// reload failure does not undo the login, it is only logged (the next
// user action will surface it).
func (s *State) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrMissingFields
	}

	token, err := s.svc.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.creds.Set(token)

	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("initial conversation reload failed", "error", err)
	}
	return nil
}

// Signup creates an account and enters the authenticated state exactly
// like Login. First and last name are optional; the rest is required.
func (s *State) Signup(ctx context.Context, req api.SignupRequest) error {
	if strings.TrimSpace(req.Username) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		req.Password == "" {
		return ErrMissingFields
	}

	token, err := s.svc.Signup(ctx, req)
	if err != nil {
		return err
	}
	s.creds.Set(token)

	if err := s.Reload(ctx); err != nil {
		s.logger.Warn("initial conversation reload failed", "error", err)
	}
	return nil
}

// Logout tells the server to invalidate the session, then resets local
// state regardless of the outcome: the user asked to leave, a server
// hiccup must not trap them in the authenticated view.
func (s *State) Logout(ctx context.Context) {
	if err := s.svc.Logout(ctx); err != nil {
		s.logger.Warn("server logout failed", "error", err)
	}
	s.onUnauthorized()
}
