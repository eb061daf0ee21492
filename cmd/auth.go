package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/amine-the-boss/juris/internal/api"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin()
		},
	}
}

func newSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSignup()
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and discard the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp()
			if err != nil {
				return err
			}
			a.state.Logout(context.Background())
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func runLogin() error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	identifier, err := promptLine(reader, "Email or username: ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	if err := a.state.Login(context.Background(), identifier, password); err != nil {
		return fmt.Errorf("login failed: %s", api.UserMessage(err))
	}
	fmt.Println("Logged in.")
	return nil
}

func runSignup() error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	username, err := promptLine(reader, "Username: ")
	if err != nil {
		return err
	}
	email, err := promptLine(reader, "Email: ")
	if err != nil {
		return err
	}
	firstName, err := promptLine(reader, "First name (optional): ")
	if err != nil {
		return err
	}
	lastName, err := promptLine(reader, "Last name (optional): ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	req := api.SignupRequest{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}
	if err := a.state.Signup(context.Background(), req); err != nil {
		return fmt.Errorf("signup failed: %s", api.UserMessage(err))
	}
	fmt.Println("Account created, you are logged in.")
	return nil
}

func promptLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal, so the
// password never lands in scrollback.
func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(raw), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
