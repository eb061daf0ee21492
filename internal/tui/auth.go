package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// authForm is the shared shape of the login and signup screens: field
// inputs, one focused at a time, and a single error-message slot that
// is cleared on every submission attempt.
type authForm struct {
	title    string
	footer   string
	inputs   []textinput.Model
	required []bool
	focus    int
	errMsg   string
}

func newAuthInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "  "
	ti.CharLimit = 256
	ti.Width = 36
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

func newLoginForm() authForm {
	f := authForm{
		title: "Log In",
		footer: "enter submit · tab next field · ctrl+s sign up · ctrl+c quit",
		inputs: []textinput.Model{
			newAuthInput("Email or Username", false),
			newAuthInput("Password", true),
		},
		required: []bool{true, true},
	}
	f.inputs[0].Focus()
	return f
}

func newSignupForm() authForm {
	f := authForm{
		title: "Sign Up",
		footer: "enter submit · tab next field · ctrl+s log in · ctrl+c quit",
		inputs: []textinput.Model{
			newAuthInput("Username", false),
			newAuthInput("Email", false),
			newAuthInput("Password", true),
			newAuthInput("First Name", false),
			newAuthInput("Last Name", false),
		},
		required: []bool{true, true, true, false, false},
	}
	f.inputs[0].Focus()
	return f
}

// cycleFocus moves focus by delta, wrapping around the field list.
func (f *authForm) cycleFocus(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

// update routes a key to the focused input.
func (f *authForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// values returns the trimmed field values in declaration order.
// Passwords are not trimmed; whitespace could be deliberate.
func (f *authForm) values() []string {
	vals := make([]string, len(f.inputs))
	for i, in := range f.inputs {
		if in.EchoMode == textinput.EchoPassword {
			vals[i] = in.Value()
		} else {
			vals[i] = strings.TrimSpace(in.Value())
		}
	}
	return vals
}

// missingRequired reports whether any required field is empty.
func (f *authForm) missingRequired() bool {
	for i, v := range f.values() {
		if f.required[i] && v == "" {
			return true
		}
	}
	return false
}

// view renders the form centered in the given area.
func (f *authForm) view(width, height int) string {
	var b strings.Builder
	b.WriteString(formTitleStyle.Render(f.title))
	b.WriteString("\n\n")
	for i := range f.inputs {
		b.WriteString(f.inputs[i].View())
		b.WriteString("\n")
	}
	if f.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(formErrorStyle.Render(truncate(f.errMsg, 60)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(hintStyle.Render(f.footer))

	box := formBorderStyle.Render(b.String())
	if width <= 0 || height <= 0 {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
