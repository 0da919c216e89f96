package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskhub/internal/auth"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/ui/keys"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

// SignedIn is sent once a profile is signed in.
type SignedIn struct {
	User models.User
}

// LoginView asks for an e-mail and an optional display name.
type LoginView struct {
	ctx     context.Context
	session *auth.Session
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	email    textinput.Model
	name     textinput.Model
	focusIdx int // 0=email, 1=name, 2=sign in
	err      error
}

func NewLoginView(ctx context.Context, session *auth.Session) *LoginView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	name := textinput.New()
	name.Placeholder = "Display name (optional)"
	name.CharLimit = 100

	return &LoginView{
		ctx:     ctx,
		session: session,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		email:   email,
		name:    name,
	}
}

func (v *LoginView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *LoginView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case ErrorMsg:
		v.err = msg.Err
		return v, nil

	case tea.KeyMsg:
		switch {
		case msg.String() == "ctrl+c", key.Matches(msg, v.keys.Back):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Save):
			return v, v.signIn()
		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % 3
			v.updateFocus()
			return v, nil
		case msg.String() == "shift+tab":
			v.focusIdx = (v.focusIdx + 2) % 3
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx < 2 {
				v.focusIdx++
				v.updateFocus()
				return v, nil
			}
			return v, v.signIn()
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.email, cmd = v.email.Update(msg)
	case 1:
		v.name, cmd = v.name.Update(msg)
	}
	return v, cmd
}

func (v *LoginView) updateFocus() {
	v.email.Blur()
	v.name.Blur()
	switch v.focusIdx {
	case 0:
		v.email.Focus()
	case 1:
		v.name.Focus()
	}
}

func (v *LoginView) signIn() tea.Cmd {
	email, name := v.email.Value(), v.name.Value()
	return func() tea.Msg {
		user, err := v.session.SignIn(v.ctx, email, name)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return SignedIn{User: *user}
	}
}

func (v *LoginView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	emailStyle, nameStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.focusIdx {
	case 0:
		emailStyle = s.InputFocused
	case 1:
		nameStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Sign in to TaskHub"),
		"",
		"E-mail:",
		emailStyle.Width(inputWidth).Render(v.email.View()),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.name.View()),
		"",
		btnStyle.Render(" Sign in "),
		renderError(s, v.err),
		"",
		s.TitleMuted.Render("Tab: next • ↵: sign in • Esc: quit"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
