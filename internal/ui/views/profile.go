package views

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskhub/internal/auth"
	"github.com/tgienger/taskhub/internal/ui/keys"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

// OpenProfile asks the app to show the profile settings.
type OpenProfile struct{}

// CloseProfile returns from the profile settings.
type CloseProfile struct{}

// SignedOut is sent after the session is cleared.
type SignedOut struct{}

type profileSavedMsg struct{}

// ProfileView edits the display name and avatar of the signed-in user.
type ProfileView struct {
	ctx     context.Context
	session *auth.Session
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	displayName textinput.Model
	avatar      textinput.Model
	focusIdx    int // 0=name, 1=avatar, 2=save, 3=sign out
	saved       bool
	err         error
}

func NewProfileView(ctx context.Context, session *auth.Session) *ProfileView {
	displayName := textinput.New()
	displayName.Placeholder = "Display name"
	displayName.CharLimit = 100

	avatar := textinput.New()
	avatar.Placeholder = "Avatar URL (optional)"
	avatar.CharLimit = 500

	v := &ProfileView{
		ctx:         ctx,
		session:     session,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		displayName: displayName,
		avatar:      avatar,
	}
	if u := session.CurrentUser(); u != nil {
		v.displayName.SetValue(u.DisplayName)
		v.avatar.SetValue(u.AvatarURL)
	}
	v.displayName.Focus()
	return v
}

func (v *ProfileView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *ProfileView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case ErrorMsg:
		v.err = msg.Err
		v.saved = false
		return v, nil

	case profileSavedMsg:
		v.err = nil
		v.saved = true
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return CloseProfile{} }
		case key.Matches(msg, v.keys.Save):
			return v, v.save()
		case key.Matches(msg, v.keys.Tab):
			v.focusIdx = (v.focusIdx + 1) % 4
			v.updateFocus()
			return v, nil
		case msg.String() == "shift+tab":
			v.focusIdx = (v.focusIdx + 3) % 4
			v.updateFocus()
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			switch v.focusIdx {
			case 0:
				v.focusIdx++
				v.updateFocus()
				return v, nil
			case 1, 2:
				return v, v.save()
			case 3:
				return v, v.signOut()
			}
		}
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.displayName, cmd = v.displayName.Update(msg)
	case 1:
		v.avatar, cmd = v.avatar.Update(msg)
	}
	return v, cmd
}

func (v *ProfileView) updateFocus() {
	v.displayName.Blur()
	v.avatar.Blur()
	switch v.focusIdx {
	case 0:
		v.displayName.Focus()
	case 1:
		v.avatar.Focus()
	}
}

func (v *ProfileView) save() tea.Cmd {
	name, avatar := v.displayName.Value(), v.avatar.Value()
	return func() tea.Msg {
		if _, err := v.session.UpdateProfile(v.ctx, &name, &avatar); err != nil {
			return ErrorMsg{Err: err}
		}
		return profileSavedMsg{}
	}
}

func (v *ProfileView) signOut() tea.Cmd {
	return func() tea.Msg {
		if err := v.session.SignOut(v.ctx); err != nil {
			return ErrorMsg{Err: err}
		}
		return SignedOut{}
	}
}

func (v *ProfileView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, avatarStyle := s.Input, s.Input
	saveStyle, signOutStyle := s.Button, s.Button
	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		avatarStyle = s.InputFocused
	case 2:
		saveStyle = s.ButtonFocused
	case 3:
		signOutStyle = s.ButtonFocused
	}

	email := ""
	if u := v.session.CurrentUser(); u != nil {
		email = u.Email
	}

	status := renderError(s, v.err)
	if v.saved {
		status = s.StatusBar.Render("✓ Profile saved")
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Profile"),
		s.TitleMuted.Render(email),
		"",
		"Display name:",
		nameStyle.Width(inputWidth).Render(v.displayName.View()),
		"",
		"Avatar:",
		avatarStyle.Width(inputWidth).Render(v.avatar.View()),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			saveStyle.Render(" Save "),
			"  ",
			signOutStyle.Render(" Sign out "),
		),
		status,
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: back"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}
