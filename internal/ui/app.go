package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tgienger/taskhub/internal/apperr"
	"github.com/tgienger/taskhub/internal/auth"
	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/repository"
	"github.com/tgienger/taskhub/internal/ui/views"
)

// View is the active screen.
type View int

const (
	ViewLogin View = iota
	ViewProjects
	ViewTasks
	ViewProfile
)

// lastProjectPrefix keys the last opened project per user in settings.
const lastProjectPrefix = "ui.last_project:"

// Settings persists small per-user UI state.
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error
}

type App struct {
	ctx      context.Context
	repos    *repository.Repositories
	session  *auth.Session
	settings Settings
	logger   *logging.Logger

	currentView View
	login       *views.LoginView
	profile     *views.ProfileView
	projectList *views.ProjectListView
	taskList    *views.TaskListView
	width       int
	height      int
}

// NewApp creates the application. When the session has no user the login
// screen is shown first.
func NewApp(ctx context.Context, repos *repository.Repositories, session *auth.Session, settings Settings, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.NewNop()
	}
	a := &App{
		ctx:         ctx,
		repos:       repos,
		session:     session,
		settings:    settings,
		logger:      logger.Named("ui"),
		currentView: ViewProjects,
		projectList: views.NewProjectListView(ctx, repos),
	}
	if session.CurrentUser() == nil {
		a.currentView = ViewLogin
		a.login = views.NewLoginView(ctx, session)
	}
	return a
}

// CurrentView reports the active screen.
func (a *App) CurrentView() View {
	return a.currentView
}

type lastProjectMsg struct {
	project *models.Project
}

func (a *App) Init() tea.Cmd {
	if a.currentView == ViewLogin {
		return a.login.Init()
	}
	return a.restoreLastProject
}

func (a *App) lastProjectKey() (string, bool) {
	id, err := a.session.UserID()
	if err != nil {
		return "", false
	}
	return lastProjectPrefix + id, true
}

// restoreLastProject reopens the project the user was last working in.
// A project that no longer exists falls back to the project list.
func (a *App) restoreLastProject() tea.Msg {
	settingKey, ok := a.lastProjectKey()
	if !ok {
		return lastProjectMsg{}
	}
	id, err := a.settings.GetSetting(a.ctx, settingKey)
	if err != nil || id == "" {
		return lastProjectMsg{}
	}
	project, err := a.repos.Projects.Get(a.ctx, id)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			a.logger.Warn(a.ctx, "failed to restore last project", zap.String("project.id", id), zap.Error(err))
		}
		_ = a.settings.DeleteSetting(a.ctx, settingKey)
		return lastProjectMsg{}
	}
	return lastProjectMsg{project: project}
}

func (a *App) resize() tea.Cmd {
	width, height := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: width, Height: height}
	}
}

func (a *App) openProject(project models.Project) tea.Cmd {
	a.currentView = ViewTasks
	a.taskList = views.NewTaskListView(a.ctx, a.repos, project)

	if settingKey, ok := a.lastProjectKey(); ok {
		if err := a.settings.SetSetting(a.ctx, settingKey, project.ID); err != nil {
			a.logger.Warn(a.ctx, "failed to remember last project", zap.Error(err))
		}
	}

	return tea.Batch(a.taskList.Init(), a.resize())
}

func (a *App) showProjects() tea.Cmd {
	a.currentView = ViewProjects
	return tea.Batch(a.projectList.Init(), a.resize())
}

func (a *App) showLogin() tea.Cmd {
	a.currentView = ViewLogin
	a.login = views.NewLoginView(a.ctx, a.session)
	a.taskList = nil
	a.profile = nil
	return tea.Batch(a.login.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The project list persists behind the other screens.
		a.projectList.Update(msg)

	case views.ErrorMsg:
		if msg.Unauthenticated() && a.currentView != ViewLogin {
			return a, a.showLogin()
		}
		if apperr.KindOf(msg.Err) == apperr.KindRemote {
			a.logger.Error(a.ctx, "operation failed", zap.Error(msg.Err))
		}

	case views.SignedIn:
		a.logger.Info(a.ctx, "signed in", zap.String("user.id", msg.User.ID))
		a.login = nil
		a.currentView = ViewProjects
		return a, tea.Batch(a.restoreLastProject, a.resize())

	case views.SignedOut:
		return a, a.showLogin()

	case lastProjectMsg:
		if msg.project != nil {
			return a, a.openProject(*msg.project)
		}
		return a, a.showProjects()

	case views.OpenProfile:
		a.currentView = ViewProfile
		a.profile = views.NewProfileView(a.ctx, a.session)
		return a, tea.Batch(a.profile.Init(), a.resize())

	case views.CloseProfile:
		a.profile = nil
		return a, a.showProjects()

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		if settingKey, ok := a.lastProjectKey(); ok {
			_ = a.settings.DeleteSetting(a.ctx, settingKey)
		}
		a.taskList = nil
		return a, a.showProjects()
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLogin:
		_, cmd = a.login.Update(msg)
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTasks:
		_, cmd = a.taskList.Update(msg)
	case ViewProfile:
		_, cmd = a.profile.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewLogin:
		return a.login.View()
	case ViewTasks:
		if a.taskList != nil {
			return a.taskList.View()
		}
	case ViewProfile:
		if a.profile != nil {
			return a.profile.View()
		}
	}
	return a.projectList.View()
}
