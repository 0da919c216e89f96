package views

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/taskhub/internal/filter"
	"github.com/tgienger/taskhub/internal/models"
	"github.com/tgienger/taskhub/internal/repository"
	"github.com/tgienger/taskhub/internal/stats"
	"github.com/tgienger/taskhub/internal/ui/keys"
	"github.com/tgienger/taskhub/internal/ui/styles"
)

type projectItem struct {
	project  models.Project
	progress stats.Progress
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return i.project.Description }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	lineStyle := d.styles.ListItem.Width(width)
	if selected {
		lineStyle = d.styles.ListSelected.Width(width)
	}

	badge := styles.ProjectStatus(p.project.Status).Render(p.project.Status.Label())
	title := p.project.Name + "  " + badge

	detail := fmt.Sprintf("%s %3d%%  %d/%d tasks",
		styles.ProgressBar(p.progress.Percent, clamp(width/4, 5, 20)),
		p.progress.Percent, p.progress.Completed, p.progress.Total)
	if due := formatDue(p.project.DueDate); due != "" {
		detail += "  due " + due
	}

	fmt.Fprintf(w, "%s\n%s", lineStyle.Render(title), lineStyle.Render(detail))
}

// ProjectListView lists the user's projects with their progress.
type ProjectListView struct {
	ctx      context.Context
	repos    *repository.Repositories
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	now      func() time.Time

	width  int
	height int

	projects []models.Project
	tasks    []models.Task
	filter   filter.Projects
	summary  stats.Summary
	loaded   bool
	err      error

	creating         bool
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string
	newName          textinput.Model
	newDesc          textinput.Model
	newDue           textinput.Model
	focusIdx         int // 0=name, 1=desc, 2=due, 3=create

	showHelpPopup bool
}

func NewProjectListView(ctx context.Context, repos *repository.Repositories) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 500

	newDue := textinput.New()
	newDue.Placeholder = "YYYY-MM-DD (optional)"
	newDue.CharLimit = 10

	delegate := &projectDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		ctx:      ctx,
		repos:    repos,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		now:      time.Now,
		newName:  newName,
		newDesc:  newDesc,
		newDue:   newDue,
	}
}

func (v *ProjectListView) Init() tea.Cmd {
	return v.loadProjects
}

type projectsLoadedMsg struct {
	projects []models.Project
	tasks    []models.Task
}

// SelectedProject opens a project's task dashboard.
type SelectedProject struct {
	Project models.Project
}

func (v *ProjectListView) loadProjects() tea.Msg {
	projects, err := v.repos.Projects.List(v.ctx)
	if err != nil {
		return ErrorMsg{Err: err}
	}
	tasks, err := v.repos.Tasks.List(v.ctx, filter.Tasks{})
	if err != nil {
		return ErrorMsg{Err: err}
	}
	return projectsLoadedMsg{projects: projects, tasks: tasks}
}

func (v *ProjectListView) refreshItems() {
	visible := v.filter.Apply(v.projects)
	items := make([]list.Item, len(visible))
	for i, p := range visible {
		items[i] = projectItem{project: p, progress: stats.ProjectProgress(v.tasks, p.ID)}
	}
	v.list.SetItems(items)

	v.list.Title = "Projects"
	if v.filter.Status != "" && v.filter.Status != filter.All {
		v.list.Title += " · " + models.ProjectStatus(v.filter.Status).Label()
	}
}

func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-9)
		return v, nil

	case projectsLoadedMsg:
		v.projects = msg.projects
		v.tasks = msg.tasks
		v.summary = stats.Summarize(msg.projects, msg.tasks, v.now())
		v.loaded = true
		v.err = nil
		v.refreshItems()
		return v, nil

	case projectCreatedMsg:
		v.creating = false
		v.err = nil
		project := msg.project
		return v, func() tea.Msg { return SelectedProject{Project: project} }

	case ErrorMsg:
		v.err = msg.Err
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		// Let the list's own filter input consume keys while typing.
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.focusIdx = 0
			v.newName.Reset()
			v.newDesc.Reset()
			v.newDue.Reset()
			v.updateFocus()
			return v, textinput.Blink
		case msg.String() == "?":
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Profile):
			return v, func() tea.Msg { return OpenProfile{} }
		case key.Matches(msg, v.keys.Refresh):
			return v, v.loadProjects
		case key.Matches(msg, v.keys.View):
			v.filter.Status = cycleStatus(v.filter.Status, models.ProjectStatuses)
			v.refreshItems()
			return v, nil
		case key.Matches(msg, v.keys.Status):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, v.advanceStatus(item.project)
			}
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, func() tea.Msg {
					return SelectedProject{Project: item.project}
				}
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTargetID = item.project.ID
				v.deleteTargetName = item.project.Name
				return v, nil
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// nextProjectStatus steps through the project statuses in declaration order.
func nextProjectStatus(s models.ProjectStatus) models.ProjectStatus {
	for i, st := range models.ProjectStatuses {
		if st == s {
			return models.ProjectStatuses[(i+1)%len(models.ProjectStatuses)]
		}
	}
	return models.DefaultProjectStatus
}

func (v *ProjectListView) advanceStatus(p models.Project) tea.Cmd {
	next := nextProjectStatus(p.Status)
	return func() tea.Msg {
		if _, err := v.repos.Projects.Update(v.ctx, p.ID, models.ProjectPatch{Status: &next}); err != nil {
			return ErrorMsg{Err: err}
		}
		return v.loadProjects()
	}
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTargetID
		return v, func() tea.Msg {
			if err := v.repos.Projects.Delete(v.ctx, id); err != nil {
				return ErrorMsg{Err: err}
			}
			return v.loadProjects()
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *ProjectListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.err = nil
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.createProject()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + 3) % 4
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % 4
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < 3 {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		return v, v.createProject()
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case 0:
		v.newName, cmd = v.newName.Update(msg)
	case 1:
		v.newDesc, cmd = v.newDesc.Update(msg)
	case 2:
		v.newDue, cmd = v.newDue.Update(msg)
	}
	return v, cmd
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	v.newDue.Blur()
	switch v.focusIdx {
	case 0:
		v.newName.Focus()
	case 1:
		v.newDesc.Focus()
	case 2:
		v.newDue.Focus()
	}
}

type projectCreatedMsg struct {
	project models.Project
}

func (v *ProjectListView) createProject() tea.Cmd {
	due, err := parseDue(v.newDue.Value())
	if err != nil {
		v.err = fmt.Errorf("due date must look like %s", dueLayout)
		return nil
	}
	in := models.NewProject{
		Name:        v.newName.Value(),
		Description: strings.TrimSpace(v.newDesc.Value()),
		DueDate:     due,
	}
	return func() tea.Msg {
		project, err := v.repos.Projects.Create(v.ctx, in)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return projectCreatedMsg{project: *project}
	}
}

func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.projects) == 0 {
		return v.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		v.renderSummary(),
		v.list.View(),
		renderError(v.styles, v.err),
		v.renderHelp(),
	)
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderSummary() string {
	s := v.styles
	sum := v.summary

	overdue := s.TitleMuted.Render(fmt.Sprintf("%d overdue", sum.Overdue))
	if sum.Overdue > 0 {
		overdue = s.Overdue.Render(fmt.Sprintf("%d overdue", sum.Overdue))
	}

	line := lipgloss.JoinHorizontal(lipgloss.Center,
		s.TitleMuted.Render(fmt.Sprintf("%d projects (%d active) • %d tasks • ",
			sum.Projects.Total, sum.Projects.Active, sum.Tasks.Total)),
		overdue,
		s.TitleMuted.Render(" • "),
		styles.ProgressBar(sum.Percent, 10),
		s.TitleMuted.Render(fmt.Sprintf(" %d%% done", sum.Percent)),
	)
	return s.StatusBar.Render(line)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		s.TitleMuted.Render("or run 'taskhub seed' for a demo workspace"),
		"",
		s.ButtonPrimary.Render(" New Project "),
		renderError(s, v.err),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	nameStyle, descStyle, dueStyle := s.Input, s.Input, s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		descStyle = s.InputFocused
	case 2:
		dueStyle = s.InputFocused
	case 3:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Project"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		"Due date:",
		dueStyle.Width(16).Render(v.newDue.View()),
		"",
		btnStyle.Render(" Create "),
		renderError(s, v.err),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s status • %s filter • %s del • %s profile • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("v"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("p"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("s") + "      cycle project status",
		s.HelpKey.Render("v") + "      filter by status",
		s.HelpKey.Render("/") + "      search by name",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("p") + "      profile",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all of its tasks will be removed.", v.deleteTargetName)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
