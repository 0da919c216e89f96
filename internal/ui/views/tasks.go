package views

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
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

// FocusArea represents which part of the UI has focus
type FocusArea int

const (
	FocusBackButton FocusArea = iota
	FocusSearchInput
	FocusTagDropdown
	FocusTaskList
)

const focusAreas = 4

// Edit form fields, in tab order.
const (
	editFieldTitle = iota
	editFieldDesc
	editFieldPriority
	editFieldDue
	editFieldTags
	editFieldSave
	editFields
)

// TaskListView is the task dashboard of one project.
type TaskListView struct {
	ctx     context.Context
	repos   *repository.Repositories
	project models.Project
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	tasks    []models.Task // after filters
	loadSeq  uint64        // id of the newest task load; older replies are dropped
	counts   stats.StatusCounts
	overdue  int
	tags     []models.Tag
	comments []models.Comment
	err      error

	width  int
	height int

	focus       FocusArea
	cursor      int
	scrollY     int
	searchInput textinput.Model
	filter      filter.Tasks

	tagDropdownOpen bool
	tagCursor       int // 0 = clear, then one row per tag

	editing       bool
	editingNew    bool
	editTargetID  string
	editTitle     textinput.Model
	editDesc      textarea.Model
	editDue       textinput.Model
	editPriority  models.Priority
	editFocusIdx  int
	editTags      []string
	editTagCursor int

	viewingTask         bool
	commentInput        textarea.Model
	commentInputFocused bool
	commentCursor       int

	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	showHelpPopup bool
}

func NewTaskListView(ctx context.Context, repos *repository.Repositories, project models.Project) *TaskListView {
	search := textinput.New()
	search.Placeholder = "Search..."
	search.CharLimit = 100

	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD"
	editDue.CharLimit = 10

	commentInput := textarea.New()
	commentInput.Placeholder = "Add a comment..."
	commentInput.CharLimit = 2000
	commentInput.SetWidth(50)
	commentInput.SetHeight(3)
	commentInput.ShowLineNumbers = false

	return &TaskListView{
		ctx:          ctx,
		repos:        repos,
		project:      project,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		now:          time.Now,
		focus:        FocusTaskList,
		searchInput:  search,
		filter:       filter.Tasks{Status: filter.All, ProjectID: project.ID},
		editTitle:    editTitle,
		editDesc:     editDesc,
		editDue:      editDue,
		commentInput: commentInput,
	}
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

func (v *TaskListView) Init() tea.Cmd {
	return tea.Batch(v.loadTasks(), v.loadTags)
}

type tasksLoadedMsg struct {
	seq   uint64
	tasks []models.Task
	all   []models.Task
}

type tagsLoadedMsg struct {
	tags []models.Tag
}

type commentsLoadedMsg struct {
	taskID   string
	comments []models.Comment
}

type taskSavedMsg struct{}

// loadTasks snapshots the filter state and fetches the filtered list plus
// the whole project for the counters. Both reads are served from the cache
// when nothing changed. Loads run concurrently, so each is numbered and
// only the reply to the newest one is applied.
func (v *TaskListView) loadTasks() tea.Cmd {
	f := v.filter
	f.Search = v.searchInput.Value()
	projectID := v.project.ID
	v.loadSeq++
	seq := v.loadSeq
	return func() tea.Msg {
		tasks, err := v.repos.Tasks.List(v.ctx, f)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		all, err := v.repos.Tasks.List(v.ctx, filter.Tasks{ProjectID: projectID})
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return tasksLoadedMsg{seq: seq, tasks: tasks, all: all}
	}
}

func (v *TaskListView) loadTags() tea.Msg {
	tags, err := v.repos.Tags.List(v.ctx)
	if err != nil {
		return ErrorMsg{Err: err}
	}
	return tagsLoadedMsg{tags: tags}
}

func (v *TaskListView) loadComments(taskID string) tea.Cmd {
	return func() tea.Msg {
		comments, err := v.repos.Comments.List(v.ctx, taskID)
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return commentsLoadedMsg{taskID: taskID, comments: comments}
	}
}

func (v *TaskListView) selected() (models.Task, bool) {
	if v.cursor < 0 || v.cursor >= len(v.tasks) {
		return models.Task{}, false
	}
	return v.tasks[v.cursor], true
}

func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		v.commentInput.SetWidth(inputWidth)
		return v, nil

	case tasksLoadedMsg:
		if msg.seq != v.loadSeq {
			return v, nil
		}
		v.tasks = msg.tasks
		v.counts = stats.CountByStatus(msg.all)
		v.overdue = len(stats.Overdue(msg.all, v.now()))
		if v.cursor >= len(v.tasks) {
			v.cursor = max(0, len(v.tasks)-1)
		}
		if v.viewingTask && len(v.tasks) == 0 {
			v.viewingTask = false
		}
		return v, nil

	case tagsLoadedMsg:
		v.tags = msg.tags
		return v, nil

	case commentsLoadedMsg:
		if t, ok := v.selected(); ok && t.ID == msg.taskID {
			v.comments = msg.comments
			v.commentCursor = clamp(v.commentCursor, 0, max(0, len(v.comments)-1))
		}
		return v, nil

	case taskSavedMsg:
		v.editing = false
		v.err = nil
		return v, v.loadTasks()

	case ErrorMsg:
		v.err = msg.Err
		// A link failure leaves the task row behind; close the form and show it.
		var linkErr *repository.TagLinkError
		if v.editing && errors.As(msg.Err, &linkErr) {
			v.editing = false
			return v, v.loadTasks()
		}
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewingTask {
			return v.updateViewingTask(msg)
		}

		if v.tagDropdownOpen {
			return v.updateTagDropdown(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Don't process hotkeys while typing in the search box.
	if v.focus == FocusSearchInput {
		switch {
		case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
			v.searchInput.Blur()
			v.focus = FocusTaskList
			return v, v.loadTasks()
		default:
			var cmd tea.Cmd
			v.searchInput, cmd = v.searchInput.Update(msg)
			v.cursor, v.scrollY = 0, 0
			return v, tea.Batch(cmd, v.loadTasks())
		}
	}

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Tab):
		v.cycleFocus(1)
		return v, nil

	case msg.String() == "shift+tab":
		v.cycleFocus(-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.focus == FocusTaskList && v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.focus == FocusTaskList && v.cursor < len(v.tasks)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.focus {
		case FocusBackButton:
			return v, func() tea.Msg { return BackToProjects{} }
		case FocusTagDropdown:
			v.tagDropdownOpen = true
			v.tagCursor = 0
			return v, nil
		case FocusTaskList:
			if t, ok := v.selected(); ok {
				v.viewingTask = true
				v.comments = nil
				v.commentCursor = 0
				return v, v.loadComments(t.ID)
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.Edit):
		if t, ok := v.selected(); ok && v.focus == FocusTaskList {
			v.startEditTask(t)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		if t, ok := v.selected(); ok && v.focus == FocusTaskList {
			v.confirmDelete(t)
		}
		return v, nil

	case key.Matches(msg, v.keys.Status):
		if t, ok := v.selected(); ok && v.focus == FocusTaskList {
			return v, v.advanceStatus(t)
		}
		return v, nil

	case key.Matches(msg, v.keys.View):
		v.filter.Status = cycleStatus(v.filter.Status, models.TaskStatuses)
		v.cursor, v.scrollY = 0, 0
		return v, v.loadTasks()

	case key.Matches(msg, v.keys.Search):
		v.focus = FocusSearchInput
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		v.focus = FocusTagDropdown
		v.tagDropdownOpen = true
		v.tagCursor = 0
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		return v, tea.Batch(v.loadTasks(), v.loadTags)

	case msg.String() == "?":
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateTagDropdown(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.tagDropdownOpen = false
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.tagCursor > 0 {
			v.tagCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.tagCursor < len(v.tags) {
			v.tagCursor++
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter), msg.String() == " ":
		if v.tagCursor == 0 {
			v.filter.TagIDs = nil
			v.tagDropdownOpen = false
		} else {
			v.filter = v.filter.ToggleTag(v.tags[v.tagCursor-1].ID)
		}
		v.cursor, v.scrollY = 0, 0
		return v, v.loadTasks()
	}

	return v, nil
}

func (v *TaskListView) confirmDelete(t models.Task) {
	v.confirmingDelete = true
	v.deleteTargetID = t.ID
	v.deleteTargetName = t.Title
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		v.viewingTask = false
		id := v.deleteTargetID
		return v, func() tea.Msg {
			if err := v.repos.Tasks.Delete(v.ctx, id); err != nil {
				return ErrorMsg{Err: err}
			}
			return taskSavedMsg{}
		}
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) advanceStatus(t models.Task) tea.Cmd {
	next := t.Status.Next()
	return func() tea.Msg {
		if _, err := v.repos.Tasks.Update(v.ctx, t.ID, models.TaskPatch{Status: &next}); err != nil {
			return ErrorMsg{Err: err}
		}
		return taskSavedMsg{}
	}
}

func (v *TaskListView) updateViewingTask(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	task, ok := v.selected()
	if !ok {
		v.viewingTask = false
		return v, nil
	}

	if v.commentInputFocused {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.commentInputFocused = false
			v.commentInput.Blur()
			return v, nil
		case key.Matches(msg, v.keys.Save):
			return v, v.submitComment(task.ID)
		default:
			var cmd tea.Cmd
			v.commentInput, cmd = v.commentInput.Update(msg)
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewingTask = false
		v.comments = nil
		return v, nil
	case key.Matches(msg, v.keys.Edit):
		v.viewingTask = false
		v.comments = nil
		v.startEditTask(task)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		v.confirmDelete(task)
		return v, nil
	case key.Matches(msg, v.keys.Status):
		return v, v.advanceStatus(task)
	case key.Matches(msg, v.keys.Up):
		if v.commentCursor > 0 {
			v.commentCursor--
		}
		return v, nil
	case key.Matches(msg, v.keys.Down):
		if v.commentCursor < len(v.comments)-1 {
			v.commentCursor++
		}
		return v, nil
	case msg.String() == "x":
		if v.commentCursor < len(v.comments) {
			return v, v.deleteComment(task.ID, v.comments[v.commentCursor].ID)
		}
		return v, nil
	case key.Matches(msg, v.keys.Comment), msg.String() == "a":
		v.commentInputFocused = true
		v.commentInput.Focus()
		return v, textarea.Blink
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *TaskListView) submitComment(taskID string) tea.Cmd {
	content := strings.TrimSpace(v.commentInput.Value())
	if content == "" {
		return nil
	}

	v.commentInput.Reset()
	v.commentInputFocused = false
	v.commentInput.Blur()

	return func() tea.Msg {
		if _, err := v.repos.Comments.Create(v.ctx, models.NewComment{TaskID: taskID, Content: content}); err != nil {
			return ErrorMsg{Err: err}
		}
		return v.loadComments(taskID)()
	}
}

func (v *TaskListView) deleteComment(taskID, commentID string) tea.Cmd {
	return func() tea.Msg {
		if err := v.repos.Comments.Delete(v.ctx, commentID); err != nil {
			return ErrorMsg{Err: err}
		}
		return v.loadComments(taskID)()
	}
}

func (v *TaskListView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		v.err = nil
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % editFields
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + editFields - 1) % editFields
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case editFieldTitle, editFieldPriority, editFieldDue:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case editFieldTags:
			v.toggleEditTag()
			return v, nil
		case editFieldSave:
			return v, v.saveTask()
		}
		// Enter in the description inserts a newline.

	case msg.String() == " ":
		switch v.editFocusIdx {
		case editFieldTags:
			v.toggleEditTag()
			return v, nil
		case editFieldPriority:
			v.cyclePriority(1)
			return v, nil
		}

	case msg.String() == "left", msg.String() == "right":
		if v.editFocusIdx == editFieldPriority {
			dir := 1
			if msg.String() == "left" {
				dir = -1
			}
			v.cyclePriority(dir)
			return v, nil
		}

	case key.Matches(msg, v.keys.Up):
		if v.editFocusIdx == editFieldTags && v.editTagCursor > 0 {
			v.editTagCursor--
			return v, nil
		}

	case key.Matches(msg, v.keys.Down):
		if v.editFocusIdx == editFieldTags && v.editTagCursor < len(v.tags)-1 {
			v.editTagCursor++
			return v, nil
		}
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case editFieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case editFieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case editFieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

func (v *TaskListView) cyclePriority(dir int) {
	i := slices.Index(models.Priorities, v.editPriority)
	n := len(models.Priorities)
	v.editPriority = models.Priorities[((i+dir)%n+n)%n]
}

func (v *TaskListView) toggleEditTag() {
	if v.editTagCursor >= len(v.tags) {
		return
	}
	tagID := v.tags[v.editTagCursor].ID
	if i := slices.Index(v.editTags, tagID); i >= 0 {
		v.editTags = slices.Delete(v.editTags, i, i+1)
		return
	}
	v.editTags = append(v.editTags, tagID)
}

func (v *TaskListView) cycleFocus(dir int) {
	v.searchInput.Blur()
	v.focus = FocusArea((int(v.focus) + dir + focusAreas) % focusAreas)
	if v.focus == FocusSearchInput {
		v.searchInput.Focus()
	}
}

// visibleItems is how many two-line rows fit below the header.
func (v *TaskListView) visibleItems() int {
	return max((v.height-14)/3, 1)
}

func (v *TaskListView) ensureVisible() {
	visible := v.visibleItems()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *TaskListView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editTargetID = ""
	v.editFocusIdx = editFieldTitle
	v.editTagCursor = 0
	v.editTags = nil
	v.editPriority = models.DefaultPriority
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editDue.Reset()
	v.err = nil
	v.updateEditFocus()
}

func (v *TaskListView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editTargetID = task.ID
	v.editFocusIdx = editFieldTitle
	v.editTagCursor = 0
	v.editTags = task.TagIDs()
	v.editPriority = task.Priority
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editDue.SetValue(formatDue(task.DueDate))
	v.err = nil
	v.updateEditFocus()
}

func (v *TaskListView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case editFieldTitle:
		v.editTitle.Focus()
	case editFieldDesc:
		v.editDesc.Focus()
	case editFieldDue:
		v.editDue.Focus()
	}
}

func (v *TaskListView) saveTask() tea.Cmd {
	due, err := parseDue(v.editDue.Value())
	if err != nil {
		v.err = fmt.Errorf("due date must look like %s", dueLayout)
		return nil
	}

	title := v.editTitle.Value()
	desc := strings.TrimSpace(v.editDesc.Value())
	priority := v.editPriority
	tagIDs := slices.Clone(v.editTags)

	if v.editingNew {
		in := models.NewTask{
			ProjectID:   v.project.ID,
			Title:       title,
			Description: desc,
			Priority:    priority,
			DueDate:     due,
			TagIDs:      tagIDs,
		}
		return func() tea.Msg {
			if _, err := v.repos.Tasks.Create(v.ctx, in); err != nil {
				return ErrorMsg{Err: err}
			}
			return taskSavedMsg{}
		}
	}

	id := v.editTargetID
	patch := models.TaskPatch{
		Title:       &title,
		Description: &desc,
		Priority:    &priority,
		DueDate:     due,
		TagIDs:      models.TagSet(tagIDs...),
	}
	if due == nil {
		patch.ClearDueDate = true
	}
	return func() tea.Msg {
		if _, err := v.repos.Tasks.Update(v.ctx, id, patch); err != nil {
			return ErrorMsg{Err: err}
		}
		return taskSavedMsg{}
	}
}

func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewingTask {
		return v.renderTaskView()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(renderError(v.styles, v.err))
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderCounters() string {
	s := v.styles
	c := v.counts

	parts := []string{
		styles.TaskStatus(models.TaskPending).Render(fmt.Sprintf("%d pending", c.Pending)),
		styles.TaskStatus(models.TaskInProgress).Render(fmt.Sprintf("%d in progress", c.InProgress)),
		styles.TaskStatus(models.TaskCompleted).Render(fmt.Sprintf("%d done", c.Completed)),
	}
	if v.overdue > 0 {
		parts = append(parts, s.Overdue.Render(fmt.Sprintf("%d overdue", v.overdue)))
	}
	percent := stats.PercentComplete(c.Total, c.Completed)
	parts = append(parts, styles.ProgressBar(percent, 10)+s.TitleMuted.Render(fmt.Sprintf(" %d%%", percent)))

	return strings.Join(parts, s.TitleMuted.Render(" • "))
}

func (v *TaskListView) renderHeader() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	isNarrow := contentWidth < 60

	searchStyle := s.Input
	if v.focus == FocusSearchInput {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth-8, 10, 24)).Render(v.searchInput.View())

	tagStyle := s.Button
	if v.focus == FocusTagDropdown {
		tagStyle = s.ButtonFocused
	}
	tagLabel := "All"
	if n := len(v.filter.TagIDs); n == 1 {
		tagLabel = v.tagName(v.filter.TagIDs[0])
	} else if n > 1 {
		tagLabel = fmt.Sprintf("%d tags", n)
	}
	if !isNarrow {
		tagLabel = "Tags: " + tagLabel
	}
	tagBtn := tagStyle.Render(tagLabel + " ▼")

	titleText := v.project.Name
	if v.filter.Status != "" && v.filter.Status != filter.All {
		titleText += " (" + models.TaskStatus(v.filter.Status).Label() + ")"
	}
	title := s.Title.Render(titleText)

	var controls string
	if isNarrow {
		controls = lipgloss.JoinVertical(lipgloss.Left, searchBox, tagBtn)
	} else {
		backStyle := s.Button
		if v.focus == FocusBackButton {
			backStyle = s.ButtonFocused
		}
		controls = lipgloss.JoinHorizontal(lipgloss.Center,
			backStyle.Render("← Projects"), "  ", searchBox, "  ", tagBtn,
		)
	}

	dropdown := ""
	if v.tagDropdownOpen {
		dropdown = "\n" + v.renderTagDropdown()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, v.renderCounters(), controls+dropdown)
}

func (v *TaskListView) tagName(id string) string {
	for _, t := range v.tags {
		if t.ID == id {
			return t.Name
		}
	}
	return "?"
}

func (v *TaskListView) renderTagDropdown() string {
	s := v.styles
	var items []string

	clearStyle := s.ListItem
	if v.tagCursor == 0 {
		clearStyle = s.ListSelected
	}
	items = append(items, clearStyle.Render("Clear"))

	for i, tag := range v.tags {
		itemStyle := s.ListItem
		if v.tagCursor == i+1 {
			itemStyle = s.ListSelected
		}
		checkbox := "[ ]"
		if slices.Contains(v.filter.TagIDs, tag.ID) {
			checkbox = "[x]"
		}
		items = append(items, itemStyle.Render(checkbox+" "+styles.Tag(tag.Color).Render("●")+" "+tag.Name))
	}

	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if len(v.tasks) == 0 {
		if !v.filtersActive() {
			return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
		}
		return s.TitleMuted.Render("No tasks match the current filters.")
	}

	var items []string
	end := min(v.scrollY+v.visibleItems(), len(v.tasks))
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderTaskItem(v.tasks[i], i == v.cursor && v.focus == FocusTaskList))
	}

	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

// filtersActive reports whether anything narrows the project's task list.
func (v *TaskListView) filtersActive() bool {
	f := v.filter
	f.ProjectID = ""
	f.Search = v.searchInput.Value()
	return !f.IsEmpty()
}

func priorityMarker(p models.Priority) string {
	if p == "" {
		return " "
	}
	return strings.ToUpper(string(p[:1]))
}

func statusGlyph(st models.TaskStatus) string {
	switch st {
	case models.TaskInProgress:
		return "◐"
	case models.TaskCompleted:
		return "●"
	}
	return "○"
}

func (v *TaskListView) renderTaskItem(task models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	titleLine := styles.TaskStatus(task.Status).Render(statusGlyph(task.Status)) + " " +
		styles.Priority(task.Priority).Render(priorityMarker(task.Priority)) + " " +
		task.Title
	if due := formatDue(task.DueDate); due != "" {
		if stats.IsOverdue(task, v.now()) {
			titleLine += "  " + s.Overdue.Render("due "+due)
		} else {
			titleLine += "  " + s.TitleMuted.Render("due "+due)
		}
	}

	tagsLine := s.TitleMuted.Render("no tags")
	if len(task.Tags) > 0 {
		var tagStrs []string
		for _, tag := range task.Tags {
			tagStrs = append(tagStrs, styles.Tag(tag.Color).Render(tag.Name))
		}
		tagsLine = strings.Join(tagStrs, " ")
	}

	lineStyle := s.ListItem.Width(width)
	if selected {
		lineStyle = s.ListSelected.Width(width)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lineStyle.Render(titleLine), lineStyle.Render(tagsLine)) + "\n"
}

func (v *TaskListView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = "Edit Task"
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == editFieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	var priorities []string
	for _, p := range models.Priorities {
		label := string(p)
		if p == v.editPriority {
			label = styles.Priority(p).Render("[" + label + "]")
		} else {
			label = s.TitleMuted.Render(" " + label + " ")
		}
		priorities = append(priorities, label)
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyle(editFieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		fieldStyle(editFieldDesc).Render(v.editDesc.View()),
		"",
		"Priority (←/→):",
		fieldStyle(editFieldPriority).Render(strings.Join(priorities, " ")),
		"",
		"Due date:",
		fieldStyle(editFieldDue).Width(16).Render(v.editDue.View()),
		"",
		"Tags:",
		v.renderEditTagSelector(fieldStyle(editFieldTags), inputWidth),
		"",
		btnStyle.Render(" Save "),
		renderError(s, v.err),
		"",
		s.TitleMuted.Render("Tab: next • Space/↵: toggle tag • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderEditTagSelector(containerStyle lipgloss.Style, width int) string {
	s := v.styles

	if len(v.tags) == 0 {
		return containerStyle.Width(width).Render(s.TitleMuted.Render("No tags available"))
	}

	var items []string
	for i, tag := range v.tags {
		checkbox := "[ ]"
		if slices.Contains(v.editTags, tag.ID) {
			checkbox = "[x]"
		}
		itemText := checkbox + " " + styles.Tag(tag.Color).Render("●") + " " + tag.Name

		if v.editFocusIdx == editFieldTags && i == v.editTagCursor {
			items = append(items, s.ListSelected.Render(itemText))
		} else {
			items = append(items, s.ListItem.Render(itemText))
		}
	}

	return containerStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 70 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(
		fmt.Sprintf("%s view • %s new • %s edit • %s status • %s del • %s search • %s tags • %s filter • %s back",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("e"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("/"),
			s.HelpKey.Render("f"),
			s.HelpKey.Render("v"),
			s.HelpKey.Render("esc"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("s") + "      cycle status",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("/") + "      search titles",
		s.HelpKey.Render("f") + "      filter by tags",
		s.HelpKey.Render("v") + "      filter by status",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("esc") + "    back",
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

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and its comments will be removed.", v.deleteTargetName)),
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

func (v *TaskListView) renderTaskView() string {
	task, ok := v.selected()
	if !ok {
		return ""
	}

	s := v.styles
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	labelStyle := s.TitleMuted

	due := s.TitleMuted.Render("None")
	if d := formatDue(task.DueDate); d != "" {
		due = d
		if stats.IsOverdue(task, v.now()) {
			due = s.Overdue.Render(d + " (overdue)")
		}
	}

	tagsLine := "None"
	if len(task.Tags) > 0 {
		var tagStrs []string
		for _, tag := range task.Tags {
			tagStrs = append(tagStrs, styles.Tag(tag.Color).Render(tag.Name))
		}
		tagsLine = strings.Join(tagStrs, " ")
	}

	descText := task.Description
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}

	var commentsContent string
	if len(v.comments) == 0 {
		commentsContent = s.TitleMuted.Render("No comments yet")
	} else {
		var lines []string
		for i, c := range v.comments {
			author := c.AuthorName
			if author == "" {
				author = c.AuthorEmail
			}
			header := s.TitleMuted.Render(author + " · " + c.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"))
			if i == v.commentCursor {
				header = s.HelpKey.Render("› ") + header
			}
			lines = append(lines, lipgloss.JoinVertical(lipgloss.Left,
				header,
				lipgloss.NewStyle().Width(textWidth).Render(c.Content),
			))
		}
		commentsContent = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	commentInputStyle := s.Input
	if v.commentInputFocused {
		commentInputStyle = s.InputFocused
	}

	var helpText string
	if v.commentInputFocused {
		helpText = s.Help.Render(fmt.Sprintf("%s submit • %s cancel",
			s.HelpKey.Render("ctrl+s"),
			s.HelpKey.Render("esc"),
		))
	} else {
		helpText = s.Help.Render(fmt.Sprintf("%s edit • %s status • %s delete • %s comment • %s remove comment • %s back",
			s.HelpKey.Render("e"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("d"),
			s.HelpKey.Render("c"),
			s.HelpKey.Render("x"),
			s.HelpKey.Render("esc"),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(task.Title),
		labelStyle.Render("Status")+"  "+styles.TaskStatus(task.Status).Render(task.Status.Label()),
		labelStyle.Render("Priority")+"  "+styles.Priority(task.Priority).Render(string(task.Priority)),
		labelStyle.Render("Due")+"  "+due,
		labelStyle.Render("Tags")+"  "+tagsLine,
		"",
		labelStyle.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(descText),
		"",
		labelStyle.Render(fmt.Sprintf("Comments (%d)", len(v.comments))),
		commentsContent,
		"",
		commentInputStyle.Render(v.commentInput.View()),
		renderError(s, v.err),
		helpText,
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
