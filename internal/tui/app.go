// internal/tui/app.go
//
// This is the terminal host for brief. It uses bubbletea, which follows The
// Elm Architecture:
//
// 1. Model: the App below, wrapping an open session
// 2. Update: key presses edit the stage YAML or drive the orchestrator
// 3. View: progress, editor or document preview, notices and the logbook
//
// Each stage is edited as one YAML document. Edits are autosaved as drafts;
// ctrl+s submits, and once every stage is answered the assembled document is
// previewed and can be exported.

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/brief/internal/brief"
	"github.com/kingrea/brief/internal/export"
	"github.com/kingrea/brief/internal/session"
	"github.com/kingrea/brief/internal/wizard"
)

// appState represents which "screen" we're on
type appState int

const (
	stateEditing        appState = iota // Editing the active stage
	stateConfirmRestart                 // Waiting for y/n before wiping answers
	stateComplete                       // Every stage answered, previewing the document
)

const (
	noticePollInterval = time.Second
	logPanelLines      = 6
)

// noticeMsg carries a notice raised outside Update.
type noticeMsg struct{}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	session *session.Session
	ctx     context.Context

	editor   textarea.Model
	preview  viewport.Model
	progress progress.Model
	stage    brief.StageID
	saved    string

	inbox *Inbox

	notice    wizard.Notice
	hasNotice bool
	statusMsg string

	width  int
	height int
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithContext sets the context used for storage calls.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// WithInbox reads notices from inbox. Pass inbox.Push to
// session.WithNotifier when opening the session.
func WithInbox(inbox *Inbox) AppOption {
	return func(a *App) {
		if inbox != nil {
			a.inbox = inbox
		}
	}
}

// NewApp creates the model for an open session.
func NewApp(sess *session.Session, opts ...AppOption) (*App, error) {
	if sess == nil || sess.Wizard == nil {
		return nil, errors.New("tui: session is required")
	}
	editor := textarea.New()
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.MaxWidth = 0
	editor.Placeholder = "stage answers as YAML"
	editor.Focus()

	app := &App{
		session:  sess,
		ctx:      context.Background(),
		editor:   editor,
		preview:  viewport.New(80, 20),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		inbox:    NewInbox(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.loadStage()
	return app, nil
}

// Inbox buffers notices raised by the session, possibly from the autosave
// goroutine, until the next Update.
type Inbox struct {
	mu      sync.Mutex
	notices []wizard.Notice
}

// NewInbox returns an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Push queues a notice. It is safe for concurrent use.
func (i *Inbox) Push(n wizard.Notice) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.notices = append(i.notices, n)
}

func (i *Inbox) drain() []wizard.Notice {
	i.mu.Lock()
	defer i.mu.Unlock()
	pending := i.notices
	i.notices = nil
	return pending
}

// drainNotices shows the most recent queued notice and reports whether there
// was one.
func (a *App) drainNotices() bool {
	pending := a.inbox.drain()
	if len(pending) == 0 {
		return false
	}
	a.notice = pending[len(pending)-1]
	a.hasNotice = true
	return true
}

func (a *App) logInfo(format string, args ...any) {
	a.session.Logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	a.session.Logbook.Warn(format, args...)
}

// loadStage points the UI at the orchestrator's current position.
func (a *App) loadStage() {
	wz := a.session.Wizard
	stage, ok := wz.Current()
	if !ok {
		a.enterComplete()
		return
	}
	a.state = stateEditing
	a.stage = stage
	payload, err := wz.Initial(a.ctx, stage)
	if err != nil {
		a.setError(err)
		return
	}
	text, err := marshalPayload(payload)
	if err != nil {
		a.setError(err)
		return
	}
	a.editor.SetValue(text)
	a.editor.Focus()
	a.saved = text
}

func (a *App) enterComplete() {
	a.state = stateComplete
	a.stage = ""
	doc, err := a.session.Wizard.Assemble()
	if err != nil {
		a.setError(err)
		a.preview.SetContent(err.Error())
		return
	}
	palette := export.NewPalette(lipgloss.DefaultRenderer())
	a.preview.SetContent(export.Render(doc, palette, a.preview.Width))
	a.preview.GotoTop()
	a.statusMsg = "All stages answered. ctrl+e exports the document."
}

func marshalPayload(payload any) (string, error) {
	data, err := yaml.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("tui: render stage: %w", err)
	}
	return string(data), nil
}

func (a *App) setError(err error) {
	a.notice = wizard.Notice{Severity: wizard.SeverityError, Stage: a.stage, Message: err.Error(), Err: err}
	a.hasNotice = true
}

func (a *App) setInfo(message string) {
	a.notice = wizard.Notice{Severity: wizard.SeverityInfo, Stage: a.stage, Message: message}
	a.hasNotice = true
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.scheduleNoticePoll())
}

func (a *App) scheduleNoticePoll() tea.Cmd {
	return tea.Tick(noticePollInterval, func(time.Time) tea.Msg {
		return noticeMsg{}
	})
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	a.drainNotices()
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		if a.state == stateComplete {
			a.enterComplete()
		}
		return a, nil

	case noticeMsg:
		return a, a.scheduleNoticePoll()

	case tea.KeyMsg:
		if a.state == stateConfirmRestart {
			return a.handleRestartConfirm(msg)
		}
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "ctrl+r":
			a.state = stateConfirmRestart
			a.statusMsg = "Erase every answer and start over? (y/n)"
			return a, nil
		case "esc", "ctrl+b":
			return a.back()
		case "ctrl+s":
			if a.state == stateEditing {
				return a.submit()
			}
		case "ctrl+g":
			if a.state == stateEditing && a.stage == brief.StageEquipment {
				a.addSuggestions()
				return a, nil
			}
		case "ctrl+e":
			if a.state == stateComplete {
				return a.export()
			}
		case "q":
			if a.state == stateComplete {
				return a, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateEditing:
		a.editor, cmd = a.editor.Update(msg)
		a.queueDraft()
	case stateComplete:
		a.preview, cmd = a.preview.Update(msg)
	}
	return a, cmd
}

func (a *App) resize() {
	width := max(40, a.width-4)
	height := max(8, a.height-16)
	a.editor.SetWidth(width)
	a.editor.SetHeight(height)
	a.preview.Width = width
	a.preview.Height = height
	a.progress.Width = min(60, max(20, width/2))
}

// queueDraft autosaves the editor when it holds a decodable change.
func (a *App) queueDraft() {
	text := a.editor.Value()
	if text == a.saved {
		return
	}
	def, err := a.session.Wizard.Definition(a.stage)
	if err != nil {
		return
	}
	payload, err := def.Decode([]byte(text))
	if err != nil {
		return
	}
	if err := a.session.Wizard.SaveDraft(a.ctx, a.stage, payload); err != nil {
		return
	}
	a.saved = text
}

func (a *App) submit() (tea.Model, tea.Cmd) {
	stage := a.stage
	_, err := a.session.Wizard.SubmitRaw(a.ctx, stage, []byte(a.editor.Value()))
	var verr *brief.ValidationError
	switch {
	case errors.As(err, &verr):
		a.notice = wizard.Notice{Severity: wizard.SeverityError, Stage: stage, Message: describeValidation(verr), Err: err}
		a.hasNotice = true
		a.logWarn("%s · rejected (%d problem(s))", stage.Title(), len(verr.Fields))
		return a, nil
	case err != nil:
		a.setError(err)
		return a, nil
	}
	a.logInfo("%s · submitted", stage.Title())
	if !a.drainNotices() {
		a.setInfo(fmt.Sprintf("%s saved", stage.Title()))
	}
	a.loadStage()
	return a, nil
}

func describeValidation(err *brief.ValidationError) string {
	parts := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return strings.Join(parts, "; ")
}

func (a *App) back() (tea.Model, tea.Cmd) {
	before := a.session.Wizard.Position()
	after := a.session.Wizard.Back()
	if before == after {
		a.statusMsg = "Already at the first stage"
		return a, nil
	}
	a.hasNotice = false
	a.loadStage()
	a.statusMsg = fmt.Sprintf("Back to %s", a.stage.Title())
	return a, nil
}

func (a *App) handleRestartConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		err := a.session.Wizard.Restart(a.ctx)
		a.session.Suggest.Clear()
		a.logInfo("Questionnaire restarted")
		a.loadStage()
		a.statusMsg = "Started over"
		if err != nil {
			a.setError(err)
		} else {
			a.hasNotice = false
		}
	case "ctrl+c":
		return a, tea.Quit
	default:
		if a.session.Wizard.IsComplete() {
			a.state = stateComplete
		} else {
			a.state = stateEditing
		}
		a.statusMsg = "Restart cancelled"
	}
	return a, nil
}

// addSuggestions fills rooms without items from the suggestion index.
func (a *App) addSuggestions() {
	def, err := a.session.Wizard.Definition(brief.StageEquipment)
	if err != nil {
		a.setError(err)
		return
	}
	payload, err := def.Decode([]byte(a.editor.Value()))
	if err != nil {
		a.setError(fmt.Errorf("fix the YAML before adding suggestions: %w", err))
		return
	}
	equipment, ok := payload.(brief.Equipment)
	if !ok {
		return
	}
	rooms := a.session.Wizard.Record().RoomIndex()
	added := 0
	for i, entry := range equipment.Rooms {
		if len(entry.Items) > 0 {
			continue
		}
		room, ok := rooms[entry.RoomID]
		if !ok {
			continue
		}
		for _, tpl := range a.session.Suggest.Available(room.Name, room.Type, entry.SelectedNames()) {
			equipment.Rooms[i].Items = append(equipment.Rooms[i].Items,
				brief.NewEquipmentItem(tpl.Name, tpl.Category, brief.SourceSuggested))
			added++
		}
	}
	if added == 0 {
		a.statusMsg = "Every room already lists equipment"
		return
	}
	text, err := marshalPayload(equipment)
	if err != nil {
		a.setError(err)
		return
	}
	a.editor.SetValue(text)
	a.queueDraft()
	a.statusMsg = fmt.Sprintf("Added %d suggested item(s)", added)
}

func (a *App) export() (tea.Model, tea.Cmd) {
	path, err := a.session.Export()
	if err != nil {
		a.setError(err)
		return a, nil
	}
	a.setInfo(fmt.Sprintf("Exported to %s", path))
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ BRIEF")
	sections := []string{header, a.renderProgress()}

	var body string
	switch a.state {
	case stateComplete:
		body = a.preview.View()
	default:
		body = a.editor.View()
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(body)
	sections = append(sections, box)

	if line := a.renderNotice(); line != "" {
		sections = append(sections, line)
	}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(strings.TrimSpace(a.statusMsg + "\n" + a.renderHints()))
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderProgress() string {
	done, total := a.session.Wizard.Progress()
	percent := 0.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	var title string
	if a.state == stateComplete {
		title = "Готово"
	} else {
		pos := a.session.Wizard.Position()
		title = fmt.Sprintf("Шаг %d/%d · %s", pos.Number(), total, a.stage.Title())
	}
	label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Render(title)
	return lipgloss.JoinVertical(lipgloss.Left, label, a.progress.ViewAs(percent))
}

func (a *App) renderNotice() string {
	if !a.hasNotice {
		return ""
	}
	color := lipgloss.Color("#4CAF50")
	prefix := "✓"
	switch a.notice.Severity {
	case wizard.SeverityError:
		color = lipgloss.Color("#FF6B6B")
		prefix = "✗"
	case wizard.SeverityWarning:
		color = lipgloss.Color("#F7B801")
		prefix = "⚠"
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %s", prefix, a.notice.Message))
}

func (a *App) renderLogPanel() string {
	lines, _ := a.session.Logbook.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.session.Logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func (a *App) renderHints() string {
	switch a.state {
	case stateConfirmRestart:
		return "y → erase answers    n → keep them"
	case stateComplete:
		return "ctrl+e → export    esc → edit last stage    ctrl+r → restart    q → quit"
	}
	hints := "ctrl+s → submit    esc → back    ctrl+r → restart    ctrl+c → quit"
	if a.stage == brief.StageEquipment {
		hints += "    ctrl+g → suggest equipment"
	}
	return hints
}
