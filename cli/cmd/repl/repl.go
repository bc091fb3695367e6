package repl

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/esp/cli/cmd"
	"github.com/ardnew/esp/lang"
	"github.com/ardnew/esp/log"
)

const (
	evalPrompt = "➜ "
	contPrompt = "… "
)

func helpMessage() string {
	return `
Commands (prefix with ':'):

  help         Print this cruft
  list         List global bindings and namespaces
  load FILE    Evaluate FILE in the current session
  clear        Clear screen
  quit         Exit REPL

Usage:
  Type an expression or statement to evaluate it
  Statements with unclosed brackets continue on the next line
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to cancel a candidate or a continued statement
  Use Up/Down arrows for history navigation
  Use Shift+Up/Shift+Down to navigate only commands or only expressions
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// isCommand reports whether the input line is a REPL command.
func isCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), ":")
}

// Repl starts an interactive shell over the session's interpreter.
type Repl struct {
	History   string `default:"${historyPath}" help:"History file."                         placeholder:"FILE" type:"path"`
	NoHistory bool   `help:"Do not read or write the history file."`
}

// Run evaluates the session sources, then reads and evaluates input until
// the user quits or ctx is done.
func (r *Repl) Run(ctx context.Context, s *cmd.Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if _, err := s.Load(ctx); err != nil {
		return err
	}

	path := r.History
	if r.NoHistory {
		path = ""
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		s.Logger.WarnContext(ctx, "could not load history",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}

	s.Logger.TraceContext(ctx, "repl start",
		slog.String("history", path),
		slog.Int("entry_count", history.Len()),
	)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}

	if s.Stdin != os.Stdin {
		opts = append(opts, tea.WithInput(s.Stdin))
	}

	if s.Stdout != os.Stdout {
		opts = append(opts, tea.WithOutput(s.Stdout))
	}

	_, err = tea.NewProgram(newModel(ctx, s.Interp, history, s.Logger), opts...).Run()

	return err
}

// evaluate compiles and runs src against it. When src ends inside an
// unclosed construct it reports incomplete without running anything.
func evaluate(
	ctx context.Context,
	it *lang.Interpreter,
	src string,
) (v lang.Value, incomplete bool, err error) {
	prog, err := lang.Compile(src)
	if err != nil {
		return nil, lang.IsIncomplete(err), err
	}

	v, err = it.Run(ctx, prog)

	return v, false, err
}

// formatResult renders an evaluation outcome for display. Undefined results
// print nothing.
func formatResult(v lang.Value, err error) (string, bool) {
	if err != nil {
		if thrown, ok := lang.ThrownValue(err); ok {
			return errorStyle.Render("uncaught " + lang.Inspect(thrown)), true
		}

		return errorStyle.Render("error: " + err.Error()), true
	}

	if v == nil || v == lang.Undefined {
		return "", false
	}

	return resultStyle.Render(lang.Inspect(v)), true
}

const defaultWidth = 80

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc      func() context.Context
	interp       *lang.Interpreter
	history      *History
	logger       log.Logger
	input        textinput.Model
	matches      fuzzy.Matches // current fuzzy match results
	candidates   []string      // backing candidate list
	pending      []string      // lines of an unfinished statement
	preTabText   string        // input text before tab-cycling began
	historyIdx   int
	wordStart    int  // byte offset of current word start
	wordEnd      int  // byte offset of current word end
	suggIdx      int  // selected candidate index
	preTabCursor int  // cursor position before tab-cycling began
	width        int  // terminal width for ellipsization
	tabActive    bool // whether user is tab-cycling
	quitting     bool
}

func newModel(
	ctx context.Context,
	it *lang.Interpreter,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		interp:     it,
		input:      ti,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		suggIdx:    -1,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - lipgloss.Width(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()
	call := detectFunctionCall(input, m.input.Position())

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case len(m.pending) > 0 && strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Continue the statement or press Esc to discard it"))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type an expression or :help for commands"))

	case call.inCall && !isCommand(input):
		if sig, params := getSignature(m.interp, call.name); sig != "" {
			b.WriteString(renderSignatureHint(sig, params, call.argIndex))
		} else {
			b.WriteString(m.renderCandidateBar())
		}

	default:
		b.WriteString(m.renderCandidateBar())
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" && len(m.pending) == 0 {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m = m.discardPending()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}
		// Lock in the current tab candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1)

	case tea.KeyShiftTab:
		return m.cycle(-1)

	case tea.KeyUp:
		return m.historyMove(-1, nil)

	case tea.KeyDown:
		return m.historyMove(1, nil)

	case tea.KeyShiftUp:
		kind := isCommand(m.input.Value())

		return m.historyMove(-1, func(s string) bool { return isCommand(s) == kind })

	case tea.KeyShiftDown:
		kind := isCommand(m.input.Value())

		return m.historyMove(1, func(s string) bool { return isCommand(s) == kind })

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		if len(m.pending) > 0 {
			m = m.discardPending()

			return m, tea.Println(hintStyle.Render("(discarded)"))
		}

		return m, nil

	case tea.KeyRunes:
		// Space accepts the candidate while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		m.updatePrompt()
		refreshMatches(&m, true)

		return m, cmd
	}

	// Any other key (backspace, delete, arrows) edits without auto-confirm.
	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.updatePrompt()
	refreshMatches(&m, false)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping at either end.
func (m model) cycle(step int) (model, tea.Cmd) {
	if len(m.matches) == 0 {
		return m, nil
	}

	// Single candidate: complete and confirm immediately.
	if len(m.matches) == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m, nil
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	case step > 0:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0
	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = len(m.matches) - 1
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// replaceCurrentWord replaces the current word boundaries in the input with
// the given replacement text and repositions the cursor.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	newInput := input[:m.wordStart] + replacement + input[m.wordEnd:]
	newCursor := m.wordStart + len(replacement)

	m.input.SetValue(newInput)
	m.input.SetCursor(newCursor)

	m.wordEnd = newCursor
}

// refreshMatches recomputes fuzzy matches for the current input state.
// When autoConfirm is true it also auto-confirms the completion when exactly
// one candidate remains and the typed word already equals that candidate.
// autoConfirm should be false for deletions and cursor navigation so that
// the user can freely edit without unexpected completions.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	candidate := m.matches[0].Str
	if m.input.Value()[m.wordStart:m.wordEnd] == candidate {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

// updatePrompt styles the prompt for commands, continuations, and
// expressions.
func (m *model) updatePrompt() {
	switch {
	case len(m.pending) > 0:
		m.input.Prompt = hintStyle.Render(contPrompt)
	case isCommand(m.input.Value()):
		m.input.Prompt = ctrlPromptStyle.Render(evalPrompt)
	default:
		m.input.Prompt = promptStyle.Render(evalPrompt)
	}
}

func (m model) discardPending() model {
	m.pending = nil
	m.updatePrompt()

	return m
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()

	if len(m.pending) == 0 && strings.TrimSpace(line) == "" {
		return m, nil
	}

	echo := tea.Println(m.input.Prompt + inputStyle.Render(line))

	m.input.SetValue("")
	m.historyIdx = m.history.Len()
	m.matches = nil

	if len(m.pending) == 0 && isCommand(line) {
		line = strings.TrimSpace(line)
		m.record(line)
		m.updatePrompt()

		return m.executeCommand(echo, strings.TrimPrefix(line, ":"))
	}

	// Continuation lines are recorded individually so that each can be
	// recalled into the single-line input.
	m.record(line)

	src := strings.Join(slices.Concat(m.pending, []string{line}), "\n")

	v, incomplete, err := evaluate(m.ctxFunc(), m.interp, src)
	if incomplete {
		m.pending = append(m.pending, line)
		m.updatePrompt()

		return m, echo
	}

	m = m.discardPending()

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", src),
		slog.Bool("ok", err == nil),
	)

	out, ok := formatResult(v, err)
	if !ok {
		return m, echo
	}

	return m, tea.Sequence(echo, tea.Println(out))
}

// record appends entry to history and resets navigation.
func (m *model) record(entry string) {
	if _, err := m.history.Write(entry); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not write history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()
}

func (m model) executeCommand(echo tea.Cmd, input string) (model, tea.Cmd) {
	name, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)

	m.logger.TraceContext(m.ctxFunc(), "repl command",
		slog.String("command", name),
		slog.String("arg", arg),
	)

	switch name {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "l", "list":
		return m, tea.Sequence(echo, tea.Println(m.listGlobals()))

	case "load":
		out, _ := formatResult(m.load(arg))

		return m, tea.Sequence(echo, tea.Println(out))

	case "c", "clear":
		return m, tea.ClearScreen

	default:
		return m, tea.Sequence(echo, tea.Println(errorStyle.Render(
			fmt.Sprintf("%v: %s (try :help)", ErrUnknownCommand, name))))
	}
}

// load evaluates the file at path in the session. It reports the file name
// on success.
func (m model) load(path string) (lang.Value, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: load requires a file", ErrUnknownCommand)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if _, err := m.interp.Parse(m.ctxFunc(), string(data)); err != nil {
		return nil, err
	}

	return lang.String("loaded " + path), nil
}

// maxPreview bounds the width of values shown by :list.
const maxPreview = 60

// listGlobals describes the bindings made in this session followed by the
// installed namespaces.
func (m model) listGlobals() string {
	builtin := make(map[string]lang.Value)

	var names []string

	for _, ns := range m.interp.Namespaces() {
		names = append(names, ns.Name)
		builtin[ns.Name] = ns.Members

		for _, key := range ns.Members.Keys() {
			builtin[key] = ns.Members.Get(key)
		}
	}

	var b strings.Builder

	for _, name := range m.interp.Globals() {
		v, _ := m.interp.Get(name)
		if nv, ok := builtin[name]; ok && nv == v {
			continue
		}

		preview := lang.Inspect(v)
		if len(preview) > maxPreview {
			preview = preview[:maxPreview-3] + "..."
		}

		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(preview))
	}

	if len(names) > 0 {
		fmt.Fprintf(&b, "%s %s", hintStyle.Render("namespaces:"), strings.Join(names, ", "))
	}

	return b.String()
}

func (m model) historyMove(step int, keep func(string) bool) (model, tea.Cmd) {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.Get(i)
		if err != nil || (keep != nil && !keep(entry)) {
			continue
		}

		m.historyIdx = i
		m.input.SetValue(entry)
		m.input.SetCursor(len(entry))
		m.updatePrompt()
		refreshMatches(&m, false)

		return m, nil
	}

	// Moving past the newest entry returns to an empty line.
	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.updatePrompt()
		refreshMatches(&m, false)
	}

	return m, nil
}
