// Package tui is the terminal rendition of the TOTP enrollment wizard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	alertentity "github.com/shandysiswandi/iamportal/internal/alert/entity"
	"github.com/shandysiswandi/iamportal/internal/enrollment/entity"
	"github.com/shandysiswandi/iamportal/internal/enrollment/usecase"
	"github.com/shandysiswandi/iamportal/internal/pkg/goerror"
	"github.com/shandysiswandi/iamportal/internal/pkg/otp"
)

const maxToasts = 3

type wizard interface {
	Open(ctx context.Context, in usecase.OpenInput) (*usecase.StateOutput, error)
	Refresh(ctx context.Context, in usecase.RefreshInput) (*usecase.StateOutput, error)
	PinInput(ctx context.Context, in usecase.PinInputInput) (*usecase.StateOutput, error)
	PinKey(ctx context.Context, in usecase.PinKeyInput) (*usecase.StateOutput, error)
	Submit(ctx context.Context, in usecase.SubmitInput) (*usecase.StateOutput, error)
	Close(ctx context.Context, in usecase.CloseInput) (*usecase.StateOutput, error)
}

type translator interface {
	T(lang, key string) string
}

type Config struct {
	// Ctx carries the authenticated claims of the enrolling user.
	Ctx        context.Context
	Wizard     wizard
	Alerts     <-chan alertentity.Event
	Translator translator
	Lang       string
	// Code, when set, is submitted as soon as the wizard is open.
	Code string
}

type op string

const (
	opOpen    op = "open"
	opRefresh op = "refresh"
	opSubmit  op = "submit"
	opClose   op = "close"
)

type stateMsg struct {
	op  op
	out *usecase.StateOutput
	err error
}

type alertMsg struct {
	evt alertentity.Event
}

type toast struct {
	severity alertentity.Severity
	text     string
}

// Model is the bubbletea model of the wizard.
type Model struct {
	ctx     context.Context
	wizard  wizard
	alerts  <-chan alertentity.Event
	trans   translator
	lang    string
	prefill string

	state   entity.SessionState
	cursor  int
	qr      string
	busy    bool
	err     string
	toasts  []toast
	spinner spinner.Model

	verified bool
	quitting bool
}

func New(cfg Config) Model {
	ctx := cfg.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return Model{
		ctx:     ctx,
		wizard:  cfg.Wizard,
		alerts:  cfg.Alerts,
		trans:   cfg.Translator,
		lang:    cfg.Lang,
		prefill: cfg.Code,
		spinner: sp,
		busy:    true,
	}
}

// Verified reports whether the enrollment finished successfully.
func (m Model) Verified() bool { return m.verified }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.call(opOpen, ""), m.waitAlert())
}

func (m Model) call(o op, code string) tea.Cmd {
	return func() tea.Msg {
		var (
			out *usecase.StateOutput
			err error
		)
		switch o {
		case opOpen:
			out, err = m.wizard.Open(m.ctx, usecase.OpenInput{})
		case opRefresh:
			out, err = m.wizard.Refresh(m.ctx, usecase.RefreshInput{})
		case opSubmit:
			out, err = m.wizard.Submit(m.ctx, usecase.SubmitInput{Code: code})
		case opClose:
			out, err = m.wizard.Close(m.ctx, usecase.CloseInput{})
		}
		return stateMsg{op: o, out: out, err: err}
	}
}

func (m Model) waitAlert() tea.Cmd {
	if m.alerts == nil {
		return nil
	}
	return func() tea.Msg {
		evt, ok := <-m.alerts
		if !ok {
			return nil
		}
		return alertMsg{evt: evt}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		return m.handleState(msg)

	case alertMsg:
		m.toasts = append(m.toasts, toast{
			severity: msg.evt.Severity,
			text:     m.translate(msg.evt.TitleKey) + ": " + m.translate(msg.evt.BodyKey),
		})
		if len(m.toasts) > maxToasts {
			m.toasts = m.toasts[len(m.toasts)-maxToasts:]
		}
		return m, m.waitAlert()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		return m, m.call(opClose, "")
	}

	if m.busy {
		return m, nil
	}
	if m.verified {
		if msg.Type == tea.KeyEnter {
			m.quitting = true
			return m, m.call(opClose, "")
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		return m.startCall(opSubmit, "")
	case tea.KeyCtrlR:
		return m.startCall(opRefresh, "")
	case tea.KeyLeft, tea.KeyShiftTab:
		m.cursor = max(m.cursor-1, 0)
		return m, nil
	case tea.KeyRight, tea.KeyTab:
		m.cursor = min(m.cursor+1, entity.PinLength-1)
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		out, err := m.wizard.PinKey(m.ctx, usecase.PinKeyInput{Index: m.cursor, Key: "Backspace"})
		return m.applyLocal(out, err), nil
	case tea.KeyRunes:
		digits := string(msg.Runes)
		if len(digits) == entity.PinLength {
			// pasted code
			return m.startCall(opSubmit, digits)
		}
		if len(digits) != 1 {
			return m, nil
		}
		out, err := m.wizard.PinInput(m.ctx, usecase.PinInputInput{Index: m.cursor, Value: digits})
		return m.applyLocal(out, err), nil
	}

	return m, nil
}

func (m Model) startCall(o op, code string) (tea.Model, tea.Cmd) {
	m.busy = true
	m.err = ""
	return m, tea.Batch(m.spinner.Tick, m.call(o, code))
}

func (m Model) applyLocal(out *usecase.StateOutput, err error) Model {
	if err != nil {
		m.err = errorText(err)
		return m
	}
	m.err = ""
	m.setState(out.SessionState)
	return m
}

func (m Model) handleState(msg stateMsg) (tea.Model, tea.Cmd) {
	m.busy = false

	if msg.op == opClose {
		return m, tea.Quit
	}
	if msg.err != nil {
		m.err = errorText(msg.err)
		if msg.op == opOpen {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m.err = ""
	m.setState(msg.out.SessionState)
	m.verified = msg.out.Phase == entity.PhaseVerified

	if msg.op == opOpen && m.prefill != "" {
		code := m.prefill
		m.prefill = ""
		return m.startCall(opSubmit, code)
	}
	return m, nil
}

func (m *Model) setState(st entity.SessionState) {
	if st.ScannableCode != "" && st.ScannableCode != m.state.ScannableCode {
		qr, err := otp.Terminal(st.ScannableCode)
		if err != nil {
			qr = st.ScannableCode
		}
		m.qr = qr
	}
	m.state = st
	m.cursor = st.Focus
}

func (m Model) translate(key string) string {
	if m.trans == nil || key == "" {
		return key
	}
	return m.trans.T(m.lang, key)
}

func errorText(err error) string {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		return err.Error()
	}

	fields := gerr.Fields()
	if len(fields) == 0 {
		return gerr.Msg()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fields[k])
	}
	return gerr.Msg() + ": " + strings.Join(parts, ", ")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Set up an authenticator app"))
	b.WriteString("\n")

	switch {
	case m.verified:
		b.WriteString(doneStyle.Render("✓ Authenticator verified"))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: finish"))
		b.WriteString(m.viewToasts())
		return b.String()
	case m.qr == "":
		b.WriteString(m.spinner.View() + " Preparing your secret...\n")
		b.WriteString(m.viewError())
		b.WriteString(m.viewToasts())
		return b.String()
	}

	b.WriteString("Scan this code with your authenticator app:\n\n")
	b.WriteString(m.qr)
	b.WriteString("\n")
	b.WriteString(m.viewCells())
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " Working...\n")
	}
	if m.state.LastError != "" {
		b.WriteString(errorStyle.Render(m.translate(m.state.LastError)))
		b.WriteString("\n")
	}
	b.WriteString(m.viewError())
	b.WriteString(helpStyle.Render("digits: enter code • ←/→: move • enter: verify • ctrl+r: new code • esc: cancel"))
	b.WriteString(m.viewToasts())

	return b.String()
}

func (m Model) viewCells() string {
	cells := make([]string, entity.PinLength)
	for i, v := range m.state.Cells {
		style := cellStyle
		if i == m.cursor {
			style = focusedCellStyle
		}
		if v == "" {
			v = " "
		}
		cells[i] = style.Render(v)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m Model) viewError() string {
	if m.err == "" {
		return ""
	}
	return errorStyle.Render(m.err) + "\n"
}

func (m Model) viewToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}

	lines := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		color := colorInfo
		switch t.severity {
		case alertentity.SeveritySuccess:
			color = colorSuccess
		case alertentity.SeverityError:
			color = colorError
		}
		lines = append(lines, toastStyle.BorderForeground(color).Render(t.text))
	}
	return "\n\n" + lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Run starts the wizard and blocks until the user leaves it.
func Run(cfg Config, opts ...tea.ProgramOption) (bool, error) {
	final, err := tea.NewProgram(New(cfg), opts...).Run()
	if err != nil {
		return false, fmt.Errorf("tui: %w", err)
	}
	m, ok := final.(Model)
	return ok && m.Verified(), nil
}
