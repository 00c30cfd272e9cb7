package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/neurolens/neurolens/internal/cli/formatter"
	"github.com/neurolens/neurolens/internal/session"
)

// chromeHeight is the number of rows outside the transcript viewport:
// title, status, notice, input and key hints.
const chromeHeight = 6

type (
	snapshotMsg    struct{ snap session.Snapshot }
	subClosedMsg   struct{}
	turnDoneMsg    struct{ err error }
	initDoneMsg    struct{}
	commandDoneMsg struct {
		res slashResult
		err error
	}
)

// chatView is the interactive chat screen. It renders session snapshots
// and turns key presses into session calls run as Cmds.
type chatView struct {
	ctx   context.Context
	sess  chatSession
	subs  <-chan session.Snapshot
	unsub func()
	snap  session.Snapshot

	input   textinput.Model
	vp      viewport.Model
	spin    spinner.Model
	bar     progress.Model
	md      *formatter.Markdown
	keys    chatKeys
	help    help.Model
	notice  string
	ready   bool
	width   int
	running bool // a slash command is in flight
}

type chatKeys struct {
	Quit   key.Binding
	Send   key.Binding
	Scroll key.Binding
}

func defaultChatKeys() chatKeys {
	return chatKeys{
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		Send:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Scroll: key.NewBinding(key.WithKeys("pgup", "pgdown", "up", "down"), key.WithHelp("↑/↓", "scroll")),
	}
}

func newChatView(ctx context.Context, sess chatSession, md *formatter.Markdown) *chatView {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.Placeholder = "How are you feeling? (/help for commands)"
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: formatter.SpinnerFrames, FPS: formatter.SpinnerInterval}
	sp.Style = formatter.StylePurple

	vp := viewport.New(0, 0)
	vp.KeyMap = chatViewportKeyMap()

	subs, unsub := sess.Subscribe()
	return &chatView{
		ctx:   ctx,
		sess:  sess,
		subs:  subs,
		unsub: unsub,
		snap:  sess.Snapshot(),
		input: ti,
		vp:    vp,
		spin:  sp,
		bar:   progress.New(progress.WithGradient(string(formatter.ColorBlue), string(formatter.ColorGreen)), progress.WithWidth(40)),
		md:    md,
		keys:  defaultChatKeys(),
		help:  help.New(),
	}
}

// chatViewportKeyMap restricts scrolling to arrow and page keys so letters
// reach the text input.
func chatViewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}

// waitForSnapshot blocks until the session publishes.
func waitForSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return subClosedMsg{}
		}
		return snapshotMsg{snap: snap}
	}
}

func (v *chatView) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		v.spin.Tick,
		waitForSnapshot(v.subs),
		func() tea.Msg {
			_ = v.sess.Init(v.ctx)
			return initDoneMsg{}
		},
	)
}

func (v *chatView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.vp.Width = msg.Width
		v.vp.Height = max(3, msg.Height-chromeHeight)
		v.input.Width = max(10, msg.Width-4)
		v.bar.Width = min(40, max(10, msg.Width-20))
		v.help.Width = msg.Width
		v.ready = true
		v.refresh()
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case snapshotMsg:
		v.snap = msg.snap
		v.refresh()
		return v, waitForSnapshot(v.subs)

	case subClosedMsg:
		return v, nil

	case initDoneMsg:
		v.snap = v.sess.Snapshot()
		v.refresh()
		return v, nil

	case turnDoneMsg:
		v.snap = v.sess.Snapshot()
		if errors.Is(msg.err, session.ErrBusy) {
			v.notice = "Still thinking about the last message..."
		}
		v.refresh()
		return v, nil

	case commandDoneMsg:
		v.running = false
		v.snap = v.sess.Snapshot()
		if msg.err != nil {
			v.notice = msg.err.Error()
		} else {
			v.notice = msg.res.notice
		}
		v.refresh()
		if msg.res.quit {
			return v, v.quit()
		}
		return v, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, v.quit()

	case key.Matches(msg, v.keys.Send):
		text := strings.TrimSpace(v.input.Value())
		v.input.Reset()
		if text == "" {
			return v, nil
		}
		return v, v.submit(text)

	case key.Matches(msg, v.keys.Scroll):
		var cmd tea.Cmd
		v.vp, cmd = v.vp.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *chatView) submit(text string) tea.Cmd {
	v.notice = ""
	if isSlash(text) {
		if v.running {
			v.notice = "A command is already running"
			return nil
		}
		v.running = true
		return func() tea.Msg {
			res, err := runSlash(v.ctx, v.sess, text)
			return commandDoneMsg{res: res, err: err}
		}
	}
	if v.snap.Loading {
		v.notice = "Still thinking about the last message..."
		return nil
	}
	return func() tea.Msg {
		return turnDoneMsg{err: v.sess.SendMessage(v.ctx, text)}
	}
}

func (v *chatView) quit() tea.Cmd {
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
	return tea.Quit
}

func (v *chatView) refresh() {
	if !v.ready {
		return
	}
	v.vp.SetContent(formatter.FormatTranscript(v.snap.Messages, v.md, max(20, v.width-2)))
	v.vp.GotoBottom()
}

var titleStyle = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)

func (v *chatView) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NeuroLens"))
	b.WriteString(formatter.Dim("  " + sourceLabel(v.snap)))
	if v.snap.RemoteURL != "" {
		dot := formatter.StyleRed.Render("●")
		if v.snap.RemoteConnected {
			dot = formatter.StyleGreen.Render("●")
		}
		b.WriteString(formatter.Dim("  remote ") + dot)
	}
	b.WriteString("\n")

	if v.ready {
		b.WriteString(v.vp.View())
	} else {
		b.WriteString(formatter.FormatTranscript(v.snap.Messages, v.md, 80))
	}
	b.WriteString("\n")

	switch {
	case v.snap.DownloadProgress != nil:
		b.WriteString(v.bar.ViewAs(*v.snap.DownloadProgress) + " ")
		b.WriteString(formatter.Dim(v.snap.Status))
	case v.snap.Loading || v.running:
		b.WriteString(v.spin.View() + " " + formatter.Dim(v.snap.Status))
	default:
		b.WriteString(formatter.Dim(v.snap.Status))
	}
	b.WriteString("\n")

	if v.notice != "" {
		b.WriteString(formatter.StyleYellow.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString(formatter.StylePurple.Render("› "))
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.help.ShortHelpView(v.ShortHelp()))
	return b.String()
}

// ShortHelp returns the key hints shown under the input.
func (v *chatView) ShortHelp() []key.Binding {
	return []key.Binding{v.keys.Send, v.keys.Scroll, v.keys.Quit}
}
