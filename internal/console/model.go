package console

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/session-relay/internal/protocol"
)

// maxLines 日志保留行数
const maxLines = 500

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	sentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	recvStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Conn 模型依赖的连接
type Conn interface {
	Connect() error
	Send(frame []byte) error
	Incoming() <-chan Frame
	Close()
}

type (
	connectedMsg struct{}
	connErrorMsg struct{ err error }
	frameMsg     struct{ frame Frame }
	closedMsg    struct{}
)

// Model 控制台 bubbletea 模型
type Model struct {
	conn   Conn
	player protocol.PlayerID
	url    string

	session   string // 最近一次 create/join 的会话
	connected bool
	latency   int64
	err       string
	lines     []string

	input    textinput.Model
	viewport viewport.Model
	now      func() time.Time
}

// NewModel 创建控制台模型
func NewModel(conn Conn, url string, player protocol.PlayerID) *Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, help for the list"
	ti.CharLimit = 4096
	ti.Width = 60
	ti.Focus()

	return &Model{
		conn:     conn,
		player:   player,
		url:      url,
		input:    ti,
		viewport: viewport.New(80, 20),
		now:      time.Now,
	}
}

// Session 当前会话
func (m *Model) Session() string {
	return m.session
}

// Lines 日志行
func (m *Model) Lines() []string {
	return m.lines
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.connect(), textinput.Blink)
}

func (m *Model) connect() tea.Cmd {
	return func() tea.Msg {
		if err := m.conn.Connect(); err != nil {
			return connErrorMsg{err: err}
		}
		return connectedMsg{}
	}
}

func (m *Model) listen() tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-m.conn.Incoming()
		if !ok {
			return closedMsg{}
		}
		return frameMsg{frame: frame}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.input.Width = max(msg.Width-4, 10)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.conn.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			if cmd := m.submit(); cmd != nil {
				return m, cmd
			}
		}

	case connectedMsg:
		m.connected = true
		m.err = ""
		m.appendLine(noticeStyle.Render("connected to " + m.url))
		cmds = append(cmds, m.listen())

	case connErrorMsg:
		m.err = fmt.Sprintf("cannot connect: %v (esc to quit)", msg.err)

	case frameMsg:
		m.handleFrame(msg.frame)
		cmds = append(cmds, m.listen())

	case closedMsg:
		m.connected = false
		m.err = "connection closed by server (esc to quit)"
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit 解析并发送输入行
func (m *Model) submit() tea.Cmd {
	line := m.input.Value()
	m.input.SetValue("")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	cmd, err := ParseCommand(line, m.player, m.session, m.now().UnixMilli())
	if err != nil {
		m.err = err.Error()
		return nil
	}
	m.err = ""

	switch cmd.Name {
	case "help":
		m.appendLine(noticeStyle.Render(HelpText))
		return nil
	case "quit", "exit":
		m.conn.Close()
		return tea.Quit
	}

	if err := m.conn.Send(cmd.Frame); err != nil {
		m.err = fmt.Sprintf("send failed: %v", err)
		return nil
	}
	m.appendLine(sentStyle.Render("→ " + string(cmd.Frame)))
	return nil
}

// handleFrame 记录服务器帧，跟踪当前会话与延迟
func (m *Model) handleFrame(frame Frame) {
	var body struct {
		SessionID       string `json:"session_id"`
		ClientTimestamp int64  `json:"client_timestamp"`
		Message         string `json:"message"`
	}
	_ = json.Unmarshal(frame.Raw, &body)

	switch protocol.OutboundType(frame.Type) {
	case protocol.OutSessionState:
		if body.SessionID != "" {
			m.session = body.SessionID
		}
	case protocol.OutSessionLeft:
		if body.SessionID == m.session {
			m.session = ""
		}
	case protocol.OutPong:
		m.latency = m.now().UnixMilli() - body.ClientTimestamp
	case protocol.OutError:
		m.appendLine(errorStyle.Render("← " + string(frame.Raw)))
		return
	}

	m.appendLine(recvStyle.Render("← " + string(frame.Raw)))
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	var b strings.Builder

	status := "disconnected"
	if m.connected {
		status = "connected"
	}
	session := m.session
	if session == "" {
		session = "-"
	}
	b.WriteString(titleStyle.Render("session relay console"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  player %s | session %s | %s | %dms",
		m.player.String(), session, status, m.latency)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}
