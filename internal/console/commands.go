// Package console is a terminal client for poking at a running relay by hand.
package console

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/palemoky/session-relay/internal/protocol"
	"github.com/palemoky/session-relay/internal/protocol/codec"
)

var (
	errEmptyCommand   = errors.New("empty command")
	errNoSession      = errors.New("no session: pass a session id or create/join one first")
	errInvalidRawJSON = errors.New("raw expects a JSON object")
)

// HelpText lists the console commands
const HelpText = `commands:
  create [map_layout]      create a session
  join <session_id>        join a session
  start [session_id]       start a session
  leave [session_id]       leave a session
  act <move_data>          relay an action to the other members
  ping                     measure round trip
  raw <json>               send a raw frame
  help                     show this help
  quit                     exit`

// Command one parsed console line
type Command struct {
	Name  string
	Frame []byte // nil for local commands (help, quit)
}

// ParseCommand turns a console line into a wire frame. Arguments that are
// valid JSON are sent as-is, anything else as a JSON string. session is the
// current session, used when a command omits its session id.
func ParseCommand(line string, player protocol.PlayerID, session string, nowMS int64) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, errEmptyCommand
	}

	name, rest, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	msg := protocol.Message{PlayerID: player}
	switch name {
	case "help", "quit", "exit":
		return Command{Name: name}, nil

	case "create":
		msg.Type = protocol.MsgCreateSession
		if rest != "" {
			msg.MapLayout = jsonArg(rest)
		}

	case "join":
		if rest == "" {
			return Command{}, fmt.Errorf("join: %w", errNoSession)
		}
		msg.Type = protocol.MsgJoinSession
		msg.SessionID = rest

	case "start", "leave":
		msg.Type = protocol.MsgStartSession
		if name == "leave" {
			msg.Type = protocol.MsgLeaveSession
		}
		msg.SessionID = firstNonEmpty(rest, session)
		if msg.SessionID == "" {
			return Command{}, fmt.Errorf("%s: %w", name, errNoSession)
		}

	case "act", "move":
		if session == "" {
			return Command{}, fmt.Errorf("%s: %w", name, errNoSession)
		}
		msg.Type = protocol.MsgPlayerAction
		msg.SessionID = session
		msg.MoveData = jsonArg(rest)

	case "ping":
		msg.Type = protocol.MsgPing
		msg.Timestamp = nowMS

	case "raw":
		trimmed := strings.TrimSpace(rest)
		if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
			return Command{}, errInvalidRawJSON
		}
		return Command{Name: name, Frame: []byte(trimmed)}, nil

	default:
		return Command{}, fmt.Errorf("unknown command %q, type help", name)
	}

	frame, err := codec.Encode(msg)
	if err != nil {
		return Command{}, err
	}
	return Command{Name: name, Frame: frame}, nil
}

// jsonArg keeps valid JSON literals and quotes everything else
func jsonArg(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("null")
	}
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
