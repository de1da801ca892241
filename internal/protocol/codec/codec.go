package codec

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/palemoky/session-relay/internal/apperrors"
	"github.com/palemoky/session-relay/internal/protocol"
)

var errNotObject = errors.New("message must be a JSON object")

// Decode parses one inbound frame
func Decode(data []byte) (*protocol.Message, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errNotObject
	}

	var msg protocol.Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Encode serializes an outbound payload into a text frame
func Encode(v any) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encoder appends a newline; the frame itself is the delimiter
	out := bytes.TrimRight(buf.Bytes(), "\n")
	frame := make([]byte, len(out))
	copy(frame, out)
	return frame, nil
}

// MustEncode serializes a payload, panics on failure
func MustEncode(v any) []byte {
	data, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return data
}

// ErrorFor maps an error to the error notice sent to the client
func ErrorFor(err error) protocol.ErrorPayload {
	var relayErr *apperrors.RelayError
	if errors.As(err, &relayErr) {
		return protocol.NewErrorWithText(relayErr.Code, relayErr.Message)
	}
	return protocol.NewErrorWithText(protocol.ErrCodeUnknown, err.Error())
}
