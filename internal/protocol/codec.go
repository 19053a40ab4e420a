package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrParse marks input that is not valid JSON.
	ErrParse = errors.New("parse error")
	// ErrInvalidRequest marks valid JSON that is not a request object.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidParams marks params that are present but not an object of the expected shape.
	ErrInvalidParams = errors.New("invalid params")
)

// wireRequest keeps every member raw so one badly typed field does not hide
// the id from the error response.
type wireRequest struct {
	JSONRPC json.RawMessage `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  json.RawMessage `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// DecodeRequest parses one input line. A null id is normalized to absent. A
// method that is not a string is kept as its JSON text, so it dispatches as
// an unknown method and the id is still echoed. The jsonrpc marker is not
// checked.
func DecodeRequest(line []byte) (*Request, error) {
	if !json.Valid(line) {
		return nil, ErrParse
	}

	var wire wireRequest
	if err := json.Unmarshal(line, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	req := &Request{Params: wire.Params}
	if !isNull(wire.ID) {
		if !isValidID(wire.ID) {
			return nil, fmt.Errorf("%w: id must be a string or number, got %s", ErrInvalidRequest, wire.ID)
		}
		req.ID = wire.ID
	}
	if method, ok := rawString(wire.Method); ok {
		req.Method = method
	} else if !isNull(wire.Method) {
		req.Method = string(wire.Method)
	}
	req.JSONRPC, _ = rawString(wire.JSONRPC)
	return req, nil
}

func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func isValidID(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	c := trimmed[0]
	return c == '"' || c == '-' || (c >= '0' && c <= '9')
}

// DecodeParams unmarshals raw params into v. Absent or null params leave v untouched.
func DecodeParams(raw json.RawMessage, v any) error {
	if isNull(raw) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

// EncodeResponse serializes resp as a single line and writes it to w in one call.
func EncodeResponse(w io.Writer, resp *Response) error {
	if resp.JSONRPC == "" {
		resp.JSONRPC = Version
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// MarshalText renders v as indented JSON without HTML escaping, for tool
// result payloads that are embedded as text.
func MarshalText(v any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
