package fetch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spiffcs/prwatch/internal/log"
)

// ParseError reports a gh payload that could not be decoded.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeList decodes a JSON array. An empty body or null is an empty list.
func DecodeList[T any](what string, data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{What: what, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// DecodePages decodes the output of `gh api --paginate --slurp`, an array of
// page arrays, into one list in page order.
func DecodePages[T any](what string, data []byte) ([]T, error) {
	pages, err := DecodeList[[]T](what, data)
	if err != nil {
		return nil, err
	}
	out := []T{}
	for _, page := range pages {
		out = append(out, page...)
	}
	return out, nil
}

// DecodeObject decodes a single JSON object.
func DecodeObject[T any](what string, data []byte) (*T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &ParseError{What: what, Err: fmt.Errorf("empty response")}
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{What: what, Err: err}
	}
	return &out, nil
}

// DecodeLines decodes newline-delimited JSON. Lines that fail to decode are
// dropped.
func DecodeLines[T any](what string, data []byte) []T {
	out := []T{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	dropped := 0
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var v T
		if err := json.Unmarshal(line, &v); err != nil {
			dropped++
			continue
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		log.Debug("stopped reading payload", "what", what, "error", err)
	}
	if dropped > 0 {
		log.Debug("dropped malformed lines", "what", what, "count", dropped)
	}
	return out
}
