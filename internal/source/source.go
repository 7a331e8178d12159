// Package source reads light program documents.
//
// A program is a JSON object with a name and an instructions list. Each list
// element is either an instruction string, or an object whose keys are
// entries in document order: "instruction" holding a string, "repeat"
// holding {"times": n, "instructions": [...]}.
package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

const (
	KeyName         = "name"
	KeyInstructions = "instructions"
	KeyInstruction  = "instruction"
	KeyRepeat       = "repeat"
	KeyTimes        = "times"
)

var (
	ErrTooBig    = errors.New("source: program too big")
	ErrMalformed = errors.New("source: malformed program")
	ErrNotList   = errors.New("source: instructions is not a list")
)

// Document is the top level of a program. Fields are nil when absent.
type Document struct {
	Name         json.RawMessage
	Instructions json.RawMessage
}

// Parse checks text against the size budget and splits out the mandatory
// fields. limit <= 0 disables the budget.
func Parse(text string, limit int) (Document, error) {
	if limit > 0 && len(text) > limit {
		return Document{}, fmt.Errorf("%w: %d bytes, budget %d", ErrTooBig, len(text), limit)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Document{Name: top[KeyName], Instructions: top[KeyInstructions]}, nil
}

// Field is one entry of an instructions list. Key is empty when the list
// element was neither a string nor an object.
type Field struct {
	Key   string
	Value json.RawMessage
}

// Fields returns the entries of an instructions list in document order.
func Fields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('[') {
		return nil, ErrNotList
	}
	var out []Field
	for dec.More() {
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		switch leading(elem) {
		case '"':
			out = append(out, Field{Key: KeyInstruction, Value: elem})
		case '{':
			fs, err := objectFields(elem)
			if err != nil {
				return nil, err
			}
			if len(fs) == 0 {
				// an empty object is an entry, just not a valid one
				out = append(out, Field{Value: elem})
				continue
			}
			out = append(out, fs...)
		default:
			out = append(out, Field{Value: elem})
		}
	}
	return out, nil
}

func objectFields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var out []Field
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if tok == json.Delim('}') {
			break
		}
		key, ok := tok.(string)
		if !ok {
			return nil, ErrMalformed
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		out = append(out, Field{Key: key, Value: v})
	}
	return out, nil
}

// Loop is the body of a repeat entry.
type Loop struct {
	Times        json.RawMessage
	Instructions json.RawMessage
}

func DecodeLoop(raw json.RawMessage) (Loop, error) {
	if leading(raw) != '{' {
		return Loop{}, ErrMalformed
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return Loop{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Loop{Times: m[KeyTimes], Instructions: m[KeyInstructions]}, nil
}

// DecodeString returns the JSON string in raw.
func DecodeString(raw json.RawMessage) (string, bool) {
	if leading(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// DecodeInt returns the JSON number in raw when it is an integer.
func DecodeInt(raw json.RawMessage) (int, bool) {
	s := string(bytes.TrimSpace(raw))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsEmpty reports whether raw is absent or null.
func IsEmpty(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) == 0 || string(s) == "null"
}

func leading(raw json.RawMessage) byte {
	s := bytes.TrimSpace(raw)
	if len(s) == 0 {
		return 0
	}
	return s[0]
}
