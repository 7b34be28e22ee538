package recipient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformedInput indicates the recipient source is not one of the
// supported JSON shapes.
var ErrMalformedInput = errors.New("malformed recipient input")

// containerKeys are the recognized wrapper keys for the object form, in
// priority order.
var containerKeys = []string{"items", "results", "data"}

// LoadFile reads a recipient JSON file and returns its records in source
// order.
func LoadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipient file: %w", err)
	}
	defer f.Close()

	recs, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Load parses recipient JSON. The top-level value must be an array of
// objects, or an object whose first present key among "items", "results",
// "data" holds an array of objects.
func Load(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipient input: %w", err)
	}

	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedInput)
	}

	switch trimmed[0] {
	case '[':
		return parseArray(raw)
	case '{':
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		for _, key := range containerKeys {
			inner, ok := wrapper[key]
			if !ok {
				continue
			}
			recs, err := parseArray(inner)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", key, err)
			}
			return recs, nil
		}
		return nil, fmt.Errorf("%w: object has none of the container keys items/results/data", ErrMalformedInput)
	default:
		return nil, fmt.Errorf("%w: top-level value is neither array nor object", ErrMalformedInput)
	}
}

// parseArray decodes an array of objects into records, preserving field
// order within each object. encoding/json's map decoding drops key order,
// so records are built from the token stream instead.
func parseArray(raw []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: expected an array of objects", ErrMalformedInput)
	}

	var recs []Record
	for dec.More() {
		rec, err := parseObject(dec)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", len(recs), err)
		}
		recs = append(recs, rec)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return recs, nil
}

func parseObject(dec *json.Decoder) (Record, error) {
	tok, err := dec.Token()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return Record{}, fmt.Errorf("%w: list element is not an object", ErrMalformedInput)
	}

	var rec Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		key := keyTok.(string)

		val, err := parseValue(dec)
		if err != nil {
			return Record{}, err
		}
		rec.fields = append(rec.fields, Field{Name: key, Value: val})
	}

	// Consume the closing brace
	if _, err := dec.Token(); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return rec, nil
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}

	switch delim {
	case '{':
		m := make(map[string]any)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
			}
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			m[keyTok.(string)] = val
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		return m, nil
	case '[':
		var s []any
		for dec.More() {
			val, err := parseValue(dec)
			if err != nil {
				return nil, err
			}
			s = append(s, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: unexpected token %v", ErrMalformedInput, delim)
	}
}
