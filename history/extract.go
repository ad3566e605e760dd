package history

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Extractor pulls the caller's value out of an executed get_transaction body.
type Extractor func(body []byte) (string, error)

// ErrFieldNotFound is returned by extractors when the body lacks the value.
var ErrFieldNotFound = errors.New("field not found")

type transactionBody struct {
	Executed bool              `json:"executed"`
	Actions  []json.RawMessage `json:"actions"`
}

type actionData struct {
	Act struct {
		Data map[string]json.RawMessage `json:"data"`
	} `json:"act"`
}

// LinkIDExtractor reads the claim link id logged by atomictoolsx. The
// lognewlink action normally sits at index 1; any other action carrying
// act.data.link_id is accepted as a fallback.
func LinkIDExtractor(body []byte) (string, error) {
	var tx transactionBody
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", err
	}
	if len(tx.Actions) > 1 {
		if id, ok := linkIDOf(tx.Actions[1]); ok {
			return id, nil
		}
	}
	for _, raw := range tx.Actions {
		if id, ok := linkIDOf(raw); ok {
			return id, nil
		}
	}
	return "", ErrFieldNotFound
}

func linkIDOf(raw json.RawMessage) (string, bool) {
	var a actionData
	if err := json.Unmarshal(raw, &a); err != nil {
		return "", false
	}
	v, ok := a.Act.Data["link_id"]
	if !ok {
		return "", false
	}
	s := Scalar(v)
	return s, s != ""
}

// FindField searches a JSON document depth first for the first object key
// named key with a scalar value, and returns that value as text.
func FindField(body []byte, key string) (string, bool) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", false
	}
	return findField(doc, key)
}

func findField(node any, key string) (string, bool) {
	switch v := node.(type) {
	case map[string]any:
		if val, ok := v[key]; ok {
			switch s := val.(type) {
			case string:
				if s != "" {
					return s, true
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64), true
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := findField(v[k], key); ok {
				return s, true
			}
		}
	case []any:
		for _, child := range v {
			if s, ok := findField(child, key); ok {
				return s, true
			}
		}
	}
	return "", false
}

// Scalar renders a JSON string or number as plain text. Anything else is "".
func Scalar(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if s[0] == '"' {
		var out string
		if err := json.Unmarshal(raw, &out); err != nil {
			return ""
		}
		return strings.TrimSpace(out)
	}
	if s[0] == '{' || s[0] == '[' || s == "true" || s == "false" {
		return ""
	}
	return s
}
