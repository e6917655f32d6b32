package intake

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a tagged union holding a typed answer. Kind decides which
// payload field is meaningful: Number for number questions, Text for
// text and single-select, List for multi-select, Bool for toggles.
type Value struct {
	Kind   QuestionType `json:"kind"`
	Number float64      `json:"number,omitempty"`
	Text   string       `json:"text,omitempty"`
	List   []string     `json:"list,omitempty"`
	Bool   bool         `json:"bool,omitempty"`
}

// NumberValue builds a number answer.
func NumberValue(n float64) Value { return Value{Kind: TypeNumber, Number: n} }

// TextValue builds a free-text answer.
func TextValue(s string) Value { return Value{Kind: TypeText, Text: s} }

// MultiValue builds a multi-select answer.
func MultiValue(items []string) Value { return Value{Kind: TypeMulti, List: items} }

// SingleValue builds a single-select answer.
func SingleValue(s string) Value { return Value{Kind: TypeSingle, Text: s} }

// ToggleValue builds a yes/no answer.
func ToggleValue(b bool) Value { return Value{Kind: TypeToggle, Bool: b} }

// EmptyValue returns the pending-input seed for a question type:
// an empty set for multi-select, false for toggles, and an empty
// scalar otherwise.
func EmptyValue(t QuestionType) Value {
	return Value{Kind: t}
}

// Format renders a value for the transcript: lists joined by comma,
// booleans as Yes/No, scalars as-is.
func (v Value) Format() string {
	switch v.Kind {
	case TypeMulti:
		return strings.Join(v.List, ", ")
	case TypeToggle:
		if v.Bool {
			return "Yes"
		}
		return "No"
	case TypeNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return v.Text
	}
}

// ParseValue converts raw user text into a typed Value for the given
// question. It only checks that the text is parseable for the type;
// option membership and non-emptiness are the session's concern.
func ParseValue(q Question, raw string) (Value, error) {
	switch q.Type {
	case TypeNumber:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return Value{}, &ValidationError{QuestionID: q.ID, Reason: "a number is required"}
		}
		n, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, &ValidationError{QuestionID: q.ID, Reason: fmt.Sprintf("%q is not a number", trimmed)}
		}
		return NumberValue(n), nil
	case TypeText:
		return TextValue(raw), nil
	case TypeMulti:
		return MultiValue(SplitList(raw)), nil
	case TypeSingle:
		return SingleValue(strings.TrimSpace(raw)), nil
	case TypeToggle:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "yes", "y", "true":
			return ToggleValue(true), nil
		case "no", "n", "false":
			return ToggleValue(false), nil
		default:
			return Value{}, &ValidationError{QuestionID: q.ID, Reason: "please answer Yes or No"}
		}
	default:
		return Value{}, &ValidationError{QuestionID: q.ID, Reason: fmt.Sprintf("unknown question type %q", q.Type)}
	}
}

// SplitList splits comma-separated text into trimmed, non-empty tokens.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
