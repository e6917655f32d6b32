package intake

import (
	"encoding/json"
	"fmt"
)

// Stage is the lifecycle state of a session.
type Stage string

const (
	StageAsking     Stage = "asking"
	StageFinalizing Stage = "finalizing"
	StageDone       Stage = "done"
)

// Speaker identifies who wrote a transcript entry.
type Speaker string

const (
	SpeakerAssistant Speaker = "assistant"
	SpeakerUser      Speaker = "user"
)

// Entry is one line of the transcript for the current question.
type Entry struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// ackMessages are the assistant acknowledgments appended after a valid
// answer. The choice carries no meaning; it is picked deterministically
// so transitions stay pure.
var ackMessages = []string{"Got it!", "Thanks!", "Okay!"}

// AckFor returns the acknowledgment message used after the nth
// recorded answer. Surfaces that speak for the assistant use it to
// match the transcript's rotation.
func AckFor(answerCount int) string {
	return ackMessages[answerCount%len(ackMessages)]
}

// ValidationError reports an answer that fails the current question's
// type constraint. The session is left unchanged.
type ValidationError struct {
	QuestionID string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer for %s: %s", e.QuestionID, e.Reason)
}

// Session is the conversation state. Treat it as an immutable value:
// Submit, Back and Finalize return new sessions and never mutate the
// receiver. The exported fields exist for serialization and inspection
// only.
type Session struct {
	catalog []Question

	Stage      Stage            `json:"stage"`
	Index      int              `json:"index"`
	Answers    map[string]Value `json:"answers"`
	Transcript []Entry          `json:"transcript"`
	Pending    Value            `json:"pending"`
}

// NewSession starts a session at the first question with an empty
// answer map and a transcript holding only that question's prompt.
func NewSession(catalog []Question) Session {
	first := catalog[0]
	return Session{
		catalog:    catalog,
		Stage:      StageAsking,
		Index:      0,
		Answers:    map[string]Value{},
		Transcript: []Entry{{Speaker: SpeakerAssistant, Text: first.Prompt}},
		Pending:    EmptyValue(first.Type),
	}
}

// Restore rebuilds a session from a JSON snapshot produced by
// json.Marshal on a Session. The catalog is not part of the snapshot
// and must be supplied by the caller.
func Restore(catalog []Question, data []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("failed to decode session snapshot: %w", err)
	}
	if s.Index < 0 || s.Index >= len(catalog) {
		return Session{}, fmt.Errorf("session index %d out of range for catalog of %d questions", s.Index, len(catalog))
	}
	if s.Answers == nil {
		s.Answers = map[string]Value{}
	}
	s.catalog = catalog
	return s, nil
}

// Question returns the question the session is currently asking.
func (s Session) Question() Question {
	return s.catalog[s.Index]
}

// Total returns the catalog length.
func (s Session) Total() int {
	return len(s.catalog)
}

// Submit validates value against the current question and, on success,
// records it, appends the user entry and an acknowledgment, and either
// advances to the next question or moves the session to Finalizing.
// On validation failure the original session is returned untouched.
func (s Session) Submit(value Value) (Session, error) {
	if s.Stage != StageAsking {
		return s, fmt.Errorf("intake session is already complete")
	}

	q := s.Question()
	if err := validate(q, value); err != nil {
		return s, err
	}

	next := s.clone()
	next.Answers[q.ID] = value
	next.Transcript = append(next.Transcript,
		Entry{Speaker: SpeakerUser, Text: value.Format()},
		Entry{Speaker: SpeakerAssistant, Text: ackMessages[len(next.Answers)%len(ackMessages)]},
	)

	if s.Index < len(s.catalog)-1 {
		next.Index = s.Index + 1
		nextQ := next.Question()
		next.Transcript = []Entry{{Speaker: SpeakerAssistant, Text: nextQ.Prompt}}
		next.Pending = EmptyValue(nextQ.Type)
		return next, nil
	}

	next.Stage = StageFinalizing
	return next, nil
}

// Back steps to the previous question, restoring the answer recorded
// for it (or the empty value) as pending input. It is a no-op at the
// first question or outside the asking stage. Forward answers stay
// recorded until overwritten by a later Submit.
func (s Session) Back() Session {
	if s.Stage != StageAsking || s.Index == 0 {
		return s
	}

	next := s.clone()
	next.Index = s.Index - 1
	prevQ := next.Question()
	if v, ok := next.Answers[prevQ.ID]; ok {
		next.Pending = v
	} else {
		next.Pending = EmptyValue(prevQ.Type)
	}
	next.Transcript = []Entry{{Speaker: SpeakerAssistant, Text: prevQ.Prompt}}
	return next
}

// Finalize marks a finalizing session as done. Callers run the
// assemble-and-persist sequence between the last Submit and this call.
func (s Session) Finalize() (Session, error) {
	if s.Stage != StageFinalizing {
		return s, fmt.Errorf("cannot finalize a session in stage %q", s.Stage)
	}
	next := s.clone()
	next.Stage = StageDone
	return next, nil
}

// clone copies the mutable parts so transitions never alias the
// receiver's maps or slices.
func (s Session) clone() Session {
	answers := make(map[string]Value, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	transcript := make([]Entry, len(s.Transcript))
	copy(transcript, s.Transcript)

	next := s
	next.Answers = answers
	next.Transcript = transcript
	return next
}

// validate checks a value against a question's type constraint.
func validate(q Question, v Value) error {
	if v.Kind != q.Type {
		return &ValidationError{QuestionID: q.ID, Reason: fmt.Sprintf("expected a %s answer, got %s", q.Type, v.Kind)}
	}

	switch q.Type {
	case TypeMulti:
		if len(v.List) == 0 {
			return &ValidationError{QuestionID: q.ID, Reason: "select at least one option"}
		}
		for _, item := range v.List {
			if !containsOption(q.Options, item) {
				return &ValidationError{QuestionID: q.ID, Reason: fmt.Sprintf("%q is not one of the options", item)}
			}
		}
	case TypeSingle:
		if !containsOption(q.Options, v.Text) {
			return &ValidationError{QuestionID: q.ID, Reason: fmt.Sprintf("%q is not one of the options", v.Text)}
		}
	}
	return nil
}

func containsOption(options []string, v string) bool {
	for _, opt := range options {
		if opt == v {
			return true
		}
	}
	return false
}
