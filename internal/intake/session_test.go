package intake

import (
	"encoding/json"
	"errors"
	"testing"
)

// validAnswerFor produces a valid answer for any catalog question.
func validAnswerFor(q Question) Value {
	switch q.Type {
	case TypeNumber:
		return NumberValue(4)
	case TypeText:
		return TextValue("no shellfish")
	case TypeMulti:
		return MultiValue(q.Options[:2])
	case TypeSingle:
		return SingleValue(q.Options[0])
	case TypeToggle:
		return ToggleValue(true)
	}
	return Value{}
}

func TestNewSession(t *testing.T) {
	s := NewSession(Catalog())

	if s.Stage != StageAsking {
		t.Errorf("Expected stage %q, got %q", StageAsking, s.Stage)
	}
	if s.Index != 0 {
		t.Errorf("Expected index 0, got %d", s.Index)
	}
	if len(s.Answers) != 0 {
		t.Errorf("Expected empty answer map, got %d entries", len(s.Answers))
	}
	if len(s.Transcript) != 1 || s.Transcript[0].Text != s.Question().Prompt {
		t.Errorf("Expected transcript with only the first prompt, got %v", s.Transcript)
	}
	if s.Pending.Kind != TypeNumber {
		t.Errorf("Expected pending input seeded for a number question, got %q", s.Pending.Kind)
	}
}

func TestSubmitAdvances(t *testing.T) {
	s := NewSession(Catalog())

	next, err := s.Submit(NumberValue(4))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if next.Index != 1 {
		t.Errorf("Expected index 1, got %d", next.Index)
	}
	if got := next.Answers[QHouseholdSize]; got.Number != 4 {
		t.Errorf("Expected recorded answer 4, got %v", got)
	}
	if len(next.Transcript) != 1 || next.Transcript[0].Text != next.Question().Prompt {
		t.Errorf("Expected transcript reset to the next prompt, got %v", next.Transcript)
	}
	if next.Pending.Kind != TypeText {
		t.Errorf("Expected pending input reset for a text question, got %q", next.Pending.Kind)
	}

	// The original session must be untouched.
	if s.Index != 0 || len(s.Answers) != 0 {
		t.Errorf("Submit mutated the original session: index=%d answers=%d", s.Index, len(s.Answers))
	}
}

func TestSubmitRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		index int
		value Value
	}{
		{"WrongKind", 0, TextValue("four")},
		{"EmptyMultiSelect", 2, MultiValue(nil)},
		{"MultiSelectOutsideOptions", 2, MultiValue([]string{"Funday"})},
		{"SingleSelectOutsideOptions", 4, SingleValue("wizard")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(Catalog())
			for s.Index < tt.index {
				var err error
				s, err = s.Submit(validAnswerFor(s.Question()))
				if err != nil {
					t.Fatalf("setup Submit failed: %v", err)
				}
			}

			before := len(s.Transcript)
			next, err := s.Submit(tt.value)
			if err == nil {
				t.Fatal("Expected a validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if next.Index != tt.index {
				t.Errorf("Rejected submit moved the index: %d -> %d", tt.index, next.Index)
			}
			if len(next.Transcript) != before {
				t.Errorf("Rejected submit mutated the transcript: %d -> %d entries", before, len(next.Transcript))
			}
		})
	}
}

func TestFullRunReachesDoneOnce(t *testing.T) {
	s := NewSession(Catalog())

	for i := 0; i < s.Total(); i++ {
		var err error
		s, err = s.Submit(validAnswerFor(s.Question()))
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
	}

	if s.Stage != StageFinalizing {
		t.Fatalf("Expected stage %q after the last answer, got %q", StageFinalizing, s.Stage)
	}
	if len(s.Answers) != s.Total() {
		t.Errorf("Expected exactly %d answers, got %d", s.Total(), len(s.Answers))
	}
	for _, q := range Catalog() {
		if _, ok := s.Answers[q.ID]; !ok {
			t.Errorf("Missing answer for question %s", q.ID)
		}
	}

	s, err := s.Finalize()
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if s.Stage != StageDone {
		t.Errorf("Expected stage %q, got %q", StageDone, s.Stage)
	}

	// Done is terminal.
	if _, err := s.Submit(validAnswerFor(Catalog()[0])); err == nil {
		t.Error("Expected Submit on a done session to fail")
	}
	if _, err := s.Finalize(); err == nil {
		t.Error("Expected a second Finalize to fail")
	}
}

func TestBackRestoresAnswer(t *testing.T) {
	for _, q := range Catalog() {
		t.Run(q.ID, func(t *testing.T) {
			s := NewSession(Catalog())
			for s.Question().ID != q.ID {
				var err error
				s, err = s.Submit(validAnswerFor(s.Question()))
				if err != nil {
					t.Fatalf("setup Submit failed: %v", err)
				}
			}

			submitted := validAnswerFor(q)
			next, err := s.Submit(submitted)
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if next.Stage != StageAsking {
				// Last question finalizes; there is nothing to go back from.
				return
			}

			back := next.Back()
			if back.Index != s.Index {
				t.Fatalf("Expected index %d after Back, got %d", s.Index, back.Index)
			}
			if got, want := back.Pending.Format(), submitted.Format(); got != want {
				t.Errorf("Expected pending input %q restored, got %q", want, got)
			}
			if len(back.Transcript) != 1 || back.Transcript[0].Text != q.Prompt {
				t.Errorf("Expected transcript reset to %q, got %v", q.Prompt, back.Transcript)
			}
			// The forward answer is retained until overwritten.
			if _, ok := back.Answers[q.ID]; !ok {
				t.Error("Expected the forward answer to stay recorded after Back")
			}
		})
	}
}

func TestBackAtFirstQuestionIsNoop(t *testing.T) {
	s := NewSession(Catalog())
	back := s.Back()
	if back.Index != 0 || len(back.Transcript) != 1 {
		t.Errorf("Expected Back at index 0 to be a no-op, got index=%d transcript=%d", back.Index, len(back.Transcript))
	}
}

func TestBackThenForwardReseedsPending(t *testing.T) {
	s := NewSession(Catalog())
	s, err := s.Submit(NumberValue(2))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	back := s.Back()
	if back.Pending.Format() != "2" {
		t.Errorf("Expected restored answer '2', got %q", back.Pending.Format())
	}

	forward, err := back.Submit(NumberValue(2))
	if err != nil {
		t.Fatalf("Re-submit failed: %v", err)
	}
	if forward.Pending.Kind != TypeText || forward.Pending.Text != "" {
		t.Errorf("Expected empty text pending input, got %+v", forward.Pending)
	}
}

func TestTranscriptFormatting(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"List", MultiValue([]string{"Mon", "Wed", "Fri"}), "Mon, Wed, Fri"},
		{"ToggleYes", ToggleValue(true), "Yes"},
		{"ToggleNo", ToggleValue(false), "No"},
		{"Number", NumberValue(4), "4"},
		{"Text", TextValue("two picky kids"), "two picky kids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLastSubmitKeepsAckInTranscript(t *testing.T) {
	s := NewSession(Catalog())
	for s.Index < s.Total()-1 {
		var err error
		s, err = s.Submit(validAnswerFor(s.Question()))
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	s, err := s.Submit(ToggleValue(false))
	if err != nil {
		t.Fatalf("final Submit failed: %v", err)
	}
	if len(s.Transcript) != 3 {
		t.Fatalf("Expected prompt + user + ack in the final transcript, got %d entries", len(s.Transcript))
	}
	if s.Transcript[1].Speaker != SpeakerUser || s.Transcript[1].Text != "No" {
		t.Errorf("Expected user entry 'No', got %+v", s.Transcript[1])
	}
	ack := s.Transcript[2]
	if ack.Speaker != SpeakerAssistant {
		t.Errorf("Expected an assistant acknowledgment, got %+v", ack)
	}
	found := false
	for _, m := range ackMessages {
		if ack.Text == m {
			found = true
		}
	}
	if !found {
		t.Errorf("Acknowledgment %q is not from the fixed set", ack.Text)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := NewSession(Catalog())
	s, err := s.Submit(NumberValue(3))
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	restored, err := Restore(Catalog(), data)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Index != s.Index {
		t.Errorf("Expected index %d, got %d", s.Index, restored.Index)
	}
	if restored.Answers[QHouseholdSize].Number != 3 {
		t.Errorf("Expected restored answer 3, got %v", restored.Answers[QHouseholdSize])
	}
	if restored.Question().ID != QPickyEaters {
		t.Errorf("Expected restored session to ask %s, got %s", QPickyEaters, restored.Question().ID)
	}
}

func TestParseValue(t *testing.T) {
	cat := Catalog()
	number, text, multi, single, toggle := cat[0], cat[1], cat[2], cat[4], cat[7]

	t.Run("Number", func(t *testing.T) {
		v, err := ParseValue(number, " 4 ")
		if err != nil {
			t.Fatalf("ParseValue failed: %v", err)
		}
		if v.Number != 4 {
			t.Errorf("Expected 4, got %v", v.Number)
		}
		if _, err := ParseValue(number, ""); err == nil {
			t.Error("Expected an error for an empty number")
		}
		if _, err := ParseValue(number, "four"); err == nil {
			t.Error("Expected an error for a non-numeric answer")
		}
	})

	t.Run("Text", func(t *testing.T) {
		v, err := ParseValue(text, "")
		if err != nil {
			t.Fatalf("ParseValue failed: %v", err)
		}
		if v.Kind != TypeText || v.Text != "" {
			t.Errorf("Expected empty text to be accepted, got %+v", v)
		}
	})

	t.Run("Multi", func(t *testing.T) {
		v, err := ParseValue(multi, "Mon, Wed , Fri,")
		if err != nil {
			t.Fatalf("ParseValue failed: %v", err)
		}
		if len(v.List) != 3 || v.List[1] != "Wed" {
			t.Errorf("Expected [Mon Wed Fri], got %v", v.List)
		}
	})

	t.Run("Single", func(t *testing.T) {
		v, err := ParseValue(single, " beginner ")
		if err != nil {
			t.Fatalf("ParseValue failed: %v", err)
		}
		if v.Text != "beginner" {
			t.Errorf("Expected 'beginner', got %q", v.Text)
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		for raw, want := range map[string]bool{"Yes": true, "y": true, "no": false, "N": false} {
			v, err := ParseValue(toggle, raw)
			if err != nil {
				t.Fatalf("ParseValue(%q) failed: %v", raw, err)
			}
			if v.Bool != want {
				t.Errorf("ParseValue(%q) = %v, want %v", raw, v.Bool, want)
			}
		}
		if _, err := ParseValue(toggle, "maybe"); err == nil {
			t.Error("Expected an error for an ambiguous toggle answer")
		}
	})
}
