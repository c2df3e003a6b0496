package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// QuestionID is an opaque question identifier. Question banks hand out integer ids while
// uploaded sets may use strings, so both JSON forms decode to the same value.
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("question id: %w", err)
	}
	*id = QuestionID(n.String())
	return nil
}

// QuestionIDFromInt formats a storage row id.
func QuestionIDFromInt(n int64) QuestionID {
	return QuestionID(strconv.FormatInt(n, 10))
}

// Question is a four-option MCQ. CorrectIndex is 0-based: 0 selects Option1.
type Question struct {
	ID           QuestionID `json:"question_id"`
	Text         string     `json:"question_text"`
	Option1      string     `json:"option1"`
	Option2      string     `json:"option2"`
	Option3      string     `json:"option3"`
	Option4      string     `json:"option4"`
	CorrectIndex int        `json:"correct_index"`
	Subject      string     `json:"subject,omitempty"`
	Chapter      string     `json:"chapter,omitempty"`

	// Raw is the record as it was received; it is what gets echoed back on start.
	Raw json.RawMessage `json:"-"`
}

// NoCorrectOption marks a question that can never be scored.
const NoCorrectOption = -1

type questionFields Question

func (q Question) MarshalJSON() ([]byte, error) {
	if len(q.Raw) > 0 {
		return q.Raw, nil
	}
	return json.Marshal(questionFields(q))
}

// UnmarshalJSON accepts any record. Fields of the wrong type are left empty instead of failing
// the whole set; a record without a usable question_id or correct_index gets NoCorrectOption so
// answers to it never score.
func (q *Question) UnmarshalJSON(data []byte) error {
	*q = Question{CorrectIndex: NoCorrectOption, Raw: append(json.RawMessage(nil), data...)}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil
	}

	idOK := false
	if raw, ok := fields["question_id"]; ok {
		var id QuestionID
		if err := id.UnmarshalJSON(raw); err == nil && id != "" {
			q.ID, idOK = id, true
		}
	}
	q.Text, _ = ScalarText(fields["question_text"])
	q.Subject, _ = ScalarText(fields["subject"])
	q.Chapter, _ = ScalarText(fields["chapter"])

	var optionOK [4]bool
	for i, dst := range []*string{&q.Option1, &q.Option2, &q.Option3, &q.Option4} {
		*dst, optionOK[i] = ScalarText(fields[fmt.Sprintf("option%d", i+1)])
	}

	var index int
	if raw, ok := fields["correct_index"]; ok && idOK && json.Unmarshal(raw, &index) == nil {
		if index >= 0 && index <= 3 && optionOK[index] {
			q.CorrectIndex = index
		}
	}
	return nil
}

// ScalarText returns the literal text of a JSON scalar: strings unquoted, numbers and booleans
// as written. Objects, arrays, null and absent values report false.
func ScalarText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{', '[':
		return "", false
	default:
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return "", false
		}
		return string(raw), true
	}
}

// Options returns the four options in wire order.
func (q Question) Options() [4]string {
	return [4]string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// CorrectOption returns the text of the correct option, or false when the index is out of range.
func (q Question) CorrectOption() (string, bool) {
	if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
		return "", false
	}
	return q.Options()[q.CorrectIndex], true
}

// Answer is one submitted answer; it holds the literal option text, not an index.
type Answer struct {
	StudentID  string     `json:"student_id"`
	QuestionID QuestionID `json:"question_id"`
	Answer     string     `json:"answer"`
}

// LeaderboardEntry is the end-of-room tally for one student.
type LeaderboardEntry struct {
	StudentID string `json:"student_id"`
	Score     int    `json:"score"`
}

// RoomInfo is a read-only summary of a room used by the idle sweep and operators.
type RoomInfo struct {
	ID           string    `json:"quiz_id"`
	Participants int       `json:"participants"`
	Started      bool      `json:"quiz_started"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}
