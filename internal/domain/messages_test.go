package domain

import (
	"errors"
	"testing"
)

func TestDecodeActionKeepsStudentIDVerbatim(t *testing.T) {
	action, err := DecodeAction([]byte(`{"action":"join","student_id":" alice "}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if join, ok := action.(JoinAction); !ok || join.StudentID != " alice " {
		t.Fatalf("expected id kept as sent, got %#v", action)
	}

	if _, err := DecodeAction([]byte(`{"action":"join","student_id":"   "}`)); !errors.Is(err, ErrMissingStudentID) {
		t.Fatalf("expected missing student id, got %v", err)
	}
}

func TestDecodeAnswerScalars(t *testing.T) {
	cases := map[string]string{
		`{"action":"answer","student_id":"a","question_id":1,"answer":"B"}`:  "B",
		`{"action":"answer","student_id":"a","question_id":1,"answer":3}`:    "3",
		`{"action":"answer","student_id":"a","question_id":1,"answer":true}`: "true",
		`{"action":"answer","student_id":"a","question_id":1}`:               "",
	}
	for frame, want := range cases {
		action, err := DecodeAction([]byte(frame))
		if err != nil {
			t.Fatalf("decode %s: %v", frame, err)
		}
		answer, ok := action.(AnswerAction)
		if !ok || answer.Answer != want || answer.QuestionID != "1" {
			t.Fatalf("decode %s: got %#v", frame, action)
		}
	}

	_, err := DecodeAction([]byte(`{"action":"answer","student_id":"a","question_id":1,"answer":{"x":1}}`))
	if !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected malformed answer, got %v", err)
	}
}

func TestDecodeActionRejectsUnknown(t *testing.T) {
	if _, err := DecodeAction([]byte(`{"action":"dance"}`)); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected unknown action, got %v", err)
	}
	if _, err := DecodeAction([]byte(`not json`)); !errors.Is(err, ErrMalformedMessage) {
		t.Fatalf("expected malformed message, got %v", err)
	}
}
