package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action names accepted on the room socket.
const (
	ActionJoin      = "join"
	ActionLeave     = "leave"
	ActionStartQuiz = "start_quiz"
	ActionAnswer    = "answer"
	ActionEndQuiz   = "end_quiz"
)

// ClientAction is one inbound message. The concrete types below are the only implementations.
type ClientAction interface {
	Name() string
	clientAction()
}

type JoinAction struct {
	StudentID string
}

type LeaveAction struct {
	StudentID string
	Token     string
}

type StartQuizAction struct{}

type AnswerAction struct {
	StudentID  string
	QuestionID QuestionID
	Answer     string
	Token      string
}

type EndQuizAction struct{}

func (JoinAction) Name() string      { return ActionJoin }
func (LeaveAction) Name() string     { return ActionLeave }
func (StartQuizAction) Name() string { return ActionStartQuiz }
func (AnswerAction) Name() string    { return ActionAnswer }
func (EndQuizAction) Name() string   { return ActionEndQuiz }

func (JoinAction) clientAction()      {}
func (LeaveAction) clientAction()     {}
func (StartQuizAction) clientAction() {}
func (AnswerAction) clientAction()    {}
func (EndQuizAction) clientAction()   {}

type inboundFrame struct {
	Action     string          `json:"action"`
	StudentID  string          `json:"student_id"`
	QuestionID QuestionID      `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
	Token      string          `json:"token"`
}

// DecodeAction parses one inbound JSON frame into its action variant.
func DecodeAction(data []byte) (ClientAction, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	// Ids are kept byte-for-byte; whitespace-only counts as missing.
	studentID := frame.StudentID
	if strings.TrimSpace(studentID) == "" {
		studentID = ""
	}

	switch frame.Action {
	case ActionJoin:
		if studentID == "" {
			return nil, ErrMissingStudentID
		}
		return JoinAction{StudentID: studentID}, nil
	case ActionLeave:
		if studentID == "" {
			return nil, ErrMissingStudentID
		}
		return LeaveAction{StudentID: studentID, Token: frame.Token}, nil
	case ActionStartQuiz:
		return StartQuizAction{}, nil
	case ActionAnswer:
		if studentID == "" {
			return nil, ErrMissingStudentID
		}
		// Scalars compare by their literal text, so 3 and "3" are the same answer.
		answer, ok := ScalarText(frame.Answer)
		if !ok && len(frame.Answer) > 0 && string(frame.Answer) != "null" {
			return nil, fmt.Errorf("%w: answer must be a string, number or boolean", ErrMalformedMessage)
		}
		return AnswerAction{
			StudentID:  studentID,
			QuestionID: frame.QuestionID,
			Answer:     answer,
			Token:      frame.Token,
		}, nil
	case ActionEndQuiz:
		return EndQuizAction{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, frame.Action)
	}
}

// ServerMessage is one outbound message, marshalled as a flat JSON object.
type ServerMessage interface {
	serverMessage()
}

type ErrorMessage struct {
	Error string `json:"error"`
}

// RosterMessage is broadcast after join, leave and participant disconnects.
type RosterMessage struct {
	Students    []string `json:"students"`
	QuizStarted bool     `json:"quiz_started"`
}

type StartedMessage struct {
	QuizStarted bool       `json:"quiz_started"`
	Questions   []Question `json:"questions"`
}

type AnswersMessage struct {
	Answers []Answer `json:"answers"`
}

type EndedMessage struct {
	QuizEnded   bool               `json:"quiz_ended"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// TokenMessage is sent only to the joining connection when participant tokens are enabled.
type TokenMessage struct {
	Token string `json:"token"`
}

func (ErrorMessage) serverMessage()   {}
func (RosterMessage) serverMessage()  {}
func (StartedMessage) serverMessage() {}
func (AnswersMessage) serverMessage() {}
func (EndedMessage) serverMessage()   {}
func (TokenMessage) serverMessage()   {}

// ErrorReply converts a protocol error into its wire message.
func ErrorReply(err error) ErrorMessage {
	return ErrorMessage{Error: err.Error()}
}
