package app

import (
	"sync"
	"time"

	"quiz-room-service/internal/domain"
)

// Room is the in-memory state of one multiplayer quiz. All fields are guarded by mu; the
// service holds mu across every mutate-then-broadcast sequence.
type Room struct {
	id        string
	createdAt time.Time

	mu           sync.Mutex
	lastActivity time.Time
	participants map[string]Conn
	order        []string
	appeared     []string
	appearedSet  map[string]struct{}
	answers      []domain.Answer
	answered     map[answerKey]struct{}
	questions    []domain.Question
	started      bool
	ended        bool
}

type answerKey struct {
	studentID  string
	questionID domain.QuestionID
}

// NewRoom is exported for infrastructure layers that need to seed rooms.
func NewRoom(id string, questions []domain.Question, now time.Time) *Room {
	qs := make([]domain.Question, len(questions))
	copy(qs, questions)
	return &Room{
		id:           id,
		createdAt:    now,
		lastActivity: now,
		participants: make(map[string]Conn),
		appearedSet:  make(map[string]struct{}),
		answered:     make(map[answerKey]struct{}),
		questions:    qs,
	}
}

// ID returns the room token.
func (r *Room) ID() string { return r.id }

// Info returns a consistent snapshot of the room summary.
func (r *Room) Info() domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RoomInfo{
		ID:           r.id,
		Participants: len(r.participants),
		Started:      r.started,
		CreatedAt:    r.createdAt,
		LastActivity: r.lastActivity,
	}
}

func (r *Room) rosterLocked() domain.RosterMessage {
	students := make([]string, len(r.order))
	copy(students, r.order)
	return domain.RosterMessage{Students: students, QuizStarted: r.started}
}

func (r *Room) addParticipantLocked(studentID string, conn Conn) {
	r.participants[studentID] = conn
	r.order = append(r.order, studentID)
	r.markAppearedLocked(studentID)
}

func (r *Room) removeParticipantLocked(studentID string) {
	delete(r.participants, studentID)
	for i, id := range r.order {
		if id == studentID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// releaseConnLocked drops every participant bound to conn and reports whether any were bound.
func (r *Room) releaseConnLocked(conn Conn) bool {
	released := false
	for studentID, bound := range r.participants {
		if bound == conn {
			r.removeParticipantLocked(studentID)
			released = true
		}
	}
	return released
}

func (r *Room) markAppearedLocked(studentID string) {
	if _, ok := r.appearedSet[studentID]; ok {
		return
	}
	r.appearedSet[studentID] = struct{}{}
	r.appeared = append(r.appeared, studentID)
}

func (r *Room) answersLocked() []domain.Answer {
	out := make([]domain.Answer, len(r.answers))
	copy(out, r.answers)
	return out
}

func (r *Room) questionsLocked() []domain.Question {
	out := make([]domain.Question, len(r.questions))
	copy(out, r.questions)
	return out
}
