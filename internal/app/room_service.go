package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-room-service/internal/domain"
)

// DefaultMaxParticipants is the room capacity used when none is configured.
const DefaultMaxParticipants = 5

const roomIDAttempts = 8

// RoomRepository abstracts the room registry (in-memory, Redis-marked, etc).
type RoomRepository interface {
	Put(room *Room)
	Get(roomID string) (*Room, bool)
	Delete(roomID string)
	List() []*Room
	Touch(roomID string)
}

// ConnectionTable is the per-room fan-out set of open connections.
type ConnectionTable interface {
	Add(roomID string, conn Conn)
	// Remove detaches conn and reports whether the room entry became empty and was dropped.
	Remove(roomID string, conn Conn) bool
	ForEach(roomID string, fn func(Conn))
	// Drop detaches and returns every connection of the room.
	Drop(roomID string) []Conn
	Count(roomID string) int
}

// Conn is one open duplex channel bound to a single room.
type Conn interface {
	// Send enqueues msg without blocking; false means the connection is closed or overflowed.
	Send(msg domain.ServerMessage) bool
	// Close flushes queued messages and closes the channel. Safe to call more than once.
	Close()
}

// QuestionBank loads stored question sets by subject and chapter.
type QuestionBank interface {
	Subjects(ctx context.Context) ([]string, error)
	Chapters(ctx context.Context, subject string) ([]string, error)
	Questions(ctx context.Context, subject, chapter string) ([]domain.Question, error)
}

// TokenIssuer binds a student id to the connection that joined with it.
type TokenIssuer interface {
	Issue(roomID, studentID string) (string, error)
	Verify(token, roomID, studentID string) error
}

// Recorder receives room events for metrics.
type Recorder interface {
	RoomOpened()
	RoomClosed(reason string)
	ConnectionOpened()
	ConnectionClosed()
	ActionHandled(action string)
	ActionRejected(action string, err error)
}

// ServiceConfig carries the optional collaborators and limits of a RoomService.
type ServiceConfig struct {
	MaxParticipants int
	JoinBaseURL     string
	Bank            QuestionBank
	Tokens          TokenIssuer
	Recorder        Recorder
	Logger          logrus.FieldLogger
	Now             func() time.Time
	NewRoomID       func() string
}

// RoomService implements the room lifecycle API and the per-room protocol.
type RoomService struct {
	rooms    RoomRepository
	conns    ConnectionTable
	bank     QuestionBank
	tokens   TokenIssuer
	recorder Recorder
	log      logrus.FieldLogger
	now      func() time.Time
	newID    func() string

	maxParticipants int
	joinBaseURL     string
}

func NewRoomService(rooms RoomRepository, conns ConnectionTable, cfg ServiceConfig) *RoomService {
	s := &RoomService{
		rooms:           rooms,
		conns:           conns,
		bank:            cfg.Bank,
		tokens:          cfg.Tokens,
		recorder:        cfg.Recorder,
		log:             cfg.Logger,
		now:             cfg.Now,
		newID:           cfg.NewRoomID,
		maxParticipants: cfg.MaxParticipants,
		joinBaseURL:     strings.TrimSuffix(cfg.JoinBaseURL, "/"),
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("component", "rooms")
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newRoomID
	}
	if s.maxParticipants <= 0 {
		s.maxParticipants = DefaultMaxParticipants
	}
	if s.joinBaseURL == "" {
		s.joinBaseURL = "http://localhost:8501"
	}
	return s
}

// newRoomID returns the first 8 hex characters of a random UUID.
func newRoomID() string {
	return uuid.NewString()[:8]
}

// CreateRoom allocates an empty room in the lobby state.
func (s *RoomService) CreateRoom(ctx context.Context) (string, string, error) {
	return s.CreateRoomWithQuestions(ctx, nil)
}

// CreateRoomWithQuestions allocates a room pre-seeded with questions. Question shape is not
// validated here; malformed records simply never score.
func (s *RoomService) CreateRoomWithQuestions(_ context.Context, questions []domain.Question) (string, string, error) {
	for attempt := 0; attempt < roomIDAttempts; attempt++ {
		id := s.newID()
		if _, taken := s.rooms.Get(id); taken {
			continue
		}
		s.rooms.Put(NewRoom(id, questions, s.now()))
		s.recorder.RoomOpened()
		s.log.WithFields(logrus.Fields{"room_id": id, "questions": len(questions)}).Info("room created")
		return id, s.JoinLink(id), nil
	}
	return "", "", errors.New("could not allocate a unique room id")
}

// CreateRoomFromBank loads a question set from the bank and seeds a new room with it.
func (s *RoomService) CreateRoomFromBank(ctx context.Context, subject, chapter string) (string, string, error) {
	if s.bank == nil {
		return "", "", fmt.Errorf("question bank not configured")
	}
	questions, err := s.bank.Questions(ctx, subject, chapter)
	if err != nil {
		return "", "", fmt.Errorf("load questions for %s/%s: %w", subject, chapter, err)
	}
	if len(questions) == 0 {
		return "", "", domain.ErrQuestionsNotFound
	}
	return s.CreateRoomWithQuestions(ctx, questions)
}

// JoinLink builds the URL students open to join a room.
func (s *RoomService) JoinLink(roomID string) string {
	return s.joinBaseURL + "/" + roomID
}

// RoomExists reports whether roomID is currently registered. The answer may be stale by the
// time the caller connects; Connect validates again.
func (s *RoomService) RoomExists(roomID string) bool {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return false
	}
	room.mu.Lock()
	defer room.mu.Unlock()
	return !room.ended
}

// Connect binds conn to roomID's fan-out set.
func (s *RoomService) Connect(roomID string, conn Conn) error {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.mu.Lock()
	if room.ended {
		room.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	s.conns.Add(roomID, conn)
	room.lastActivity = s.now()
	room.mu.Unlock()

	s.rooms.Touch(roomID)
	s.recorder.ConnectionOpened()
	s.log.WithField("room_id", roomID).Debug("connection attached")
	return nil
}

// Disconnect detaches conn after its channel failed or closed. Participants joined through conn
// are released; the room itself stays registered until it is ended or evicted.
func (s *RoomService) Disconnect(roomID string, conn Conn) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		if s.conns.Remove(roomID, conn) {
			s.log.WithField("room_id", roomID).Debug("fan-out entry dropped")
		}
		s.recorder.ConnectionClosed()
		return
	}

	room.mu.Lock()
	s.conns.Remove(roomID, conn)
	// Participants bound to a closed connection are released and the others see the new roster,
	// so the same student can join again from a fresh socket.
	if !room.ended && room.releaseConnLocked(conn) {
		s.broadcastLocked(room, room.rosterLocked())
	}
	room.lastActivity = s.now()
	room.mu.Unlock()

	s.recorder.ConnectionClosed()
	s.log.WithField("room_id", roomID).Debug("connection detached")
}

// Handle applies one client action to the room. Returned errors are meant for the requesting
// connection only; domain.ErrRoomNotFound additionally means the connection should be closed.
func (s *RoomService) Handle(_ context.Context, roomID string, conn Conn, action domain.ClientAction) error {
	err := s.handle(roomID, conn, action)
	name := "unknown"
	if action != nil {
		name = action.Name()
	}
	if err != nil {
		s.recorder.ActionRejected(name, err)
		s.log.WithFields(logrus.Fields{"room_id": roomID, "action": name}).WithError(err).Debug("action rejected")
		return err
	}
	s.recorder.ActionHandled(name)
	if _, ended := action.(domain.EndQuizAction); !ended {
		s.rooms.Touch(roomID)
	}
	return nil
}

func (s *RoomService) handle(roomID string, conn Conn, action domain.ClientAction) error {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.ended {
		return domain.ErrRoomNotFound
	}
	room.lastActivity = s.now()

	switch a := action.(type) {
	case domain.JoinAction:
		return s.joinLocked(room, conn, a)
	case domain.LeaveAction:
		return s.leaveLocked(room, a)
	case domain.StartQuizAction:
		return s.startLocked(room)
	case domain.AnswerAction:
		return s.answerLocked(room, a)
	case domain.EndQuizAction:
		return s.endLocked(room, "ended")
	default:
		return domain.ErrUnknownAction
	}
}

func (s *RoomService) joinLocked(room *Room, conn Conn, a domain.JoinAction) error {
	if len(room.participants) >= s.maxParticipants {
		return fmt.Errorf("%w Maximum %d students allowed.", domain.ErrRoomFull, s.maxParticipants)
	}
	if _, taken := room.participants[a.StudentID]; taken {
		return domain.ErrUsernameTaken
	}

	room.addParticipantLocked(a.StudentID, conn)
	s.broadcastLocked(room, room.rosterLocked())
	s.log.WithFields(logrus.Fields{"room_id": room.id, "student_id": a.StudentID}).Info("student joined")

	if s.tokens != nil {
		token, err := s.tokens.Issue(room.id, a.StudentID)
		if err != nil {
			s.log.WithField("room_id", room.id).WithError(err).Error("issue participant token")
			return nil
		}
		conn.Send(domain.TokenMessage{Token: token})
	}
	return nil
}

func (s *RoomService) leaveLocked(room *Room, a domain.LeaveAction) error {
	if _, ok := room.participants[a.StudentID]; !ok {
		return nil
	}
	if err := s.verifyToken(room.id, a.StudentID, a.Token); err != nil {
		return err
	}
	room.removeParticipantLocked(a.StudentID)
	s.broadcastLocked(room, room.rosterLocked())
	s.log.WithFields(logrus.Fields{"room_id": room.id, "student_id": a.StudentID}).Info("student left")
	return nil
}

func (s *RoomService) startLocked(room *Room) error {
	room.started = true
	s.broadcastLocked(room, domain.StartedMessage{QuizStarted: true, Questions: room.questionsLocked()})
	s.log.WithFields(logrus.Fields{"room_id": room.id, "questions": len(room.questions)}).Info("quiz started")
	return nil
}

func (s *RoomService) answerLocked(room *Room, a domain.AnswerAction) error {
	if err := s.verifyToken(room.id, a.StudentID, a.Token); err != nil {
		return err
	}
	key := answerKey{studentID: a.StudentID, questionID: a.QuestionID}
	if _, dup := room.answered[key]; dup {
		return domain.ErrAlreadyAnswered
	}
	room.answered[key] = struct{}{}
	room.answers = append(room.answers, domain.Answer{
		StudentID:  a.StudentID,
		QuestionID: a.QuestionID,
		Answer:     a.Answer,
	})
	room.markAppearedLocked(a.StudentID)
	s.broadcastLocked(room, domain.AnswersMessage{Answers: room.answersLocked()})
	return nil
}

// endLocked scores the room, sends the final message to every connection, closes them and
// removes the room from both tables.
func (s *RoomService) endLocked(room *Room, reason string) error {
	leaderboard := BuildLeaderboard(room.questions, room.answers, room.appeared)
	msg := domain.EndedMessage{QuizEnded: true, Leaderboard: leaderboard}
	room.ended = true

	for _, conn := range s.conns.Drop(room.id) {
		conn.Send(msg)
		conn.Close()
	}
	s.rooms.Delete(room.id)
	s.recorder.RoomClosed(reason)
	s.log.WithFields(logrus.Fields{"room_id": room.id, "reason": reason, "answers": len(room.answers)}).Info("room closed")
	return nil
}

func (s *RoomService) verifyToken(roomID, studentID, token string) error {
	if s.tokens == nil {
		return nil
	}
	if err := s.tokens.Verify(token, roomID, studentID); err != nil {
		s.log.WithFields(logrus.Fields{"room_id": roomID, "student_id": studentID}).WithError(err).Debug("token rejected")
		return domain.ErrInvalidToken
	}
	return nil
}

// broadcastLocked fans msg out to every connection of the room. Sends never block, so holding
// the room lock here cannot stall on a slow peer.
func (s *RoomService) broadcastLocked(room *Room, msg domain.ServerMessage) {
	s.conns.ForEach(room.id, func(conn Conn) {
		if !conn.Send(msg) {
			s.log.WithField("room_id", room.id).Warn("dropped message for closed or saturated connection")
		}
	})
}

// EvictIdle deletes rooms without open connections whose last activity is older than ttl.
func (s *RoomService) EvictIdle(ttl time.Duration) []string {
	now := s.now()
	var evicted []string
	for _, room := range s.rooms.List() {
		room.mu.Lock()
		idle := !room.ended && s.conns.Count(room.id) == 0 && now.Sub(room.lastActivity) > ttl
		if idle {
			room.ended = true
			s.conns.Drop(room.id)
			s.rooms.Delete(room.id)
			evicted = append(evicted, room.id)
		}
		room.mu.Unlock()
		if idle {
			s.recorder.RoomClosed("idle")
			s.log.WithField("room_id", room.id).Info("idle room evicted")
		}
	}
	return evicted
}

// Rooms lists summaries of every registered room.
func (s *RoomService) Rooms() []domain.RoomInfo {
	rooms := s.rooms.List()
	out := make([]domain.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Info())
	}
	return out
}

type nopRecorder struct{}

func (nopRecorder) RoomOpened()                  {}
func (nopRecorder) RoomClosed(string)            {}
func (nopRecorder) ConnectionOpened()            {}
func (nopRecorder) ConnectionClosed()            {}
func (nopRecorder) ActionHandled(string)         {}
func (nopRecorder) ActionRejected(string, error) {}
