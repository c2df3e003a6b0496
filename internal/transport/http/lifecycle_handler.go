package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"quiz-room-service/internal/app"
	"quiz-room-service/internal/domain"
)

// LifecycleHandler serves room creation/validation and the question bank listings.
type LifecycleHandler struct {
	service *app.RoomService
	bank    app.QuestionBank
	log     logrus.FieldLogger
}

func NewLifecycleHandler(service *app.RoomService, bank app.QuestionBank, logger logrus.FieldLogger) *LifecycleHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LifecycleHandler{service: service, bank: bank, log: logger.WithField("component", "lifecycle")}
}

type createdResponse struct {
	QuizID string `json:"quiz_id"`
	Link   string `json:"link"`
}

type validateResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

type questionSet struct {
	Questions []domain.Question `json:"questions"`
}

type bankRequest struct {
	Subject string `json:"subject"`
	Chapter string `json:"chapter"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *LifecycleHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"Initial": "Hello World"})
}

func (h *LifecycleHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	id, link, err := h.service.CreateRoom(r.Context())
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{QuizID: id, Link: link})
}

func (h *LifecycleHandler) CreateQuizWithQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := decodeQuestionSet(r.Body)
	if err != nil {
		h.fail(w, http.StatusBadRequest, errors.New("invalid questions payload"))
		return
	}
	id, link, err := h.service.CreateRoomWithQuestions(r.Context(), questions)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{QuizID: id, Link: link})
}

// decodeQuestionSet only rejects bodies that are not JSON. Each record is decoded on its own so
// one malformed question does not take the rest of the set down with it.
func decodeQuestionSet(body io.Reader) ([]domain.Question, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, errors.New("body is not JSON")
	}
	var envelope struct {
		Questions json.RawMessage `json:"questions"`
	}
	var records []json.RawMessage
	if json.Unmarshal(data, &envelope) != nil || json.Unmarshal(envelope.Questions, &records) != nil {
		return []domain.Question{}, nil
	}
	questions := make([]domain.Question, 0, len(records))
	for _, record := range records {
		var q domain.Question
		_ = q.UnmarshalJSON(record)
		questions = append(questions, q)
	}
	return questions, nil
}

func (h *LifecycleHandler) CreateQuizFromBank(w http.ResponseWriter, r *http.Request) {
	var req bankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Subject == "" || req.Chapter == "" {
		h.fail(w, http.StatusBadRequest, errors.New("subject and chapter are required"))
		return
	}
	id, link, err := h.service.CreateRoomFromBank(r.Context(), req.Subject, req.Chapter)
	if errors.Is(err, domain.ErrQuestionsNotFound) {
		h.fail(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{QuizID: id, Link: link})
}

func (h *LifecycleHandler) ValidateQuiz(w http.ResponseWriter, r *http.Request) {
	if h.service.RoomExists(chi.URLParam(r, "quiz_id")) {
		writeJSON(w, http.StatusOK, validateResponse{Valid: true})
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: false, Message: domain.ErrRoomNotFound.Error()})
}

// Rooms lists the registered rooms for operators.
func (h *LifecycleHandler) Rooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.RoomInfo{"rooms": h.service.Rooms()})
}

func (h *LifecycleHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	if !h.requireBank(w) {
		return
	}
	subjects, err := h.bank.Subjects(r.Context())
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"subjects": subjects})
}

func (h *LifecycleHandler) Chapters(w http.ResponseWriter, r *http.Request) {
	if !h.requireBank(w) {
		return
	}
	chapters, err := h.bank.Chapters(r.Context(), chi.URLParam(r, "subject"))
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"chapters": chapters})
}

func (h *LifecycleHandler) Questions(w http.ResponseWriter, r *http.Request) {
	if !h.requireBank(w) {
		return
	}
	subject, chapter := r.URL.Query().Get("subject"), r.URL.Query().Get("chapter")
	questions, err := h.bank.Questions(r.Context(), subject, chapter)
	if errors.Is(err, domain.ErrQuestionsNotFound) {
		questions, err = []domain.Question{}, nil
	}
	if err != nil {
		h.fail(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, questionSet{Questions: questions})
}

func (h *LifecycleHandler) requireBank(w http.ResponseWriter) bool {
	if h.bank == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "question bank not configured"})
		return false
	}
	return true
}

func (h *LifecycleHandler) fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
