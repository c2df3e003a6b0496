package domain

import "errors"

var (
	// ErrRoomNotFound is returned for unknown or already ended rooms.
	ErrRoomNotFound = errors.New("Invalid Quiz ID")
	// ErrRoomFull is returned when a join would exceed the room capacity.
	ErrRoomFull = errors.New("Room is full.")
	// ErrUsernameTaken is returned when a student id is already joined to the room.
	ErrUsernameTaken = errors.New("Username already taken. Please choose another.")
	// ErrAlreadyAnswered is returned for a second answer to the same question.
	ErrAlreadyAnswered = errors.New("You have already submitted your answer for this question.")
	// ErrInvalidToken is returned when participant tokens are enforced and the echoed token does not match.
	ErrInvalidToken = errors.New("Invalid participant token.")
	// ErrUnknownAction indicates an inbound message with an unsupported action.
	ErrUnknownAction = errors.New("unsupported action")
	// ErrMalformedMessage indicates an inbound frame that is not a JSON object or has an unusable answer.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrMissingStudentID indicates a join/leave/answer without a student id.
	ErrMissingStudentID = errors.New("student_id is required")
	// ErrQuestionsNotFound indicates the question bank has nothing for a subject/chapter.
	ErrQuestionsNotFound = errors.New("no questions found")
)
