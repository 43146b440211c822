package domain

import "errors"

var (
	// ErrInvalidInput wraps any missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrQuizLocked is returned when a student has already completed or been disqualified.
	ErrQuizLocked = errors.New("quiz already completed")
	// ErrUnauthorized indicates a missing, unknown or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a role mismatch.
	ErrForbidden = errors.New("forbidden")
	// ErrNotEnoughQuestions is returned when the pool is smaller than the quiz length.
	ErrNotEnoughQuestions = errors.New("not enough questions to start the quiz")
	// ErrAttemptNotFound indicates an unknown attempt or one owned by another user.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptInProgress is returned by stores when a second started attempt would be created.
	ErrAttemptInProgress = errors.New("attempt already in progress")
	// ErrAttemptClosed is returned by stores when an attempt is no longer in started status.
	ErrAttemptClosed = errors.New("attempt already completed")
	// ErrQuestionNotFound indicates a question id with no matching row.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrUserNotFound indicates a user id or email with no matching row.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound indicates an unknown session token.
	ErrSessionNotFound = errors.New("session not found")
)
