package services

import "github.com/pkg/errors"

var (
	ErrExamNotFound        = errors.New("exam not found")
	ErrExamNotPublished    = errors.New("exam is not open for attempts")
	ErrExamLocked          = errors.New("exam already has attempts and can no longer be edited")
	ErrExamEmpty           = errors.New("exam has no questions")
	ErrExamTransition      = errors.New("exam status change not allowed")
	ErrNotExamOwner        = errors.New("exam belongs to another teacher")
	ErrInvalidQuestion     = errors.New("a question needs at least two answers and one correct answer")
	ErrAttemptLimitReached = errors.New("maximum number of attempts reached")
	ErrAttemptNotFound     = errors.New("exam attempt not found")
	ErrNotAttemptOwner     = errors.New("exam attempt belongs to another student")
	ErrAttemptClosed       = errors.New("exam attempt is no longer in progress")
	ErrAttemptExpired      = errors.New("time for this exam attempt is over")
	ErrQuestionNotInExam   = errors.New("question does not belong to this exam")
	ErrAnswerNotInQuestion = errors.New("answer does not belong to this question")
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrNotPassed           = errors.New("certificates are only issued for passed attempts")
)
