// Package repository holds the persistence boundary used by the services:
// gorm-backed stores for users, exams and attempts, plus a redis read-through
// cache for the user lookups done on every authenticated request.
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/anjiri1684/classroom/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrLimitReached = errors.New("attempt limit reached")
	ErrConflict     = errors.New("record changed concurrently")
)

// Page selects a zero-based page of Size rows.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return p.Number * p.Size }

type UserFilter struct {
	Role   models.Role
	Search string
}

type ExamFilter struct {
	TeacherID uint
	Status    models.ExamStatus
	CourseID  uint
}

type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	List(ctx context.Context, f UserFilter, p Page) ([]models.User, int64, error)
}

type ExamRepository interface {
	GetExam(ctx context.Context, id uint) (*models.Exam, error)
	// GetExamWithQuestions preloads questions and answers in position order.
	GetExamWithQuestions(ctx context.Context, id uint) (*models.Exam, error)
	ListExams(ctx context.Context, f ExamFilter, p Page) ([]models.Exam, int64, error)
	CreateExam(ctx context.Context, e *models.Exam) error
	UpdateExam(ctx context.Context, e *models.Exam) error
	// AddQuestion stores q with its answers and bumps the exam's question count.
	AddQuestion(ctx context.Context, q *models.Question) error
	CountAttempts(ctx context.Context, examID uint) (int64, error)
}

// NewAttempt describes the attempt CreateAttempt inserts. Limit <= 0 means
// unlimited.
type NewAttempt struct {
	ExamID    uint
	StudentID uint
	Limit     int
	StartedAt time.Time
}

// Grade is the outcome written when an attempt is finalised.
type Grade struct {
	Score    float64
	MaxScore float64
	Passed   bool
	At       time.Time
}

type AttemptRepository interface {
	// CreateAttempt assigns the next attempt number for (student, exam) and
	// inserts the attempt in one transaction. It returns ErrLimitReached when
	// the student already used Limit attempts and ErrDuplicate when another
	// writer took the same attempt number.
	CreateAttempt(ctx context.Context, na NewAttempt) (*models.StudentExam, error)
	GetAttempt(ctx context.Context, id uint) (*models.StudentExam, error)
	ReplaceAnswers(ctx context.Context, attemptID, questionID uint, answerIDs []uint) error
	ListAnswers(ctx context.Context, attemptID uint) ([]models.StudentAnswer, error)
	// Finalize moves an IN_PROGRESS attempt to GRADED. It returns ErrConflict
	// when the attempt is no longer in progress.
	Finalize(ctx context.Context, attemptID uint, g Grade) error
	ListGraded(ctx context.Context, studentID, examID uint) ([]models.StudentExam, error)
	ListByExam(ctx context.Context, examID uint) ([]models.StudentExam, error)
	// ListInProgress returns every attempt still in progress with its exam loaded.
	ListInProgress(ctx context.Context) ([]models.StudentExam, error)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case IsDuplicateKey(err):
		return ErrDuplicate
	}
	return err
}

// IsDuplicateKey reports unique-constraint violations from either a
// translating dialect or the raw driver message.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
