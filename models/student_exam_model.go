package models

import "time"

type AttemptStatus string

const (
	AttemptNotStarted AttemptStatus = "NOT_STARTED"
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptSubmitted  AttemptStatus = "SUBMITTED"
	AttemptGraded     AttemptStatus = "GRADED"
)

// StudentExam is one attempt of a student at an exam.
type StudentExam struct {
	ID            uint          `gorm:"primaryKey"`
	ExamID        uint          `gorm:"not null;uniqueIndex:idx_student_exam_attempt,priority:2"`
	StudentID     uint          `gorm:"not null;uniqueIndex:idx_student_exam_attempt,priority:1"`
	AttemptNumber int           `gorm:"not null;uniqueIndex:idx_student_exam_attempt,priority:3"`
	Status        AttemptStatus `gorm:"size:20;not null;default:'IN_PROGRESS';index"`
	StartedAt     time.Time     `gorm:"not null"`
	SubmittedAt   *time.Time
	Score         *float64
	MaxScore      float64 `gorm:"not null;default:0"`
	Passed        bool    `gorm:"not null;default:false"`

	Exam    *Exam `gorm:"foreignKey:ExamID;constraint:OnDelete:RESTRICT"`
	Student *User `gorm:"foreignKey:StudentID;constraint:OnDelete:RESTRICT"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type StudentAnswer struct {
	ID            uint `gorm:"primaryKey"`
	StudentExamID uint `gorm:"not null;index"`
	QuestionID    uint `gorm:"not null;index"`
	AnswerID      uint `gorm:"not null"`

	StudentExam *StudentExam `gorm:"foreignKey:StudentExamID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
}
