package models

import "time"

type ExamStatus string

const (
	ExamDraft     ExamStatus = "DRAFT"
	ExamPublished ExamStatus = "PUBLISHED"
	ExamClosed    ExamStatus = "CLOSED"
)

type Exam struct {
	ID               uint       `gorm:"primaryKey"`
	Title            string     `gorm:"size:255;not null"`
	Description      string     `gorm:"type:text"`
	DurationMinutes  int        `gorm:"not null;default:0"`
	TotalQuestions   int        `gorm:"not null;default:0"`
	PassingScore     float64    `gorm:"not null;default:0"`
	ShuffleQuestions bool       `gorm:"not null;default:false"`
	ShuffleAnswers   bool       `gorm:"not null;default:false"`
	AllowRetake      bool       `gorm:"not null;default:false"`
	MaxAttempts      int        `gorm:"not null;default:0"`
	Status           ExamStatus `gorm:"size:20;not null;default:'DRAFT';index"`

	TeacherID uint  `gorm:"not null;index"`
	Teacher   *User `gorm:"foreignKey:TeacherID;constraint:OnDelete:RESTRICT"`
	CourseID  *uint `gorm:"index"`
	SubjectID *uint `gorm:"index"`
	GradeID   *uint `gorm:"index"`

	Questions []Question `gorm:"foreignKey:ExamID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttemptLimit reports how many attempts a student may make. A positive
// MaxAttempts always caps; otherwise retakes are unlimited when allowed and
// restricted to a single attempt when not.
func (e Exam) AttemptLimit() (limit int, unlimited bool) {
	if e.MaxAttempts > 0 {
		return e.MaxAttempts, false
	}
	if e.AllowRetake {
		return 0, true
	}
	return 1, false
}

// Deadline is the latest instant an attempt started at startedAt may be
// answered. ok is false for exams without a duration.
func (e Exam) Deadline(startedAt time.Time) (deadline time.Time, ok bool) {
	if e.DurationMinutes <= 0 {
		return time.Time{}, false
	}
	return startedAt.Add(time.Duration(e.DurationMinutes) * time.Minute), true
}

func (e Exam) MaxScore() float64 {
	var total float64
	for _, q := range e.Questions {
		total += q.Points
	}
	return total
}
