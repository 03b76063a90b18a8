package models

import "time"

type Question struct {
	ID       uint    `gorm:"primaryKey"`
	ExamID   uint    `gorm:"not null;index"`
	Content  string  `gorm:"type:text;not null"`
	Points   float64 `gorm:"not null;default:1"`
	Position int     `gorm:"not null;default:0"`

	Answers []Answer `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Answer struct {
	ID         uint   `gorm:"primaryKey"`
	QuestionID uint   `gorm:"not null;index"`
	Content    string `gorm:"type:text;not null"`
	Position   int    `gorm:"not null;default:0"`
	IsCorrect  bool   `gorm:"not null;default:false"`
}

// CorrectAnswerIDs returns the ids of every answer flagged correct.
func (q Question) CorrectAnswerIDs() []uint {
	ids := make([]uint, 0, 1)
	for _, a := range q.Answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func (q Question) HasAnswer(id uint) bool {
	for _, a := range q.Answers {
		if a.ID == id {
			return true
		}
	}
	return false
}
