package models

import "time"

type Certificate struct {
	ID             uint      `gorm:"primaryKey"`
	StudentExamID  uint      `gorm:"not null;uniqueIndex"`
	StudentID      uint      `gorm:"not null;index"`
	ExamID         uint      `gorm:"not null;index"`
	ExamTitle      string    `gorm:"size:255;not null"`
	IssuedAt       time.Time `gorm:"not null"`
	CertificateURL string    `gorm:"type:text;not null"`

	Student *User `gorm:"foreignKey:StudentID"`
	Exam    *Exam `gorm:"foreignKey:ExamID"`
}
