package models

import "time"

type Subject struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:120;not null;uniqueIndex"`
	Description string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Grade struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:120;not null;uniqueIndex"`
	Level int    `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Course struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`

	TeacherID uint     `gorm:"not null;index"`
	Teacher   *User    `gorm:"foreignKey:TeacherID;constraint:OnDelete:RESTRICT"`
	SubjectID *uint    `gorm:"index"`
	Subject   *Subject `gorm:"foreignKey:SubjectID"`
	GradeID   *uint    `gorm:"index"`
	Grade     *Grade   `gorm:"foreignKey:GradeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Enrollment struct {
	ID        uint `gorm:"primaryKey"`
	CourseID  uint `gorm:"not null;uniqueIndex:idx_enrollment_course_student"`
	StudentID uint `gorm:"not null;uniqueIndex:idx_enrollment_course_student"`

	Course  *Course `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Student *User   `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`

	EnrolledAt time.Time `gorm:"not null"`
}

type Classroom struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"size:255;not null"`
	JoinCode string `gorm:"size:10;not null;uniqueIndex"`

	TeacherID uint    `gorm:"not null;index"`
	Teacher   *User   `gorm:"foreignKey:TeacherID;constraint:OnDelete:RESTRICT"`
	GradeID   *uint   `gorm:"index"`
	Students  []*User `gorm:"many2many:classroom_students;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
