// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"testing"

	"github.com/anjiri1684/classroom/database"
	"github.com/anjiri1684/classroom/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns a migrated in-memory database. A single connection keeps
// the in-memory schema alive and serialises writers.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, name, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{FullName: name, Email: email, Role: role, IsActive: true}
	if err := u.SetPassword("password123"); err != nil {
		t.Fatal(err)
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

// ExamOptions tweaks the exam CreateExam builds.
type ExamOptions func(*models.Exam)

// CreateExam stores a published exam owned by teacherID with the given
// number of questions. Question i is worth i+1 points and has three answers,
// the first of which is correct.
func CreateExam(t testing.TB, db *gorm.DB, teacherID uint, questions int, opts ...ExamOptions) *models.Exam {
	t.Helper()
	exam := &models.Exam{
		Title:           "Algebra basics",
		DurationMinutes: 30,
		PassingScore:    1,
		Status:          models.ExamPublished,
		TeacherID:       teacherID,
	}
	for _, opt := range opts {
		opt(exam)
	}
	for i := 0; i < questions; i++ {
		exam.Questions = append(exam.Questions, models.Question{
			Content:  "Question " + string(rune('A'+i)),
			Points:   float64(i + 1),
			Position: i,
			Answers: []models.Answer{
				{Content: "right", Position: 0, IsCorrect: true},
				{Content: "wrong 1", Position: 1},
				{Content: "wrong 2", Position: 2},
			},
		})
	}
	exam.TotalQuestions = questions
	if err := db.Create(exam).Error; err != nil {
		t.Fatalf("create exam: %v", err)
	}
	return exam
}
