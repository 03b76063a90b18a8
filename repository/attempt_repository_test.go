package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/testutil"
)

func TestCreateAttemptNumbersAndLimit(t *testing.T) {
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "Ms Frizzle", "frizzle@school.test", models.RoleTeacher)
	student := testutil.CreateUser(t, db, "Arnold", "arnold@school.test", models.RoleStudent)
	exam := testutil.CreateExam(t, db, teacher.ID, 2)

	repo := repository.NewAttemptRepository(db)
	ctx := context.Background()

	for want := 1; want <= 2; want++ {
		a, err := repo.CreateAttempt(ctx, repository.NewAttempt{
			ExamID: exam.ID, StudentID: student.ID, Limit: 2, StartedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("attempt %d: %v", want, err)
		}
		if a.AttemptNumber != want {
			t.Errorf("AttemptNumber = %d, want %d", a.AttemptNumber, want)
		}
		if a.Status != models.AttemptInProgress {
			t.Errorf("Status = %s, want IN_PROGRESS", a.Status)
		}
	}

	_, err := repo.CreateAttempt(ctx, repository.NewAttempt{
		ExamID: exam.ID, StudentID: student.ID, Limit: 2, StartedAt: time.Now(),
	})
	if !errors.Is(err, repository.ErrLimitReached) {
		t.Fatalf("third attempt error = %v, want ErrLimitReached", err)
	}

	var rows int64
	db.Model(&models.StudentExam{}).Where("student_id = ?", student.ID).Count(&rows)
	if rows != 2 {
		t.Errorf("got %d attempt rows, want 2", rows)
	}
}

func TestAttemptNumberUniqueIndex(t *testing.T) {
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "T", "t@school.test", models.RoleTeacher)
	student := testutil.CreateUser(t, db, "S", "s@school.test", models.RoleStudent)
	exam := testutil.CreateExam(t, db, teacher.ID, 1)

	first := models.StudentExam{ExamID: exam.ID, StudentID: student.ID, AttemptNumber: 1, Status: models.AttemptInProgress, StartedAt: time.Now()}
	if err := db.Create(&first).Error; err != nil {
		t.Fatal(err)
	}
	dup := models.StudentExam{ExamID: exam.ID, StudentID: student.ID, AttemptNumber: 1, Status: models.AttemptInProgress, StartedAt: time.Now()}
	err := db.Create(&dup).Error
	if !repository.IsDuplicateKey(err) {
		t.Fatalf("duplicate attempt number error = %v, want unique violation", err)
	}
}

func TestFinalizeOnlyOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "T", "t@school.test", models.RoleTeacher)
	student := testutil.CreateUser(t, db, "S", "s@school.test", models.RoleStudent)
	exam := testutil.CreateExam(t, db, teacher.ID, 1)

	repo := repository.NewAttemptRepository(db)
	ctx := context.Background()
	a, err := repo.CreateAttempt(ctx, repository.NewAttempt{ExamID: exam.ID, StudentID: student.ID, StartedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	grade := repository.Grade{Score: 1, MaxScore: 1, Passed: true, At: time.Now()}
	if err := repo.Finalize(ctx, a.ID, grade); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	if err := repo.Finalize(ctx, a.ID, grade); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("second Finalize() error = %v, want ErrConflict", err)
	}

	got, err := repo.GetAttempt(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.AttemptGraded || got.Score == nil || *got.Score != 1 || !got.Passed {
		t.Errorf("unexpected attempt after finalize: %+v", got)
	}

	graded, err := repo.ListGraded(ctx, student.ID, exam.ID)
	if err != nil || len(graded) != 1 {
		t.Fatalf("ListGraded() = %d rows, err %v", len(graded), err)
	}
}

func TestReplaceAnswers(t *testing.T) {
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "T", "t@school.test", models.RoleTeacher)
	student := testutil.CreateUser(t, db, "S", "s@school.test", models.RoleStudent)
	exam := testutil.CreateExam(t, db, teacher.ID, 1)
	q := exam.Questions[0]

	repo := repository.NewAttemptRepository(db)
	ctx := context.Background()
	a, err := repo.CreateAttempt(ctx, repository.NewAttempt{ExamID: exam.ID, StudentID: student.ID, StartedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.ReplaceAnswers(ctx, a.ID, q.ID, []uint{q.Answers[1].ID, q.Answers[2].ID}); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceAnswers(ctx, a.ID, q.ID, []uint{q.Answers[0].ID}); err != nil {
		t.Fatal(err)
	}

	answers, err := repo.ListAnswers(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != 1 || answers[0].AnswerID != q.Answers[0].ID {
		t.Fatalf("answers after replace = %+v", answers)
	}
}
