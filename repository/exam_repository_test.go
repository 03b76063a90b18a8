package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/testutil"
)

func TestExamRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "T", "t@school.test", models.RoleTeacher)
	repo := repository.NewExamRepository(db)
	ctx := context.Background()

	exam := &models.Exam{Title: "Draft", TeacherID: teacher.ID, Status: models.ExamDraft}
	if err := repo.CreateExam(ctx, exam); err != nil {
		t.Fatal(err)
	}

	for i := 2; i >= 1; i-- {
		q := &models.Question{
			ExamID: exam.ID, Content: "q", Points: 1, Position: i,
			Answers: []models.Answer{{Content: "b", Position: 1}, {Content: "a", Position: 0, IsCorrect: true}},
		}
		if err := repo.AddQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.GetExamWithQuestions(ctx, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalQuestions != 2 || len(got.Questions) != 2 {
		t.Fatalf("TotalQuestions = %d, loaded %d questions", got.TotalQuestions, len(got.Questions))
	}
	if got.Questions[0].Position != 1 || got.Questions[0].Answers[0].Content != "a" {
		t.Errorf("questions or answers not ordered by position: %+v", got.Questions)
	}
	if got.Teacher == nil || got.Teacher.ID != teacher.ID {
		t.Errorf("teacher not preloaded")
	}

	exams, total, err := repo.ListExams(ctx, repository.ExamFilter{Status: models.ExamPublished}, repository.Page{Size: 10})
	if err != nil || total != 0 || len(exams) != 0 {
		t.Errorf("published filter returned %d/%d, err %v", len(exams), total, err)
	}

	if _, err := repo.GetExam(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetExam(missing) error = %v, want ErrNotFound", err)
	}
}
