package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/testutil"
	"gorm.io/gorm"
)

type examFixture struct {
	db      *gorm.DB
	svc     *ExamService
	teacher *models.User
	student *models.User
	exam    *models.Exam
}

func newExamFixture(t *testing.T, questions int, opts ...testutil.ExamOptions) *examFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "Ms Frizzle", "frizzle@school.test", models.RoleTeacher)
	student := testutil.CreateUser(t, db, "Arnold", "arnold@school.test", models.RoleStudent)
	exam := testutil.CreateExam(t, db, teacher.ID, questions, opts...)
	svc := NewExamService(repository.NewExamRepository(db), repository.NewAttemptRepository(db))
	return &examFixture{db: db, svc: svc, teacher: teacher, student: student, exam: exam}
}

func (f *examFixture) questions(t *testing.T) []models.Question {
	t.Helper()
	exam, err := repository.NewExamRepository(f.db).GetExamWithQuestions(context.Background(), f.exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	return exam.Questions
}

func maxAttempts(n int) testutil.ExamOptions {
	return func(e *models.Exam) { e.MaxAttempts = n }
}

func TestStartExamAttemptCap(t *testing.T) {
	tests := []struct {
		name      string
		opts      []testutil.ExamOptions
		allowed   int
		unlimited bool
	}{
		{name: "single attempt by default", allowed: 1},
		{name: "max attempts caps", opts: []testutil.ExamOptions{maxAttempts(3)}, allowed: 3},
		{name: "max attempts caps even with retake", opts: []testutil.ExamOptions{maxAttempts(2), func(e *models.Exam) { e.AllowRetake = true }}, allowed: 2},
		{name: "retake without cap", opts: []testutil.ExamOptions{func(e *models.Exam) { e.AllowRetake = true }}, allowed: 5, unlimited: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExamFixture(t, 1, tt.opts...)
			ctx := context.Background()

			for i := 1; i <= tt.allowed; i++ {
				a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
				if err != nil {
					t.Fatalf("attempt %d: %v", i, err)
				}
				if a.AttemptNumber != i {
					t.Errorf("AttemptNumber = %d, want %d", a.AttemptNumber, i)
				}
			}
			if tt.unlimited {
				return
			}
			if _, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID); !errors.Is(err, ErrAttemptLimitReached) {
				t.Fatalf("extra attempt error = %v, want ErrAttemptLimitReached", err)
			}
		})
	}
}

func TestStartExamRejectsUnpublished(t *testing.T) {
	f := newExamFixture(t, 1, func(e *models.Exam) { e.Status = models.ExamDraft })
	ctx := context.Background()

	if _, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID); !errors.Is(err, ErrExamNotPublished) {
		t.Fatalf("draft: err = %v, want ErrExamNotPublished", err)
	}
	if _, err := f.svc.StartExam(ctx, 9999, f.student.ID); !errors.Is(err, ErrExamNotFound) {
		t.Fatalf("missing: err = %v, want ErrExamNotFound", err)
	}
}

func TestStartExamConcurrentRespectsCap(t *testing.T) {
	f := newExamFixture(t, 1, maxAttempts(2))
	ctx := context.Background()

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started []int
		limited int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				started = append(started, a.AttemptNumber)
			case errors.Is(err, ErrAttemptLimitReached):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	sort.Ints(started)
	if len(started) != 2 || started[0] != 1 || started[1] != 2 {
		t.Fatalf("started attempts = %v, want [1 2]", started)
	}
	if limited != workers-2 {
		t.Errorf("limited = %d, want %d", limited, workers-2)
	}
	if n := f.svc.locks.size(); n != 0 {
		t.Errorf("keyed locks left behind: %d", n)
	}
}

func TestSubmitExamScoresBySetEquality(t *testing.T) {
	f := newExamFixture(t, 3)
	ctx := context.Background()
	qs := f.questions(t)

	// second question gets a second correct answer
	if err := f.db.Model(&models.Answer{}).Where("id = ?", qs[1].Answers[1].ID).Update("is_correct", true).Error; err != nil {
		t.Fatal(err)
	}

	a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	// q1 right (1 pt), q2 only one of two correct (0 of 2), q3 right (3 pts)
	answers := map[uint][]uint{
		qs[0].ID: {qs[0].Answers[0].ID},
		qs[1].ID: {qs[1].Answers[0].ID},
		qs[2].ID: {qs[2].Answers[0].ID, qs[2].Answers[0].ID},
	}
	for qid, ids := range answers {
		if err := f.svc.SubmitAnswer(ctx, a.ID, f.student.ID, qid, ids); err != nil {
			t.Fatalf("answer %d: %v", qid, err)
		}
	}

	graded, err := f.svc.SubmitExam(ctx, a.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if graded.Status != models.AttemptGraded {
		t.Errorf("Status = %s, want GRADED", graded.Status)
	}
	if graded.Score == nil || *graded.Score != 4 {
		t.Errorf("Score = %v, want 4", graded.Score)
	}
	if graded.MaxScore != 6 {
		t.Errorf("MaxScore = %v, want 6", graded.MaxScore)
	}
	if !graded.Passed {
		t.Error("Passed = false, want true")
	}

	results, err := f.svc.GetExamResults(ctx, f.student.ID, f.exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Score == nil || *results[0].Score != 4 {
		t.Fatalf("results = %+v", results)
	}
}

func TestSubmitAnswerReplacesEarlierChoice(t *testing.T) {
	f := newExamFixture(t, 1)
	ctx := context.Background()
	q := f.questions(t)[0]

	a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SubmitAnswer(ctx, a.ID, f.student.ID, q.ID, []uint{q.Answers[1].ID}); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SubmitAnswer(ctx, a.ID, f.student.ID, q.ID, []uint{q.Answers[0].ID}); err != nil {
		t.Fatal(err)
	}
	graded, err := f.svc.SubmitExam(ctx, a.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *graded.Score != 1 {
		t.Errorf("Score = %v, want 1", *graded.Score)
	}
}

func TestSubmitAnswerGuards(t *testing.T) {
	f := newExamFixture(t, 2)
	ctx := context.Background()
	qs := f.questions(t)
	other := testutil.CreateUser(t, f.db, "Wanda", "wanda@school.test", models.RoleStudent)

	a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		attemptID uint
		studentID uint
		question  uint
		answers   []uint
		want      error
	}{
		{"unknown attempt", 9999, f.student.ID, qs[0].ID, []uint{qs[0].Answers[0].ID}, ErrAttemptNotFound},
		{"someone else's attempt", a.ID, other.ID, qs[0].ID, []uint{qs[0].Answers[0].ID}, ErrNotAttemptOwner},
		{"question of another exam", a.ID, f.student.ID, 9999, []uint{qs[0].Answers[0].ID}, ErrQuestionNotInExam},
		{"answer of another question", a.ID, f.student.ID, qs[0].ID, []uint{qs[1].Answers[0].ID}, ErrAnswerNotInQuestion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.SubmitAnswer(ctx, tt.attemptID, tt.studentID, tt.question, tt.answers)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := f.svc.SubmitExam(ctx, a.ID, f.student.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.SubmitAnswer(ctx, a.ID, f.student.ID, qs[0].ID, []uint{qs[0].Answers[0].ID}); !errors.Is(err, ErrAttemptClosed) {
		t.Fatalf("after submit: err = %v, want ErrAttemptClosed", err)
	}
	if _, err := f.svc.SubmitExam(ctx, a.ID, f.student.ID); !errors.Is(err, ErrAttemptClosed) {
		t.Fatalf("second submit: err = %v, want ErrAttemptClosed", err)
	}
}

func TestSubmitAnswerAfterDeadline(t *testing.T) {
	f := newExamFixture(t, 1)
	ctx := context.Background()
	q := f.questions(t)[0]

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return start }
	a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}

	f.svc.now = func() time.Time { return start.Add(31 * time.Minute) }
	if err := f.svc.SubmitAnswer(ctx, a.ID, f.student.ID, q.ID, []uint{q.Answers[0].ID}); !errors.Is(err, ErrAttemptExpired) {
		t.Fatalf("err = %v, want ErrAttemptExpired", err)
	}
}

func TestGetShuffledQuestionsIsPermutation(t *testing.T) {
	f := newExamFixture(t, 5, func(e *models.Exam) {
		e.ShuffleQuestions = true
		e.ShuffleAnswers = true
	})
	ctx := context.Background()

	// reverse everything so the order visibly changes
	f.svc.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}

	a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.GetShuffledQuestions(ctx, a.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}

	stored := f.questions(t)
	if len(got) != len(stored) {
		t.Fatalf("got %d questions, want %d", len(got), len(stored))
	}
	for i := range got {
		want := stored[len(stored)-1-i]
		if got[i].ID != want.ID {
			t.Errorf("question %d = %d, want %d", i, got[i].ID, want.ID)
		}
		if len(got[i].Answers) != len(want.Answers) {
			t.Fatalf("question %d has %d answers, want %d", i, len(got[i].Answers), len(want.Answers))
		}
		if got[i].Answers[0].ID != want.Answers[len(want.Answers)-1].ID {
			t.Errorf("answers of question %d not shuffled", want.ID)
		}
	}

	// stored order is untouched
	again := f.questions(t)
	for i := range stored {
		if again[i].ID != stored[i].ID || again[i].Answers[0].ID != stored[i].Answers[0].ID {
			t.Fatal("stored question order changed")
		}
	}
}

func TestGetShuffledQuestionsRequiresOpenAttempt(t *testing.T) {
	f := newExamFixture(t, 1)
	ctx := context.Background()
	a, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SubmitExam(ctx, a.ID, f.student.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.GetShuffledQuestions(ctx, a.ID, f.student.ID); !errors.Is(err, ErrAttemptClosed) {
		t.Fatalf("err = %v, want ErrAttemptClosed", err)
	}
}

func TestTeacherExamLifecycle(t *testing.T) {
	db := testutil.OpenDB(t)
	teacher := testutil.CreateUser(t, db, "Ms Frizzle", "frizzle@school.test", models.RoleTeacher)
	intruder := testutil.CreateUser(t, db, "Mr Ratburn", "ratburn@school.test", models.RoleTeacher)
	student := testutil.CreateUser(t, db, "Arnold", "arnold@school.test", models.RoleStudent)
	svc := NewExamService(repository.NewExamRepository(db), repository.NewAttemptRepository(db))
	ctx := context.Background()
	owner := Actor{ID: teacher.ID, Role: models.RoleTeacher}

	exam, err := svc.CreateExam(ctx, &models.Exam{Title: "Photosynthesis", TeacherID: teacher.ID, DurationMinutes: 10, PassingScore: 1})
	if err != nil {
		t.Fatal(err)
	}
	if exam.Status != models.ExamDraft {
		t.Fatalf("Status = %s, want DRAFT", exam.Status)
	}
	if _, err := svc.Publish(ctx, owner, exam.ID); !errors.Is(err, ErrExamEmpty) {
		t.Fatalf("publish empty: err = %v, want ErrExamEmpty", err)
	}

	bad := &models.Question{Content: "?", Answers: []models.Answer{{Content: "a"}, {Content: "b"}}}
	if _, err := svc.AddQuestion(ctx, owner, exam.ID, bad); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("no correct answer: err = %v, want ErrInvalidQuestion", err)
	}

	q := &models.Question{Content: "Plants need?", Points: 2, Answers: []models.Answer{{Content: "Light", IsCorrect: true}, {Content: "Noise"}}}
	if _, err := svc.AddQuestion(ctx, Actor{ID: intruder.ID, Role: models.RoleTeacher}, exam.ID, q); !errors.Is(err, ErrNotExamOwner) {
		t.Fatalf("intruder: err = %v, want ErrNotExamOwner", err)
	}
	if _, err := svc.AddQuestion(ctx, owner, exam.ID, q); err != nil {
		t.Fatal(err)
	}

	exam, err = svc.Publish(ctx, owner, exam.ID)
	if err != nil {
		t.Fatal(err)
	}
	if exam.Status != models.ExamPublished || exam.TotalQuestions != 1 {
		t.Fatalf("exam = %s with %d questions", exam.Status, exam.TotalQuestions)
	}

	if _, err := svc.StartExam(ctx, exam.ID, student.ID); err != nil {
		t.Fatal(err)
	}
	more := &models.Question{Content: "Late", Answers: []models.Answer{{Content: "a", IsCorrect: true}, {Content: "b"}}}
	if _, err := svc.AddQuestion(ctx, owner, exam.ID, more); !errors.Is(err, ErrExamLocked) {
		t.Fatalf("after attempt: err = %v, want ErrExamLocked", err)
	}

	attempts, err := svc.ListAttempts(ctx, owner, exam.ID)
	if err != nil || len(attempts) != 1 {
		t.Fatalf("ListAttempts = %d, %v", len(attempts), err)
	}

	if _, err := svc.Close(ctx, owner, exam.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Publish(ctx, owner, exam.ID); !errors.Is(err, ErrExamTransition) {
		t.Fatalf("reopen: err = %v, want ErrExamTransition", err)
	}
	if _, err := svc.StartExam(ctx, exam.ID, student.ID); !errors.Is(err, ErrExamNotPublished) {
		t.Fatalf("start closed: err = %v, want ErrExamNotPublished", err)
	}
}

func TestListExamsScopesByRole(t *testing.T) {
	db := testutil.OpenDB(t)
	t1 := testutil.CreateUser(t, db, "T1", "t1@school.test", models.RoleTeacher)
	t2 := testutil.CreateUser(t, db, "T2", "t2@school.test", models.RoleTeacher)
	testutil.CreateExam(t, db, t1.ID, 1)
	testutil.CreateExam(t, db, t1.ID, 1, func(e *models.Exam) { e.Status = models.ExamDraft })
	testutil.CreateExam(t, db, t2.ID, 1)
	svc := NewExamService(repository.NewExamRepository(db), repository.NewAttemptRepository(db))
	page := repository.Page{Number: 0, Size: 50}

	tests := []struct {
		name  string
		actor Actor
		want  int64
	}{
		{"admin sees all", Actor{ID: 99, Role: models.RoleAdmin}, 3},
		{"teacher sees own", Actor{ID: t1.ID, Role: models.RoleTeacher}, 2},
		{"student sees published", Actor{ID: 42, Role: models.RoleStudent}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := svc.ListExams(context.Background(), tt.actor, repository.ExamFilter{}, page)
			if err != nil {
				t.Fatal(err)
			}
			if total != tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
		})
	}
}

func TestFinalizeExpiredNotifiesListeners(t *testing.T) {
	f := newExamFixture(t, 2)
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []GradedEvent
	)
	f.svc.AddListener(GradeListenerFunc(func(_ context.Context, ev GradedEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}))

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return start }
	late, err := f.svc.StartExam(ctx, f.exam.ID, f.student.ID)
	if err != nil {
		t.Fatal(err)
	}

	other := testutil.CreateUser(t, f.db, "Wanda", "wanda@school.test", models.RoleStudent)
	f.svc.now = func() time.Time { return start.Add(20 * time.Minute) }
	fresh, err := f.svc.StartExam(ctx, f.exam.ID, other.ID)
	if err != nil {
		t.Fatal(err)
	}

	f.svc.now = func() time.Time { return start.Add(35 * time.Minute) }
	n, err := f.svc.FinalizeExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("closed = %d, want 1", n)
	}
	if len(events) != 1 || events[0].Attempt.ID != late.ID {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Attempt.Passed {
		t.Error("blank attempt passed")
	}

	still, err := f.svc.GetAttempt(ctx, fresh.ID, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if still.Status != models.AttemptInProgress {
		t.Errorf("fresh attempt status = %s, want IN_PROGRESS", still.Status)
	}
}

func TestScore(t *testing.T) {
	qs := []models.Question{
		{ID: 1, Points: 2, Answers: []models.Answer{{ID: 10, IsCorrect: true}, {ID: 11}}},
		{ID: 2, Points: 3, Answers: []models.Answer{{ID: 20, IsCorrect: true}, {ID: 21, IsCorrect: true}, {ID: 22}}},
		{ID: 3, Points: 1, Answers: []models.Answer{{ID: 30}, {ID: 31}}},
	}
	tests := []struct {
		name    string
		answers []models.StudentAnswer
		want    float64
	}{
		{"nothing answered", nil, 0},
		{"single right", []models.StudentAnswer{{QuestionID: 1, AnswerID: 10}}, 2},
		{"single with extra wrong", []models.StudentAnswer{{QuestionID: 1, AnswerID: 10}, {QuestionID: 1, AnswerID: 11}}, 0},
		{"multi exact", []models.StudentAnswer{{QuestionID: 2, AnswerID: 20}, {QuestionID: 2, AnswerID: 21}}, 3},
		{"multi partial", []models.StudentAnswer{{QuestionID: 2, AnswerID: 21}}, 0},
		{"no correct answers never scores", []models.StudentAnswer{{QuestionID: 3, AnswerID: 30}}, 0},
		{"all right", []models.StudentAnswer{{QuestionID: 1, AnswerID: 10}, {QuestionID: 2, AnswerID: 20}, {QuestionID: 2, AnswerID: 21}}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, max := Score(qs, tt.answers)
			if got != tt.want {
				t.Errorf("score = %v, want %v", got, tt.want)
			}
			if max != 6 {
				t.Errorf("max = %v, want 6", max)
			}
		})
	}
}
