package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const startAttemptRetries = 3

// Actor is the authenticated user an operation runs on behalf of.
type Actor struct {
	ID   uint
	Role models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// GradedEvent is delivered to listeners once an attempt reaches GRADED.
type GradedEvent struct {
	Attempt models.StudentExam
	Exam    models.Exam
}

type GradeListener interface {
	AttemptGraded(ctx context.Context, ev GradedEvent)
}

type GradeListenerFunc func(ctx context.Context, ev GradedEvent)

func (f GradeListenerFunc) AttemptGraded(ctx context.Context, ev GradedEvent) { f(ctx, ev) }

// ExamService runs the exam attempt lifecycle:
// NOT_STARTED -> IN_PROGRESS -> SUBMITTED -> GRADED. Submission grades
// synchronously, so attempts are persisted as IN_PROGRESS or GRADED only.
type ExamService struct {
	exams     repository.ExamRepository
	attempts  repository.AttemptRepository
	locks     *keyedMutex
	listeners []GradeListener

	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

func NewExamService(exams repository.ExamRepository, attempts repository.AttemptRepository, listeners ...GradeListener) *ExamService {
	return &ExamService{
		exams:     exams,
		attempts:  attempts,
		locks:     newKeyedMutex(),
		listeners: listeners,
		now:       time.Now,
		shuffle:   rand.Shuffle,
	}
}

func (s *ExamService) AddListener(l GradeListener) {
	s.listeners = append(s.listeners, l)
}

func (s *ExamService) getExam(ctx context.Context, id uint, withQuestions bool) (*models.Exam, error) {
	var (
		exam *models.Exam
		err  error
	)
	if withQuestions {
		exam, err = s.exams.GetExamWithQuestions(ctx, id)
	} else {
		exam, err = s.exams.GetExam(ctx, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExamNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading exam")
	}
	return exam, nil
}

func (s *ExamService) ownedExam(ctx context.Context, actor Actor, id uint, withQuestions bool) (*models.Exam, error) {
	exam, err := s.getExam(ctx, id, withQuestions)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && exam.TeacherID != actor.ID {
		return nil, ErrNotExamOwner
	}
	return exam, nil
}

func (s *ExamService) ownedAttempt(ctx context.Context, attemptID, studentID uint) (*models.StudentExam, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading attempt")
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	return attempt, nil
}

// CreateExam stores exam as a draft.
func (s *ExamService) CreateExam(ctx context.Context, exam *models.Exam) (*models.Exam, error) {
	exam.Status = models.ExamDraft
	exam.TotalQuestions = 0
	exam.Questions = nil
	if err := s.exams.CreateExam(ctx, exam); err != nil {
		return nil, err
	}
	return s.getExam(ctx, exam.ID, false)
}

// GetExam returns an exam as seen by actor. Students only see published exams
// and never the question set.
func (s *ExamService) GetExam(ctx context.Context, actor Actor, id uint) (*models.Exam, error) {
	if actor.Role == models.RoleStudent {
		exam, err := s.getExam(ctx, id, false)
		if err != nil {
			return nil, err
		}
		if exam.Status != models.ExamPublished {
			return nil, ErrExamNotFound
		}
		return exam, nil
	}
	return s.ownedExam(ctx, actor, id, true)
}

func (s *ExamService) ListExams(ctx context.Context, actor Actor, f repository.ExamFilter, p repository.Page) ([]models.Exam, int64, error) {
	switch actor.Role {
	case models.RoleStudent:
		f.Status = models.ExamPublished
		f.TeacherID = 0
	case models.RoleTeacher:
		f.TeacherID = actor.ID
	}
	return s.exams.ListExams(ctx, f, p)
}

// AddQuestion appends q to an exam that nobody has attempted yet.
func (s *ExamService) AddQuestion(ctx context.Context, actor Actor, examID uint, q *models.Question) (*models.Question, error) {
	if !validQuestion(q) {
		return nil, ErrInvalidQuestion
	}

	exam, err := s.ownedExam(ctx, actor, examID, false)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, exam); err != nil {
		return nil, err
	}

	q.ExamID = exam.ID
	if q.Position == 0 {
		q.Position = exam.TotalQuestions
	}
	if err := s.exams.AddQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// validQuestion needs at least two answers with one of them correct.
func validQuestion(q *models.Question) bool {
	if len(q.Answers) < 2 {
		return false
	}
	for _, a := range q.Answers {
		if a.IsCorrect {
			return true
		}
	}
	return false
}

func (s *ExamService) ensureUnlocked(ctx context.Context, exam *models.Exam) error {
	n, err := s.exams.CountAttempts(ctx, exam.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrExamLocked
	}
	return nil
}

// UpdateExam replaces the settings of an exam that has no attempts yet.
func (s *ExamService) UpdateExam(ctx context.Context, actor Actor, examID uint, changes *models.Exam) (*models.Exam, error) {
	exam, err := s.ownedExam(ctx, actor, examID, false)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(ctx, exam); err != nil {
		return nil, err
	}

	exam.Title = changes.Title
	exam.Description = changes.Description
	exam.DurationMinutes = changes.DurationMinutes
	exam.PassingScore = changes.PassingScore
	exam.ShuffleQuestions = changes.ShuffleQuestions
	exam.ShuffleAnswers = changes.ShuffleAnswers
	exam.AllowRetake = changes.AllowRetake
	exam.MaxAttempts = changes.MaxAttempts
	exam.CourseID = changes.CourseID
	exam.SubjectID = changes.SubjectID
	exam.GradeID = changes.GradeID
	if err := s.exams.UpdateExam(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

// Publish opens a draft exam for attempts.
func (s *ExamService) Publish(ctx context.Context, actor Actor, examID uint) (*models.Exam, error) {
	return s.transition(ctx, actor, examID, models.ExamDraft, models.ExamPublished)
}

// Close stops new attempts. Attempts already in progress can still finish.
func (s *ExamService) Close(ctx context.Context, actor Actor, examID uint) (*models.Exam, error) {
	return s.transition(ctx, actor, examID, models.ExamPublished, models.ExamClosed)
}

func (s *ExamService) transition(ctx context.Context, actor Actor, examID uint, from, to models.ExamStatus) (*models.Exam, error) {
	exam, err := s.ownedExam(ctx, actor, examID, false)
	if err != nil {
		return nil, err
	}
	if exam.Status == to {
		return exam, nil
	}
	if exam.Status != from {
		return nil, errors.Wrapf(ErrExamTransition, "%s to %s", exam.Status, to)
	}
	if to == models.ExamPublished && exam.TotalQuestions == 0 {
		return nil, ErrExamEmpty
	}
	exam.Status = to
	if err := s.exams.UpdateExam(ctx, exam); err != nil {
		return nil, err
	}
	return exam, nil
}

func (s *ExamService) ListAttempts(ctx context.Context, actor Actor, examID uint) ([]models.StudentExam, error) {
	if _, err := s.ownedExam(ctx, actor, examID, false); err != nil {
		return nil, err
	}
	return s.attempts.ListByExam(ctx, examID)
}

// StartExam opens the next attempt of studentID at examID. Concurrent starts
// for the same pair are serialised here and, across processes, by the unique
// (student, exam, attempt number) index with a bounded retry.
func (s *ExamService) StartExam(ctx context.Context, examID, studentID uint) (*models.StudentExam, error) {
	exam, err := s.getExam(ctx, examID, false)
	if err != nil {
		return nil, err
	}
	if exam.Status != models.ExamPublished {
		return nil, ErrExamNotPublished
	}
	limit, unlimited := exam.AttemptLimit()
	if unlimited {
		limit = 0
	}

	unlock := s.locks.Lock(fmt.Sprintf("%d:%d", studentID, examID))
	defer unlock()

	for try := 1; ; try++ {
		attempt, err := s.attempts.CreateAttempt(ctx, repository.NewAttempt{
			ExamID:    exam.ID,
			StudentID: studentID,
			Limit:     limit,
			StartedAt: s.now().UTC(),
		})
		switch {
		case err == nil:
			attempt.Exam = exam
			log.Infow("exam attempt started", "exam_id", exam.ID, "student_id", studentID, "attempt", attempt.AttemptNumber)
			return attempt, nil
		case errors.Is(err, repository.ErrLimitReached):
			return nil, ErrAttemptLimitReached
		case errors.Is(err, repository.ErrDuplicate) && try < startAttemptRetries:
			log.Warnw("attempt number taken, retrying", "exam_id", exam.ID, "student_id", studentID, "try", try)
			continue
		default:
			return nil, errors.Wrap(err, "starting attempt")
		}
	}
}

// GetAttempt returns an attempt of studentID with its exam loaded.
func (s *ExamService) GetAttempt(ctx context.Context, attemptID, studentID uint) (*models.StudentExam, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	exam, err := s.getExam(ctx, attempt.ExamID, false)
	if err != nil {
		return nil, err
	}
	attempt.Exam = exam
	return attempt, nil
}

// GetShuffledQuestions returns the question set of the attempt's exam. The
// order of questions and of answers inside a question is randomised on every
// call when the exam asks for it.
func (s *ExamService) GetShuffledQuestions(ctx context.Context, attemptID, studentID uint) ([]dto.ExamQuestionResponse, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptClosed
	}
	exam, err := s.getExam(ctx, attempt.ExamID, true)
	if err != nil {
		return nil, err
	}

	questions := make([]models.Question, len(exam.Questions))
	for i, q := range exam.Questions {
		q.Answers = append([]models.Answer(nil), q.Answers...)
		questions[i] = q
	}
	if exam.ShuffleQuestions {
		s.shuffle(len(questions), func(i, j int) { questions[i], questions[j] = questions[j], questions[i] })
	}
	if exam.ShuffleAnswers {
		for i := range questions {
			answers := questions[i].Answers
			s.shuffle(len(answers), func(i, j int) { answers[i], answers[j] = answers[j], answers[i] })
		}
	}
	return dto.ToExamQuestionResponses(questions), nil
}

// SubmitAnswer records the answers chosen for one question, replacing any
// earlier choice for it.
func (s *ExamService) SubmitAnswer(ctx context.Context, attemptID, studentID, questionID uint, answerIDs []uint) error {
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return err
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptClosed
	}
	exam, err := s.getExam(ctx, attempt.ExamID, true)
	if err != nil {
		return err
	}
	if deadline, ok := exam.Deadline(attempt.StartedAt); ok && s.now().After(deadline) {
		return ErrAttemptExpired
	}

	var question *models.Question
	for i := range exam.Questions {
		if exam.Questions[i].ID == questionID {
			question = &exam.Questions[i]
			break
		}
	}
	if question == nil {
		return ErrQuestionNotInExam
	}

	seen := make(map[uint]bool, len(answerIDs))
	unique := make([]uint, 0, len(answerIDs))
	for _, id := range answerIDs {
		if !question.HasAnswer(id) {
			return ErrAnswerNotInQuestion
		}
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return s.attempts.ReplaceAnswers(ctx, attempt.ID, question.ID, unique)
}

// SubmitExam closes the attempt and grades it in the same step.
func (s *ExamService) SubmitExam(ctx context.Context, attemptID, studentID uint) (*models.StudentExam, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptClosed
	}
	return s.finalize(ctx, attempt)
}

func (s *ExamService) finalize(ctx context.Context, attempt *models.StudentExam) (*models.StudentExam, error) {
	exam, err := s.getExam(ctx, attempt.ExamID, true)
	if err != nil {
		return nil, err
	}
	answers, err := s.attempts.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}

	score, max := Score(exam.Questions, answers)
	grade := repository.Grade{
		Score:    score,
		MaxScore: max,
		Passed:   score >= exam.PassingScore,
		At:       s.now().UTC(),
	}
	if err := s.attempts.Finalize(ctx, attempt.ID, grade); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAttemptClosed
		}
		return nil, err
	}

	attempt.Status = models.AttemptGraded
	attempt.Score = &grade.Score
	attempt.MaxScore = grade.MaxScore
	attempt.Passed = grade.Passed
	attempt.SubmittedAt = &grade.At
	log.Infow("exam attempt graded", "attempt_id", attempt.ID, "exam_id", exam.ID, "score", score, "max_score", max, "passed", grade.Passed)

	ev := GradedEvent{Attempt: *attempt, Exam: *exam}
	ev.Exam.Questions = nil
	for _, l := range s.listeners {
		l.AttemptGraded(ctx, ev)
	}

	attempt.Exam = &ev.Exam
	return attempt, nil
}

// GetExamResults lists the graded attempts of a student at an exam, oldest
// attempt first.
func (s *ExamService) GetExamResults(ctx context.Context, studentID, examID uint) ([]models.StudentExam, error) {
	if _, err := s.getExam(ctx, examID, false); err != nil {
		return nil, err
	}
	return s.attempts.ListGraded(ctx, studentID, examID)
}

// FinalizeExpired grades every in-progress attempt whose time ran out and
// returns how many were closed.
func (s *ExamService) FinalizeExpired(ctx context.Context) (int, error) {
	attempts, err := s.attempts.ListInProgress(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	closed := 0
	var errs error
	for i := range attempts {
		a := &attempts[i]
		if a.Exam == nil {
			continue
		}
		deadline, ok := a.Exam.Deadline(a.StartedAt)
		if !ok || !now.After(deadline) {
			continue
		}
		if _, err := s.finalize(ctx, a); err != nil {
			if errors.Is(err, ErrAttemptClosed) {
				continue
			}
			log.Errorw("🔥 failed to finalize expired attempt", "attempt_id", a.ID, "error", err)
			errs = multierr.Append(errs, errors.Wrapf(err, "finalizing attempt %d", a.ID))
			continue
		}
		closed++
	}
	return closed, errs
}

// Score sums the points of every question whose chosen answers match its
// correct answers exactly. max is the sum of all points.
func Score(questions []models.Question, answers []models.StudentAnswer) (score, max float64) {
	chosen := make(map[uint]map[uint]bool, len(questions))
	for _, a := range answers {
		if chosen[a.QuestionID] == nil {
			chosen[a.QuestionID] = make(map[uint]bool)
		}
		chosen[a.QuestionID][a.AnswerID] = true
	}

	for _, q := range questions {
		max += q.Points
		correct := q.CorrectAnswerIDs()
		picked := chosen[q.ID]
		if len(correct) == 0 || len(picked) != len(correct) {
			continue
		}
		match := true
		for _, id := range correct {
			if !picked[id] {
				match = false
				break
			}
		}
		if match {
			score += q.Points
		}
	}
	return score, max
}
