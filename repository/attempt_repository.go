package repository

import (
	"context"
	"database/sql"

	"github.com/anjiri1684/classroom/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type gormAttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &gormAttemptRepository{db: db}
}

func (r *gormAttemptRepository) CreateAttempt(ctx context.Context, na NewAttempt) (*models.StudentExam, error) {
	attempt := &models.StudentExam{
		ExamID:    na.ExamID,
		StudentID: na.StudentID,
		Status:    models.AttemptInProgress,
		StartedAt: na.StartedAt,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stats struct {
			Used    int64
			Highest sql.NullInt64
		}
		err := tx.Model(&models.StudentExam{}).
			Select("COUNT(*) AS used, MAX(attempt_number) AS highest").
			Where("student_id = ? AND exam_id = ?", na.StudentID, na.ExamID).
			Scan(&stats).Error
		if err != nil {
			return err
		}
		if na.Limit > 0 && stats.Used >= int64(na.Limit) {
			return ErrLimitReached
		}

		attempt.AttemptNumber = int(stats.Highest.Int64) + 1
		return tx.Omit("Exam", "Student").Create(attempt).Error
	})
	if err != nil {
		if errors.Is(err, ErrLimitReached) {
			return nil, ErrLimitReached
		}
		return nil, errors.Wrap(translate(err), "creating attempt")
	}
	return attempt, nil
}

func (r *gormAttemptRepository) GetAttempt(ctx context.Context, id uint) (*models.StudentExam, error) {
	var a models.StudentExam
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *gormAttemptRepository) ReplaceAnswers(ctx context.Context, attemptID, questionID uint, answerIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("student_exam_id = ? AND question_id = ?", attemptID, questionID).
			Delete(&models.StudentAnswer{}).Error
		if err != nil {
			return err
		}
		if len(answerIDs) == 0 {
			return nil
		}
		rows := make([]models.StudentAnswer, 0, len(answerIDs))
		for _, id := range answerIDs {
			rows = append(rows, models.StudentAnswer{
				StudentExamID: attemptID,
				QuestionID:    questionID,
				AnswerID:      id,
			})
		}
		return tx.Omit("StudentExam").Create(&rows).Error
	})
	return errors.Wrap(translate(err), "replacing answers")
}

func (r *gormAttemptRepository) ListAnswers(ctx context.Context, attemptID uint) ([]models.StudentAnswer, error) {
	var answers []models.StudentAnswer
	err := r.db.WithContext(ctx).
		Where("student_exam_id = ?", attemptID).
		Order("question_id ASC, answer_id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing answers")
	}
	return answers, nil
}

func (r *gormAttemptRepository) Finalize(ctx context.Context, attemptID uint, g Grade) error {
	res := r.db.WithContext(ctx).Model(&models.StudentExam{}).
		Where("id = ? AND status = ?", attemptID, models.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       models.AttemptGraded,
			"score":        g.Score,
			"max_score":    g.MaxScore,
			"passed":       g.Passed,
			"submitted_at": g.At,
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "finalizing attempt")
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *gormAttemptRepository) ListGraded(ctx context.Context, studentID, examID uint) ([]models.StudentExam, error) {
	var attempts []models.StudentExam
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND exam_id = ? AND status = ?", studentID, examID, models.AttemptGraded).
		Order("attempt_number ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing graded attempts")
	}
	return attempts, nil
}

func (r *gormAttemptRepository) ListByExam(ctx context.Context, examID uint) ([]models.StudentExam, error) {
	var attempts []models.StudentExam
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("exam_id = ?", examID).
		Order("student_id ASC, attempt_number ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing exam attempts")
	}
	return attempts, nil
}

func (r *gormAttemptRepository) ListInProgress(ctx context.Context) ([]models.StudentExam, error) {
	var attempts []models.StudentExam
	err := r.db.WithContext(ctx).
		Preload("Exam").
		Where("status = ?", models.AttemptInProgress).
		Order("started_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing attempts in progress")
	}
	return attempts, nil
}
