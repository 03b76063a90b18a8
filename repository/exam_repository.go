package repository

import (
	"context"

	"github.com/anjiri1684/classroom/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type gormExamRepository struct {
	db *gorm.DB
}

func NewExamRepository(db *gorm.DB) ExamRepository {
	return &gormExamRepository{db: db}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (r *gormExamRepository) GetExam(ctx context.Context, id uint) (*models.Exam, error) {
	var e models.Exam
	if err := r.db.WithContext(ctx).Preload("Teacher").First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *gormExamRepository) GetExamWithQuestions(ctx context.Context, id uint) (*models.Exam, error) {
	var e models.Exam
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Questions", byPosition).
		Preload("Questions.Answers", byPosition).
		First(&e, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *gormExamRepository) ListExams(ctx context.Context, f ExamFilter, p Page) ([]models.Exam, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Exam{})
	if f.TeacherID != 0 {
		q = q.Where("teacher_id = ?", f.TeacherID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CourseID != 0 {
		q = q.Where("course_id = ?", f.CourseID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "counting exams")
	}
	var exams []models.Exam
	err := q.Preload("Teacher").Order("created_at DESC, id DESC").Offset(p.Offset()).Limit(p.Size).Find(&exams).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing exams")
	}
	return exams, total, nil
}

func (r *gormExamRepository) CreateExam(ctx context.Context, e *models.Exam) error {
	if err := r.db.WithContext(ctx).Omit("Teacher", "Questions").Create(e).Error; err != nil {
		return errors.Wrap(translate(err), "creating exam")
	}
	return nil
}

func (r *gormExamRepository) UpdateExam(ctx context.Context, e *models.Exam) error {
	if err := r.db.WithContext(ctx).Omit("Teacher", "Questions").Save(e).Error; err != nil {
		return errors.Wrap(translate(err), "updating exam")
	}
	return nil
}

func (r *gormExamRepository) AddQuestion(ctx context.Context, q *models.Question) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		return tx.Model(&models.Exam{}).
			Where("id = ?", q.ExamID).
			UpdateColumn("total_questions", gorm.Expr("total_questions + ?", 1)).Error
	})
	if err != nil {
		return errors.Wrap(translate(err), "adding question")
	}
	return nil
}

func (r *gormExamRepository) CountAttempts(ctx context.Context, examID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.StudentExam{}).Where("exam_id = ?", examID).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "counting attempts")
	}
	return n, nil
}
