package handlers

import (
	"strings"
	"time"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// dbError turns gorm errors into the sentinels the error handler knows.
func dbError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case repository.IsDuplicateKey(err):
		return errors.Wrap(repository.ErrDuplicate, err.Error())
	}
	return err
}

func (h *Handler) ListSubjects(c *fiber.Ctx) error {
	var subjects []models.Subject
	if err := h.db.WithContext(c.UserContext()).Order("name ASC").Find(&subjects).Error; err != nil {
		return err
	}
	out := make([]dto.SubjectResponse, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, dto.ToSubjectResponse(s))
	}
	return c.JSON(dto.OK("", out))
}

func (h *Handler) CreateSubject(c *fiber.Ctx) error {
	var req dto.SubjectRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	subject := models.Subject{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := h.db.WithContext(c.UserContext()).Create(&subject).Error; err != nil {
		return dbError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Subject created", dto.ToSubjectResponse(subject)))
}

func (h *Handler) ListGrades(c *fiber.Ctx) error {
	var grades []models.Grade
	if err := h.db.WithContext(c.UserContext()).Order("level ASC, name ASC").Find(&grades).Error; err != nil {
		return err
	}
	out := make([]dto.GradeResponse, 0, len(grades))
	for _, g := range grades {
		out = append(out, dto.ToGradeResponse(g))
	}
	return c.JSON(dto.OK("", out))
}

func (h *Handler) CreateGrade(c *fiber.Ctx) error {
	var req dto.GradeRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	grade := models.Grade{Name: strings.TrimSpace(req.Name), Level: req.Level}
	if err := h.db.WithContext(c.UserContext()).Create(&grade).Error; err != nil {
		return dbError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Grade created", dto.ToGradeResponse(grade)))
}

func (h *Handler) ListCourses(c *fiber.Ctx) error {
	q := h.db.WithContext(c.UserContext()).Model(&models.Course{})
	if id := c.QueryInt("teacherId", 0); id > 0 {
		q = q.Where("teacher_id = ?", id)
	}
	if id := c.QueryInt("subjectId", 0); id > 0 {
		q = q.Where("subject_id = ?", id)
	}
	if id := c.QueryInt("gradeId", 0); id > 0 {
		q = q.Where("grade_id = ?", id)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return err
	}
	p := page(c)
	var courses []models.Course
	if err := q.Preload("Teacher").Order("id DESC").Offset(p.Offset()).Limit(p.Size).Find(&courses).Error; err != nil {
		return err
	}
	out := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		out = append(out, dto.ToCourseResponse(course))
	}
	return c.JSON(dto.OK("", dto.NewPage(out, total, p.Number, p.Size)))
}

func (h *Handler) CreateCourse(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.CourseRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	course := models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		TeacherID:   ci.ID,
		SubjectID:   req.SubjectID,
		GradeID:     req.GradeID,
	}
	db := h.db.WithContext(c.UserContext())
	if err := db.Omit("Teacher", "Subject", "Grade").Create(&course).Error; err != nil {
		return dbError(err)
	}
	if err := db.Preload("Teacher").First(&course, course.ID).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Course created", dto.ToCourseResponse(course)))
}

func (h *Handler) GetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "courseId")
	if err != nil {
		return err
	}
	var course models.Course
	if err := h.db.WithContext(c.UserContext()).Preload("Teacher").First(&course, id).Error; err != nil {
		return dbError(err)
	}
	return c.JSON(dto.OK("", dto.ToCourseResponse(course)))
}

// Enroll adds the calling student to a course.
func (h *Handler) Enroll(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "courseId")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		return dbError(err)
	}
	enrollment := models.Enrollment{CourseID: course.ID, StudentID: ci.ID, EnrolledAt: time.Now().UTC()}
	if err := db.Omit("Course", "Student").Create(&enrollment).Error; err != nil {
		if repository.IsDuplicateKey(err) {
			return ErrAlreadyEnrolled
		}
		return err
	}
	if err := db.Preload("Student").First(&enrollment, enrollment.ID).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Enrolled", dto.ToEnrollmentResponse(enrollment)))
}

// ListEnrollments shows a course roster to its teacher and to admins.
func (h *Handler) ListEnrollments(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "courseId")
	if err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var course models.Course
	if err := db.First(&course, id).Error; err != nil {
		return dbError(err)
	}
	if ci.Role != models.RoleAdmin && course.TeacherID != ci.ID {
		return ErrForbidden
	}

	var enrollments []models.Enrollment
	if err := db.Preload("Student").Where("course_id = ?", course.ID).Order("enrolled_at ASC").Find(&enrollments).Error; err != nil {
		return err
	}
	out := make([]dto.EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, dto.ToEnrollmentResponse(e))
	}
	return c.JSON(dto.OK("", out))
}
