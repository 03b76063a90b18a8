package handlers

import (
	"strings"

	"github.com/anjiri1684/classroom/dto"
	"github.com/anjiri1684/classroom/models"
	"github.com/anjiri1684/classroom/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (h *Handler) loadClassroom(db *gorm.DB, id uint) (*models.Classroom, error) {
	var room models.Classroom
	err := db.Preload("Teacher").Preload("Students", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("users.id ASC")
	}).First(&room, id).Error
	if err != nil {
		return nil, dbError(err)
	}
	return &room, nil
}

func isMember(room *models.Classroom, userID uint) bool {
	for _, s := range room.Students {
		if s != nil && s.ID == userID {
			return true
		}
	}
	return false
}

func (h *Handler) CreateClassroom(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.ClassroomRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	var room models.Classroom
	err = h.db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		code, err := utils.GenerateUniqueJoinCode(tx)
		if err != nil {
			return err
		}
		room = models.Classroom{
			Name:      strings.TrimSpace(req.Name),
			JoinCode:  code,
			TeacherID: ci.ID,
			GradeID:   req.GradeID,
		}
		return tx.Omit("Teacher", "Students").Create(&room).Error
	})
	if err != nil {
		return dbError(err)
	}

	loaded, err := h.loadClassroom(h.db.WithContext(c.UserContext()), room.ID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OK("Classroom created", dto.ToClassroomResponse(*loaded, true)))
}

// ListClassrooms returns the classrooms a caller teaches or attends. Admins
// see all of them.
func (h *Handler) ListClassrooms(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}

	q := h.db.WithContext(c.UserContext()).Model(&models.Classroom{})
	switch ci.Role {
	case models.RoleTeacher:
		q = q.Where("teacher_id = ?", ci.ID)
	case models.RoleStudent:
		q = q.Where("id IN (?)", h.db.Table("classroom_students").Select("classroom_id").Where("user_id = ?", ci.ID))
	}

	var rooms []models.Classroom
	if err := q.Preload("Teacher").Order("id ASC").Find(&rooms).Error; err != nil {
		return err
	}
	out := make([]dto.ClassroomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, dto.ToClassroomResponse(room, ci.Role != models.RoleStudent))
	}
	return c.JSON(dto.OK("", out))
}

func (h *Handler) GetClassroom(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "classroomId")
	if err != nil {
		return err
	}
	room, err := h.loadClassroom(h.db.WithContext(c.UserContext()), id)
	if err != nil {
		return err
	}

	owner := ci.Role == models.RoleAdmin || room.TeacherID == ci.ID
	if !owner && !isMember(room, ci.ID) {
		return ErrForbidden
	}
	return c.JSON(dto.OK("", dto.ToClassroomResponse(*room, owner)))
}

// JoinClassroom adds the calling student to the classroom with the code.
func (h *Handler) JoinClassroom(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	var req dto.JoinClassroomRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	var room models.Classroom
	if err := db.Where("join_code = ?", strings.ToUpper(strings.TrimSpace(req.Code))).First(&room).Error; err != nil {
		return dbError(err)
	}
	if err := h.addStudent(db, room.ID, ci.ID); err != nil {
		return err
	}

	loaded, err := h.loadClassroom(db, room.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Joined classroom", dto.ToClassroomResponse(*loaded, false)))
}

// AddClassroomStudent lets the classroom teacher enrol a student directly.
func (h *Handler) AddClassroomStudent(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "classroomId")
	if err != nil {
		return err
	}
	var req dto.AddStudentRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	db := h.db.WithContext(c.UserContext())
	room, err := h.loadClassroom(db, id)
	if err != nil {
		return err
	}
	if ci.Role != models.RoleAdmin && room.TeacherID != ci.ID {
		return ErrForbidden
	}

	student, err := h.users.GetByID(c.UserContext(), req.StudentID)
	if err != nil {
		return err
	}
	if student.Role != models.RoleStudent {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "Only students can join a classroom")
	}
	if err := h.addStudent(db, room.ID, student.ID); err != nil {
		return err
	}

	loaded, err := h.loadClassroom(db, room.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("Student added", dto.ToClassroomResponse(*loaded, true)))
}

func (h *Handler) ListClassroomStudents(c *fiber.Ctx) error {
	ci, err := caller(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "classroomId")
	if err != nil {
		return err
	}
	room, err := h.loadClassroom(h.db.WithContext(c.UserContext()), id)
	if err != nil {
		return err
	}
	if ci.Role != models.RoleAdmin && room.TeacherID != ci.ID && !isMember(room, ci.ID) {
		return ErrForbidden
	}
	return c.JSON(dto.OK("", dto.ToClassroomResponse(*room, false).Students))
}

// addStudent is idempotent: joining twice leaves one membership row.
func (h *Handler) addStudent(db *gorm.DB, classroomID, studentID uint) error {
	return db.Table("classroom_students").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]interface{}{"classroom_id": classroomID, "user_id": studentID}).Error
}
