package dto

import (
	"strings"

	"github.com/anjiri1684/classroom/models"
)

const unknownName = "Unknown"

func displayName(u *models.User) string {
	if u == nil || strings.TrimSpace(u.FullName) == "" {
		return unknownName
	}
	return u.FullName
}

func ToUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Role:      u.Role.String(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

func ToUserResponses(users []models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserResponse(u))
	}
	return out
}

func ToSubjectResponse(s models.Subject) SubjectResponse {
	return SubjectResponse{ID: s.ID, Name: s.Name, Description: s.Description}
}

func ToGradeResponse(g models.Grade) GradeResponse {
	return GradeResponse{ID: g.ID, Name: g.Name, Level: g.Level}
}

func ToCourseResponse(c models.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		TeacherID:   c.TeacherID,
		TeacherName: displayName(c.Teacher),
		SubjectID:   c.SubjectID,
		GradeID:     c.GradeID,
	}
}

func ToEnrollmentResponse(e models.Enrollment) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         e.ID,
		CourseID:   e.CourseID,
		StudentID:  e.StudentID,
		FullName:   displayName(e.Student),
		EnrolledAt: e.EnrolledAt,
	}
}

// ToClassroomResponse projects a classroom and its roster. The join code is
// only included when withCode is set.
func ToClassroomResponse(c models.Classroom, withCode bool) ClassroomResponse {
	resp := ClassroomResponse{
		ID:          c.ID,
		Name:        c.Name,
		TeacherID:   c.TeacherID,
		TeacherName: displayName(c.Teacher),
		GradeID:     c.GradeID,
		Students:    make([]ClassroomStudentResponse, 0, len(c.Students)),
	}
	if withCode {
		resp.JoinCode = c.JoinCode
	}
	for _, s := range c.Students {
		if s == nil {
			continue
		}
		resp.Students = append(resp.Students, ClassroomStudentResponse{
			ID:       s.ID,
			FullName: displayName(s),
			Email:    s.Email,
		})
	}
	return resp
}

func ToExamResponse(e models.Exam) ExamResponse {
	return ExamResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		DurationMinutes:  e.DurationMinutes,
		TotalQuestions:   e.TotalQuestions,
		PassingScore:     e.PassingScore,
		ShuffleQuestions: e.ShuffleQuestions,
		ShuffleAnswers:   e.ShuffleAnswers,
		AllowRetake:      e.AllowRetake,
		MaxAttempts:      e.MaxAttempts,
		Status:           string(e.Status),
		TeacherID:        e.TeacherID,
		FullName:         displayName(e.Teacher),
		CourseID:         e.CourseID,
		SubjectID:        e.SubjectID,
		GradeID:          e.GradeID,
		CreatedAt:        e.CreatedAt,
	}
}

func ToExamResponses(exams []models.Exam) []ExamResponse {
	out := make([]ExamResponse, 0, len(exams))
	for _, e := range exams {
		out = append(out, ToExamResponse(e))
	}
	return out
}

// ToQuestionResponse is the teacher view of a question, correct answers
// included.
func ToQuestionResponse(q models.Question) QuestionResponse {
	answers := make([]TeacherAnswerResponse, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, TeacherAnswerResponse{
			ID:        a.ID,
			Content:   a.Content,
			Position:  a.Position,
			IsCorrect: a.IsCorrect,
		})
	}
	return QuestionResponse{
		ID:       q.ID,
		Content:  q.Content,
		Points:   q.Points,
		Position: q.Position,
		Answers:  answers,
	}
}

func ToExamDetailResponse(e models.Exam) ExamDetailResponse {
	questions := make([]QuestionResponse, 0, len(e.Questions))
	for _, q := range e.Questions {
		questions = append(questions, ToQuestionResponse(q))
	}
	return ExamDetailResponse{ExamResponse: ToExamResponse(e), Questions: questions}
}

// ToExamQuestionResponses builds the student view of a question set in two
// passes: question fields first, then answers through ToAnswerResponses.
func ToExamQuestionResponses(questions []models.Question) []ExamQuestionResponse {
	out := make([]ExamQuestionResponse, len(questions))
	for i, q := range questions {
		out[i] = ExamQuestionResponse{ID: q.ID, Content: q.Content, Points: q.Points}
	}
	for i, q := range questions {
		out[i].Answers = ToAnswerResponses(q.Answers)
	}
	return out
}

func ToAnswerResponses(answers []models.Answer) []AnswerResponse {
	out := make([]AnswerResponse, 0, len(answers))
	for _, a := range answers {
		out = append(out, AnswerResponse{ID: a.ID, Content: a.Content})
	}
	return out
}

func ToStudentExamResponse(a models.StudentExam) StudentExamResponse {
	resp := StudentExamResponse{
		ID:            a.ID,
		ExamID:        a.ExamID,
		StudentID:     a.StudentID,
		AttemptNumber: a.AttemptNumber,
		Status:        string(a.Status),
		StartedAt:     a.StartedAt,
		SubmittedAt:   a.SubmittedAt,
		Score:         a.Score,
		MaxScore:      a.MaxScore,
		Passed:        a.Passed,
	}
	if a.Student != nil {
		resp.StudentName = displayName(a.Student)
	}
	if a.Exam != nil && a.Status == models.AttemptInProgress {
		if d, ok := a.Exam.Deadline(a.StartedAt); ok {
			resp.Deadline = &d
		}
	}
	return resp
}

func ToStudentExamResponses(attempts []models.StudentExam) []StudentExamResponse {
	out := make([]StudentExamResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, ToStudentExamResponse(a))
	}
	return out
}

func ToCertificateResponse(c models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:            c.ID,
		StudentExamID: c.StudentExamID,
		ExamTitle:     c.ExamTitle,
		URL:           c.CertificateURL,
		IssuedAt:      c.IssuedAt,
	}
}

// ExamFromRequest builds a draft exam owned by teacherID.
func ExamFromRequest(req CreateExamRequest, teacherID uint) *models.Exam {
	return &models.Exam{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		DurationMinutes:  req.DurationMinutes,
		PassingScore:     req.PassingScore,
		ShuffleQuestions: req.ShuffleQuestions,
		ShuffleAnswers:   req.ShuffleAnswers,
		AllowRetake:      req.AllowRetake,
		MaxAttempts:      req.MaxAttempts,
		Status:           models.ExamDraft,
		TeacherID:        teacherID,
		CourseID:         req.CourseID,
		SubjectID:        req.SubjectID,
		GradeID:          req.GradeID,
	}
}

func QuestionFromRequest(req QuestionRequest, examID uint) *models.Question {
	q := &models.Question{
		ExamID:   examID,
		Content:  strings.TrimSpace(req.Content),
		Points:   req.Points,
		Position: req.Position,
		Answers:  make([]models.Answer, 0, len(req.Answers)),
	}
	if q.Points == 0 {
		q.Points = 1
	}
	for i, a := range req.Answers {
		q.Answers = append(q.Answers, models.Answer{
			Content:   strings.TrimSpace(a.Content),
			Position:  i,
			IsCorrect: a.IsCorrect,
		})
	}
	return q
}
