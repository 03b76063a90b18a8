package dto

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN TEACHER STUDENT"`
}

type UpdateStatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type SubjectRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
}

type GradeRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Level int    `json:"level" validate:"gte=0"`
}

type CourseRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	SubjectID   *uint  `json:"subjectId"`
	GradeID     *uint  `json:"gradeId"`
}

type ClassroomRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	GradeID *uint  `json:"gradeId"`
}

type JoinClassroomRequest struct {
	Code string `json:"code" validate:"required,len=8"`
}

type AddStudentRequest struct {
	StudentID uint `json:"studentId" validate:"required"`
}

type CreateExamRequest struct {
	Title            string  `json:"title" validate:"required,max=255"`
	Description      string  `json:"description"`
	DurationMinutes  int     `json:"durationMinutes" validate:"gte=0,lte=1440"`
	PassingScore     float64 `json:"passingScore" validate:"gte=0"`
	ShuffleQuestions bool    `json:"shuffleQuestions"`
	ShuffleAnswers   bool    `json:"shuffleAnswers"`
	AllowRetake      bool    `json:"allowRetake"`
	MaxAttempts      int     `json:"maxAttempts" validate:"gte=0"`
	CourseID         *uint   `json:"courseId"`
	SubjectID        *uint   `json:"subjectId"`
	GradeID          *uint   `json:"gradeId"`
}

type AnswerRequest struct {
	Content   string `json:"content" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionRequest struct {
	Content  string          `json:"content" validate:"required"`
	Points   float64         `json:"points" validate:"gte=0"`
	Position int             `json:"position" validate:"gte=0"`
	Answers  []AnswerRequest `json:"answers" validate:"required,min=2,dive"`
}

type SubmitAnswerRequest struct {
	QuestionID uint   `json:"questionId" validate:"required"`
	AnswerIDs  []uint `json:"answerIds" validate:"required,min=1,dive,required"`
}
