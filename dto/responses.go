package dto

import "time"

type UserResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresIn int64        `json:"expiresIn"`
	User      UserResponse `json:"user"`
}

type SubjectResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type GradeResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type CourseResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	TeacherID   uint   `json:"teacherId"`
	TeacherName string `json:"teacherName"`
	SubjectID   *uint  `json:"subjectId"`
	GradeID     *uint  `json:"gradeId"`
}

type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	CourseID   uint      `json:"courseId"`
	StudentID  uint      `json:"studentId"`
	FullName   string    `json:"fullName"`
	EnrolledAt time.Time `json:"enrolledAt"`
}

type ClassroomStudentResponse struct {
	ID       uint   `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type ClassroomResponse struct {
	ID          uint                       `json:"id"`
	Name        string                     `json:"name"`
	JoinCode    string                     `json:"joinCode,omitempty"`
	TeacherID   uint                       `json:"teacherId"`
	TeacherName string                     `json:"teacherName"`
	GradeID     *uint                      `json:"gradeId"`
	Students    []ClassroomStudentResponse `json:"students"`
}

type ExamResponse struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	DurationMinutes  int       `json:"durationMinutes"`
	TotalQuestions   int       `json:"totalQuestions"`
	PassingScore     float64   `json:"passingScore"`
	ShuffleQuestions bool      `json:"shuffleQuestions"`
	ShuffleAnswers   bool      `json:"shuffleAnswers"`
	AllowRetake      bool      `json:"allowRetake"`
	MaxAttempts      int       `json:"maxAttempts"`
	Status           string    `json:"status"`
	TeacherID        uint      `json:"teacherId"`
	FullName         string    `json:"fullName"`
	CourseID         *uint     `json:"courseId"`
	SubjectID        *uint     `json:"subjectId"`
	GradeID          *uint     `json:"gradeId"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TeacherAnswerResponse is the authoring view of an answer and is only
// returned to the exam's teacher.
type TeacherAnswerResponse struct {
	ID        uint   `json:"id"`
	Content   string `json:"content"`
	Position  int    `json:"position"`
	IsCorrect bool   `json:"isCorrect"`
}

type QuestionResponse struct {
	ID       uint                    `json:"id"`
	Content  string                  `json:"content"`
	Points   float64                 `json:"points"`
	Position int                     `json:"position"`
	Answers  []TeacherAnswerResponse `json:"answers"`
}

type ExamDetailResponse struct {
	ExamResponse
	Questions []QuestionResponse `json:"questions"`
}

// AnswerResponse is what a student sees. It has no correctness field.
type AnswerResponse struct {
	ID      uint   `json:"id"`
	Content string `json:"content"`
}

type ExamQuestionResponse struct {
	ID      uint             `json:"id"`
	Content string           `json:"content"`
	Points  float64          `json:"points"`
	Answers []AnswerResponse `json:"answers"`
}

type StudentExamResponse struct {
	ID            uint       `json:"id"`
	ExamID        uint       `json:"examId"`
	StudentID     uint       `json:"studentId"`
	StudentName   string     `json:"studentName,omitempty"`
	AttemptNumber int        `json:"attemptNumber"`
	Status        string     `json:"status"`
	StartedAt     time.Time  `json:"startedAt"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	SubmittedAt   *time.Time `json:"submittedAt"`
	Score         *float64   `json:"score"`
	MaxScore      float64    `json:"maxScore"`
	Passed        bool       `json:"passed"`
}

type CertificateResponse struct {
	ID            uint      `json:"id"`
	StudentExamID uint      `json:"studentExamId"`
	ExamTitle     string    `json:"examTitle"`
	URL           string    `json:"url"`
	IssuedAt      time.Time `json:"issuedAt"`
}

type UploadSignatureResponse struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"apiKey"`
	CloudName string `json:"cloudName"`
	Folder    string `json:"folder"`
}
