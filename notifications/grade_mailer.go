package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"sync"
	"time"

	"github.com/anjiri1684/classroom/repository"
	"github.com/anjiri1684/classroom/services"
	"github.com/gofiber/fiber/v2/log"
)

const sendTimeout = 15 * time.Second

var resultTemplate = template.Must(template.New("result").Parse(
	`<h1>Your result for {{ .ExamTitle }}</h1>` +
		`<p>Hi {{ .Name }},</p>` +
		`<p>Attempt {{ .Attempt }} was graded: <b>{{ .Score }} / {{ .MaxScore }}</b>.</p>` +
		`{{ if .Passed }}<p>Congratulations, you passed!</p>{{ else }}<p>You did not reach the passing score this time.</p>{{ end }}`))

// GradeMailer emails students their result once an attempt is graded.
type GradeMailer struct {
	mailer Mailer
	users  repository.UserRepository
	wg     sync.WaitGroup
}

func NewGradeMailer(mailer Mailer, users repository.UserRepository) *GradeMailer {
	return &GradeMailer{mailer: mailer, users: users}
}

func (g *GradeMailer) AttemptGraded(_ context.Context, ev services.GradedEvent) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := g.send(ctx, ev); err != nil {
			log.Errorw("🔥 failed to send result email", "attempt_id", ev.Attempt.ID, "error", err)
		}
	}()
}

// Wait blocks until every queued mail has been handed to the mailer.
func (g *GradeMailer) Wait() { g.wg.Wait() }

func (g *GradeMailer) send(ctx context.Context, ev services.GradedEvent) error {
	student, err := g.users.GetByID(ctx, ev.Attempt.StudentID)
	if err != nil {
		return err
	}

	var score float64
	if ev.Attempt.Score != nil {
		score = *ev.Attempt.Score
	}
	data := struct {
		Name      string
		ExamTitle string
		Attempt   int
		Score     string
		MaxScore  string
		Passed    bool
	}{
		Name:      student.FullName,
		ExamTitle: ev.Exam.Title,
		Attempt:   ev.Attempt.AttemptNumber,
		Score:     strconv.FormatFloat(score, 'f', -1, 64),
		MaxScore:  strconv.FormatFloat(ev.Attempt.MaxScore, 'f', -1, 64),
		Passed:    ev.Attempt.Passed,
	}
	if data.Name == "" {
		data.Name = "there"
	}

	var html bytes.Buffer
	if err := resultTemplate.Execute(&html, data); err != nil {
		return err
	}
	return g.mailer.Send(ctx, Message{
		ToName:  student.FullName,
		ToEmail: student.Email,
		Subject: "Result: " + ev.Exam.Title,
		Text:    fmt.Sprintf("%s: %s / %s", ev.Exam.Title, data.Score, data.MaxScore),
		HTML:    html.String(),
	})
}
