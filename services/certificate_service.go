package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"sync"
	"time"

	"github.com/anjiri1684/classroom/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

//go:embed templates/certificate.html
var certificateHTML string

var certificateTemplate = template.Must(template.New("certificate").Parse(certificateHTML))

const certificateTimeout = time.Minute

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// CertificateUploader stores a rendered certificate and returns its public URL.
type CertificateUploader interface {
	UploadCertificate(ctx context.Context, pdf []byte, publicID string) (string, error)
}

// ChromeRenderer prints HTML to PDF with a headless Chrome driven by chromedp.
type ChromeRenderer struct{}

func (ChromeRenderer) RenderPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).WithLandscape(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, errors.Wrap(err, "printing certificate")
	}
	return pdfBuffer, nil
}

// CertificateService issues a PDF certificate for every passed attempt.
type CertificateService struct {
	db       *gorm.DB
	renderer PDFRenderer
	uploader CertificateUploader
	now      func() time.Time
	wg       sync.WaitGroup
}

func NewCertificateService(db *gorm.DB, renderer PDFRenderer, uploader CertificateUploader) *CertificateService {
	return &CertificateService{db: db, renderer: renderer, uploader: uploader, now: time.Now}
}

// AttemptGraded issues the certificate in the background so grading never
// waits on the browser or the upload.
func (s *CertificateService) AttemptGraded(_ context.Context, ev GradedEvent) {
	if !ev.Attempt.Passed {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), certificateTimeout)
		defer cancel()
		if _, err := s.Issue(ctx, ev); err != nil {
			log.Errorw("🔥 certificate generation failed", "attempt_id", ev.Attempt.ID, "error", err)
		}
	}()
}

// Wait blocks until every background issue has finished.
func (s *CertificateService) Wait() { s.wg.Wait() }

// Issue renders, uploads and records the certificate of a passed attempt.
// Issuing twice for the same attempt returns the first certificate.
func (s *CertificateService) Issue(ctx context.Context, ev GradedEvent) (*models.Certificate, error) {
	if !ev.Attempt.Passed {
		return nil, ErrNotPassed
	}

	var existing models.Certificate
	err := s.db.WithContext(ctx).Where("student_exam_id = ?", ev.Attempt.ID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "looking up certificate")
	}

	var student models.User
	if err := s.db.WithContext(ctx).First(&student, ev.Attempt.StudentID).Error; err != nil {
		return nil, errors.Wrap(err, "loading student")
	}

	issuedAt := s.now().UTC()
	htmlData, err := renderCertificate(student.FullName, ev, issuedAt)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderPDF(ctx, htmlData)
	if err != nil {
		return nil, err
	}
	publicID := fmt.Sprintf("%d_%d_%s", ev.Attempt.StudentID, ev.Attempt.ID, uuid.NewString())
	url, err := s.uploader.UploadCertificate(ctx, pdf, publicID)
	if err != nil {
		return nil, errors.Wrap(err, "uploading certificate")
	}

	cert := models.Certificate{
		StudentExamID:  ev.Attempt.ID,
		StudentID:      ev.Attempt.StudentID,
		ExamID:         ev.Exam.ID,
		ExamTitle:      ev.Exam.Title,
		IssuedAt:       issuedAt,
		CertificateURL: url,
	}
	if err := s.db.WithContext(ctx).Create(&cert).Error; err != nil {
		return nil, errors.Wrap(err, "saving certificate")
	}
	log.Infow("✅ certificate issued", "attempt_id", ev.Attempt.ID, "student_id", ev.Attempt.StudentID)
	return &cert, nil
}

// Get returns the certificate of an attempt owned by studentID.
func (s *CertificateService) Get(ctx context.Context, attemptID, studentID uint) (*models.Certificate, error) {
	var attempt models.StudentExam
	err := s.db.WithContext(ctx).First(&attempt, attemptID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading attempt")
	}
	if attempt.StudentID != studentID {
		return nil, ErrNotAttemptOwner
	}
	if attempt.Status != models.AttemptGraded || !attempt.Passed {
		return nil, ErrNotPassed
	}

	var cert models.Certificate
	err = s.db.WithContext(ctx).Where("student_exam_id = ?", attempt.ID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCertificateNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "loading certificate")
	}
	return &cert, nil
}

func renderCertificate(studentName string, ev GradedEvent, issuedAt time.Time) (string, error) {
	if studentName == "" {
		studentName = "Student"
	}
	var score float64
	if ev.Attempt.Score != nil {
		score = *ev.Attempt.Score
	}
	data := struct {
		StudentName   string
		ExamTitle     string
		Score         string
		MaxScore      string
		AttemptNumber int
		IssuedOn      string
	}{
		StudentName:   studentName,
		ExamTitle:     ev.Exam.Title,
		Score:         strconv.FormatFloat(score, 'f', -1, 64),
		MaxScore:      strconv.FormatFloat(ev.Attempt.MaxScore, 'f', -1, 64),
		AttemptNumber: ev.Attempt.AttemptNumber,
		IssuedOn:      issuedAt.Format("January 2, 2006"),
	}

	var rendered bytes.Buffer
	if err := certificateTemplate.Execute(&rendered, data); err != nil {
		return "", errors.Wrap(err, "rendering certificate")
	}
	return rendered.String(), nil
}
