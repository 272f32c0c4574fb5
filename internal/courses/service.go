package courses

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edtech/courses-service/internal/storage"
)

// MaxPDFSizeBytes caps uploaded PDF payloads.
const MaxPDFSizeBytes = int64(25 << 20) // 25 MB

// ErrNotPDF is returned when an uploaded payload is not a PDF.
var ErrNotPDF = errors.New("uploaded file is not a PDF")

// ErrTooLarge is returned when an uploaded payload exceeds MaxPDFSizeBytes.
var ErrTooLarge = errors.New("uploaded file exceeds size limit")

// ErrNotEnrolled is returned when a user requests lesson content for a
// course they are not enrolled in.
var ErrNotEnrolled = errors.New("user not enrolled in course")

// Store is the persistence interface the service depends on. *Repository is
// the production implementation.
type Store interface {
	CreateCourse(ctx context.Context, title, description string) (*Course, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
	ListCourses(ctx context.Context, offset, limit int) ([]Course, error)
	UpdateCourse(ctx context.Context, id, title, description string) (*Course, error)
	DeleteCourse(ctx context.Context, id string) error

	CreateLesson(ctx context.Context, courseID, title string, position int) (*Lesson, error)
	GetLesson(ctx context.Context, id string) (*Lesson, error)
	ListLessons(ctx context.Context, courseID string, offset, limit int) ([]LessonSummary, error)
	UpdateLesson(ctx context.Context, id, title string, position int) (*Lesson, error)
	DeleteLesson(ctx context.Context, id string) error

	CreateDocument(ctx context.Context, title, bucket, objectPath string, sizeBytes int64) (*PDFDocument, error)
	GetDocument(ctx context.Context, id string) (*PDFDocument, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]PDFDocument, error)
	DeleteDocument(ctx context.Context, id string) error

	AttachPDF(ctx context.Context, lessonID, documentID string, position int) (*LessonPDF, error)
	ListLessonPDFs(ctx context.Context, lessonID string) ([]LessonPDFDetail, error)
	DetachPDF(ctx context.Context, id string) error

	CreateEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error)
	ListEnrollments(ctx context.Context, courseID string, offset, limit int) ([]Enrollment, error)
	DeleteEnrollment(ctx context.Context, id string) error
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

// Service contains business logic for course content. It owns the rules
// around PDF uploads and enrollment-gated downloads; plain CRUD passes
// through to the store.
type Service struct {
	store   Store
	objects storage.Storage
	bucket  string
	urlTTL  time.Duration
}

// NewService creates a new course-content Service. bucket is the bucket new
// uploads are recorded under; urlTTL is the lifetime of minted signed URLs.
func NewService(store Store, objects storage.Storage, bucket string, urlTTL time.Duration) *Service {
	if urlTTL <= 0 {
		urlTTL = time.Minute
	}
	return &Service{store: store, objects: objects, bucket: bucket, urlTTL: urlTTL}
}

/* Courses and lessons: CRUD pass-through */

func (s *Service) CreateCourse(ctx context.Context, title, description string) (*Course, error) {
	return s.store.CreateCourse(ctx, title, description)
}

func (s *Service) GetCourse(ctx context.Context, id string) (*Course, error) {
	return s.store.GetCourse(ctx, id)
}

func (s *Service) ListCourses(ctx context.Context, offset, limit int) ([]Course, error) {
	return s.store.ListCourses(ctx, offset, limit)
}

func (s *Service) UpdateCourse(ctx context.Context, id, title, description string) (*Course, error) {
	return s.store.UpdateCourse(ctx, id, title, description)
}

func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	return s.store.DeleteCourse(ctx, id)
}

func (s *Service) CreateLesson(ctx context.Context, courseID, title string, position int) (*Lesson, error) {
	return s.store.CreateLesson(ctx, courseID, title, position)
}

func (s *Service) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	return s.store.GetLesson(ctx, id)
}

func (s *Service) ListLessons(ctx context.Context, courseID string, offset, limit int) ([]LessonSummary, error) {
	return s.store.ListLessons(ctx, courseID, offset, limit)
}

func (s *Service) UpdateLesson(ctx context.Context, id, title string, position int) (*Lesson, error) {
	return s.store.UpdateLesson(ctx, id, title, position)
}

func (s *Service) DeleteLesson(ctx context.Context, id string) error {
	return s.store.DeleteLesson(ctx, id)
}

/* Documents */

// UploadDocument validates the payload, stores it through the object-storage
// gateway under a fresh key, and records the document. The object key is
// pdfs/{uuid}/{filename} so re-uploads of the same filename never collide.
func (s *Service) UploadDocument(ctx context.Context, title, filename string, data []byte) (*PDFDocument, error) {
	if int64(len(data)) > MaxPDFSizeBytes {
		return nil, ErrTooLarge
	}
	if !isPDF(filename, data) {
		return nil, ErrNotPDF
	}
	if title == "" {
		title = strings.TrimSuffix(filename, path.Ext(filename))
	}

	key := "pdfs/" + uuid.NewString() + "/" + path.Base(filename)
	storedPath, err := s.objects.Upload(ctx, s.bucket, key, data)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	doc, err := s.store.CreateDocument(ctx, title, s.bucket, storedPath, int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("record document: %w", err)
	}
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*PDFDocument, error) {
	return s.store.GetDocument(ctx, id)
}

func (s *Service) ListDocuments(ctx context.Context, offset, limit int) ([]PDFDocument, error) {
	return s.store.ListDocuments(ctx, offset, limit)
}

func (s *Service) DeleteDocument(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, id)
}

// DocumentURL mints a signed download URL for a document.
func (s *Service) DocumentURL(ctx context.Context, documentID string) (string, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	u, err := s.objects.SignedURL(ctx, doc.Bucket, doc.ObjectPath, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("sign document url: %w", err)
	}
	return u, nil
}

/* Lesson-PDF links */

func (s *Service) AttachPDF(ctx context.Context, lessonID, documentID string, position int) (*LessonPDF, error) {
	return s.store.AttachPDF(ctx, lessonID, documentID, position)
}

func (s *Service) ListLessonPDFs(ctx context.Context, lessonID string) ([]LessonPDFDetail, error) {
	return s.store.ListLessonPDFs(ctx, lessonID)
}

func (s *Service) DetachPDF(ctx context.Context, id string) error {
	return s.store.DetachPDF(ctx, id)
}

/* Enrollments */

// Enroll enrolls a user in a course after checking the course exists.
func (s *Service) Enroll(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.store.CreateEnrollment(ctx, userID, courseID)
}

func (s *Service) ListEnrollments(ctx context.Context, courseID string, offset, limit int) ([]Enrollment, error) {
	return s.store.ListEnrollments(ctx, courseID, offset, limit)
}

func (s *Service) DeleteEnrollment(ctx context.Context, id string) error {
	return s.store.DeleteEnrollment(ctx, id)
}

// LessonDocumentURL mints a signed URL for a document attached to a lesson,
// provided the user is enrolled in the lesson's course.
func (s *Service) LessonDocumentURL(ctx context.Context, userID, lessonID, documentID string) (string, error) {
	lesson, err := s.store.GetLesson(ctx, lessonID)
	if err != nil {
		return "", err
	}

	enrolled, err := s.store.IsEnrolled(ctx, userID, lesson.CourseID)
	if err != nil {
		return "", err
	}
	if !enrolled {
		return "", ErrNotEnrolled
	}

	attached, err := s.store.ListLessonPDFs(ctx, lessonID)
	if err != nil {
		return "", err
	}
	var doc *LessonPDFDetail
	for i := range attached {
		if attached[i].DocumentID == documentID {
			doc = &attached[i]
			break
		}
	}
	if doc == nil {
		return "", ErrNotFound
	}

	u, err := s.objects.SignedURL(ctx, doc.Bucket, doc.ObjectPath, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("sign lesson document url: %w", err)
	}
	return u, nil
}

// IsNotFound returns true when the error indicates a missing record.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// isPDF accepts files with a .pdf extension whose payload starts with the
// PDF magic bytes. Empty payloads are rejected.
func isPDF(filename string, data []byte) bool {
	if !strings.EqualFold(path.Ext(filename), ".pdf") {
		return false
	}
	return len(data) >= 5 && string(data[:5]) == "%PDF-"
}
