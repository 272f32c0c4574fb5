// Package admin exposes the management HTTP API for course content: CRUD on
// courses, lessons, PDF documents, lesson-PDF attachments, and enrollments.
//
// It is intentionally thin and delegates everything to a Service interface,
// so tests can substitute an in-memory implementation. Mount it behind
// authentication with an admin role, e.g.:
//
//	r.Route("/admin", func(r chi.Router) {
//		r.Use(middleware.RequireAuth(secret), middleware.RequireRole("admin"))
//		r.Mount("/", admin.Routes(svc))
//	})
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edtech/courses-service/internal/courses"
	"github.com/edtech/courses-service/internal/response"
)

// Service is the course-content interface the admin API manages.
// *courses.Service is the production implementation.
type Service interface {
	CreateCourse(ctx context.Context, title, description string) (*courses.Course, error)
	GetCourse(ctx context.Context, id string) (*courses.Course, error)
	ListCourses(ctx context.Context, offset, limit int) ([]courses.Course, error)
	UpdateCourse(ctx context.Context, id, title, description string) (*courses.Course, error)
	DeleteCourse(ctx context.Context, id string) error

	CreateLesson(ctx context.Context, courseID, title string, position int) (*courses.Lesson, error)
	GetLesson(ctx context.Context, id string) (*courses.Lesson, error)
	ListLessons(ctx context.Context, courseID string, offset, limit int) ([]courses.LessonSummary, error)
	UpdateLesson(ctx context.Context, id, title string, position int) (*courses.Lesson, error)
	DeleteLesson(ctx context.Context, id string) error

	UploadDocument(ctx context.Context, title, filename string, data []byte) (*courses.PDFDocument, error)
	GetDocument(ctx context.Context, id string) (*courses.PDFDocument, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]courses.PDFDocument, error)
	DeleteDocument(ctx context.Context, id string) error
	DocumentURL(ctx context.Context, documentID string) (string, error)

	AttachPDF(ctx context.Context, lessonID, documentID string, position int) (*courses.LessonPDF, error)
	ListLessonPDFs(ctx context.Context, lessonID string) ([]courses.LessonPDFDetail, error)
	DetachPDF(ctx context.Context, id string) error

	Enroll(ctx context.Context, userID, courseID string) (*courses.Enrollment, error)
	ListEnrollments(ctx context.Context, courseID string, offset, limit int) ([]courses.Enrollment, error)
	DeleteEnrollment(ctx context.Context, id string) error
}

// maxUploadBytes bounds the multipart form we are willing to parse.
const maxUploadBytes = courses.MaxPDFSizeBytes + 1<<20

// Routes returns an http.Handler with the management endpoints for all
// registered course-content resources.
func Routes(svc Service) http.Handler {
	r := chi.NewRouter()

	// Courses
	r.Post("/courses", createCourse(svc))
	r.Get("/courses", listCourses(svc))
	r.Get("/courses/{id}", getCourse(svc))
	r.Put("/courses/{id}", updateCourse(svc))
	r.Delete("/courses/{id}", deleteCourse(svc))

	// Lessons. The listing carries the owning course title and creation
	// time; the detail embeds attached PDFs.
	r.Post("/lessons", createLesson(svc))
	r.Get("/lessons", listLessons(svc))
	r.Get("/lessons/{id}", getLesson(svc))
	r.Put("/lessons/{id}", updateLesson(svc))
	r.Delete("/lessons/{id}", deleteLesson(svc))
	r.Post("/lessons/{id}/pdfs", attachPDF(svc))

	// PDF documents
	r.Post("/documents", uploadDocument(svc))
	r.Get("/documents", listDocuments(svc))
	r.Get("/documents/{id}", getDocument(svc))
	r.Get("/documents/{id}/url", documentURL(svc))
	r.Delete("/documents/{id}", deleteDocument(svc))

	// Lesson-PDF links
	r.Delete("/lesson-pdfs/{id}", detachPDF(svc))

	// Enrollments
	r.Post("/enrollments", createEnrollment(svc))
	r.Get("/enrollments", listEnrollments(svc))
	r.Delete("/enrollments/{id}", deleteEnrollment(svc))

	return r
}

/* Courses */

func createCourse(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := validateCourseReq(req); msg != "" {
			response.BadRequest(w, msg)
			return
		}
		c, err := svc.CreateCourse(r.Context(), req.Title, req.Description)
		if err != nil {
			response.InternalError(w)
			return
		}
		response.Created(w, c)
	}
}

func listCourses(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := parsePage(r)
		items, err := svc.ListCourses(r.Context(), offset, limit)
		if err != nil {
			response.InternalError(w)
			return
		}
		response.OK(w, items)
	}
}

func getCourse(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := svc.GetCourse(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupErr(w, err, "course not found")
			return
		}
		response.OK(w, c)
	}
}

func updateCourse(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := validateCourseReq(req); msg != "" {
			response.BadRequest(w, msg)
			return
		}
		c, err := svc.UpdateCourse(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description)
		if err != nil {
			writeLookupErr(w, err, "course not found")
			return
		}
		response.OK(w, c)
	}
}

func deleteCourse(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteCourse(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLookupErr(w, err, "course not found")
			return
		}
		response.NoContent(w)
	}
}

/* Lessons */

func createLesson(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lessonReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := validateLessonReq(req, true); msg != "" {
			response.BadRequest(w, msg)
			return
		}
		l, err := svc.CreateLesson(r.Context(), req.CourseID, req.Title, req.Position)
		if err != nil {
			writeLookupErr(w, err, "course not found")
			return
		}
		response.Created(w, l)
	}
}

func listLessons(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := parsePage(r)
		items, err := svc.ListLessons(r.Context(), r.URL.Query().Get("course_id"), offset, limit)
		if err != nil {
			response.InternalError(w)
			return
		}
		response.OK(w, items)
	}
}

// lessonDetail is a lesson with its attached documents inlined.
type lessonDetail struct {
	courses.Lesson
	PDFs []courses.LessonPDFDetail `json:"pdfs"`
}

func getLesson(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		l, err := svc.GetLesson(r.Context(), id)
		if err != nil {
			writeLookupErr(w, err, "lesson not found")
			return
		}
		pdfs, err := svc.ListLessonPDFs(r.Context(), id)
		if err != nil {
			response.InternalError(w)
			return
		}
		response.OK(w, lessonDetail{Lesson: *l, PDFs: pdfs})
	}
}

func updateLesson(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req lessonReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := validateLessonReq(req, false); msg != "" {
			response.BadRequest(w, msg)
			return
		}
		l, err := svc.UpdateLesson(r.Context(), chi.URLParam(r, "id"), req.Title, req.Position)
		if err != nil {
			writeLookupErr(w, err, "lesson not found")
			return
		}
		response.OK(w, l)
	}
}

func deleteLesson(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteLesson(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLookupErr(w, err, "lesson not found")
			return
		}
		response.NoContent(w)
	}
}

func attachPDF(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req attachPDFReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := validateAttachPDFReq(req); msg != "" {
			response.BadRequest(w, msg)
			return
		}
		lp, err := svc.AttachPDF(r.Context(), chi.URLParam(r, "id"), req.DocumentID, req.Position)
		if err != nil {
			if errors.Is(err, courses.ErrAlreadyAttached) {
				response.Conflict(w, "document already attached")
				return
			}
			writeLookupErr(w, err, "lesson or document not found")
			return
		}
		response.Created(w, lp)
	}
}

func detachPDF(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DetachPDF(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLookupErr(w, err, "attachment not found")
			return
		}
		response.NoContent(w)
	}
}

/* PDF documents */

func uploadDocument(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			response.RequestEntityTooLarge(w, "upload too large or malformed")
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "file field required")
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			response.InternalError(w)
			return
		}

		doc, err := svc.UploadDocument(r.Context(), r.FormValue("title"), hdr.Filename, data)
		if err != nil {
			switch {
			case errors.Is(err, courses.ErrNotPDF):
				response.UnsupportedMediaType(w, "only PDF files are accepted")
			case errors.Is(err, courses.ErrTooLarge):
				response.RequestEntityTooLarge(w, "file exceeds size limit")
			default:
				response.InternalError(w)
			}
			return
		}
		response.Created(w, doc)
	}
}

func listDocuments(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := parsePage(r)
		items, err := svc.ListDocuments(r.Context(), offset, limit)
		if err != nil {
			response.InternalError(w)
			return
		}
		response.OK(w, items)
	}
}

func getDocument(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.GetDocument(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupErr(w, err, "document not found")
			return
		}
		response.OK(w, d)
	}
}

func documentURL(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.DocumentURL(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeLookupErr(w, err, "document not found")
			return
		}
		response.OK(w, courses.SignedURLData{URL: u})
	}
}

func deleteDocument(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteDocument(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLookupErr(w, err, "document not found")
			return
		}
		response.NoContent(w)
	}
}

/* Enrollments */

func createEnrollment(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enrollmentReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if msg := validateEnrollmentReq(req); msg != "" {
			response.BadRequest(w, msg)
			return
		}
		e, err := svc.Enroll(r.Context(), req.UserID, req.CourseID)
		if err != nil {
			if errors.Is(err, courses.ErrAlreadyEnrolled) {
				response.Conflict(w, "already enrolled")
				return
			}
			writeLookupErr(w, err, "course not found")
			return
		}
		response.Created(w, e)
	}
}

func listEnrollments(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit := parsePage(r)
		items, err := svc.ListEnrollments(r.Context(), r.URL.Query().Get("course_id"), offset, limit)
		if err != nil {
			response.InternalError(w)
			return
		}
		response.OK(w, items)
	}
}

func deleteEnrollment(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteEnrollment(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeLookupErr(w, err, "enrollment not found")
			return
		}
		response.NoContent(w)
	}
}

/* Utilities */

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeLookupErr(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, courses.ErrNotFound) {
		response.NotFound(w, notFoundMsg)
		return
	}
	response.InternalError(w)
}

func parsePage(r *http.Request) (offset, limit int) {
	q := r.URL.Query()
	offset, limit = 0, 100
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	return
}
