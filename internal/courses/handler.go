package courses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edtech/courses-service/internal/middleware"
	"github.com/edtech/courses-service/internal/response"
)

// Handler holds HTTP handlers for the public course-content endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new courses Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// ListCourses godoc
//
//	@Summary		List courses
//	@Description	Returns published courses, newest first.
//	@Tags			courses
//	@Produce		json
//	@Param			offset	query		int	false	"Pagination offset"
//	@Param			limit	query		int	false	"Page size (max 100)"
//	@Success		200		{object}	response.Envelope{data=[]Course}
//	@Failure		500		{object}	response.Envelope
//	@Router			/courses [get]
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	offset, limit := parsePage(r, 0, 20)
	items, err := h.svc.ListCourses(r.Context(), offset, limit)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, items)
}

// GetCourse godoc
//
//	@Summary		Get course
//	@Description	Returns a single course by ID.
//	@Tags			courses
//	@Produce		json
//	@Param			courseID	path		string	true	"Course ID"
//	@Success		200			{object}	response.Envelope{data=Course}
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/courses/{courseID} [get]
func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "course not found")
			return
		}
		response.InternalError(w)
		return
	}
	response.OK(w, c)
}

// ListCourseLessons godoc
//
//	@Summary		List course lessons
//	@Description	Returns the lessons of a course in position order.
//	@Tags			courses
//	@Produce		json
//	@Param			courseID	path		string	true	"Course ID"
//	@Success		200			{object}	response.Envelope{data=[]LessonSummary}
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/courses/{courseID}/lessons [get]
func (h *Handler) ListCourseLessons(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if _, err := h.svc.GetCourse(r.Context(), courseID); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "course not found")
			return
		}
		response.InternalError(w)
		return
	}

	offset, limit := parsePage(r, 0, 100)
	items, err := h.svc.ListLessons(r.Context(), courseID, offset, limit)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, items)
}

// Enroll godoc
//
//	@Summary		Enroll in course
//	@Description	Enrolls the authenticated user in the course.
//	@Tags			courses
//	@Produce		json
//	@Security		BearerAuth
//	@Param			courseID	path		string	true	"Course ID"
//	@Success		201			{object}	response.Envelope{data=Enrollment}
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		409			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/courses/{courseID}/enroll [post]
func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	e, err := h.svc.Enroll(r.Context(), userID, chi.URLParam(r, "courseID"))
	if err != nil {
		switch {
		case h.svc.IsNotFound(err):
			response.NotFound(w, "course not found")
		case errors.Is(err, ErrAlreadyEnrolled):
			response.Conflict(w, "already enrolled")
		default:
			response.InternalError(w)
		}
		return
	}
	response.Created(w, e)
}

// ListLessonPDFs godoc
//
//	@Summary		List lesson PDFs
//	@Description	Returns the PDF documents attached to a lesson.
//	@Tags			lessons
//	@Produce		json
//	@Security		BearerAuth
//	@Param			lessonID	path		string	true	"Lesson ID"
//	@Success		200			{object}	response.Envelope{data=[]LessonPDFDetail}
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/lessons/{lessonID}/pdfs [get]
func (h *Handler) ListLessonPDFs(w http.ResponseWriter, r *http.Request) {
	lessonID := chi.URLParam(r, "lessonID")
	if _, err := h.svc.GetLesson(r.Context(), lessonID); err != nil {
		if h.svc.IsNotFound(err) {
			response.NotFound(w, "lesson not found")
			return
		}
		response.InternalError(w)
		return
	}

	items, err := h.svc.ListLessonPDFs(r.Context(), lessonID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, items)
}

// LessonPDFURL godoc
//
//	@Summary		Get lesson PDF download URL
//	@Description	Mints a temporary signed download URL for a PDF attached to the lesson. Requires enrollment in the lesson's course.
//	@Tags			lessons
//	@Produce		json
//	@Security		BearerAuth
//	@Param			lessonID	path		string	true	"Lesson ID"
//	@Param			documentID	path		string	true	"Document ID"
//	@Success		200			{object}	response.Envelope{data=SignedURLData}
//	@Failure		401			{object}	response.Envelope
//	@Failure		403			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/lessons/{lessonID}/pdfs/{documentID}/url [get]
func (h *Handler) LessonPDFURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserIDKey).(string)
	if !ok || userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.svc.LessonDocumentURL(r.Context(),
		userID,
		chi.URLParam(r, "lessonID"),
		chi.URLParam(r, "documentID"),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotEnrolled):
			response.Forbidden(w, "enrollment required")
		case h.svc.IsNotFound(err):
			response.NotFound(w, "lesson or document not found")
		default:
			response.InternalError(w)
		}
		return
	}
	response.OK(w, SignedURLData{URL: u})
}

// SignedURLData wraps a minted signed URL.
type SignedURLData struct {
	URL string `json:"url" example:"https://abc.supabase.co/storage/v1/object/sign/course-pdfs/pdfs/1.pdf?token=..."`
}

// parsePage reads offset/limit query params with defaults and a 100 cap.
func parsePage(r *http.Request, defOffset, defLimit int) (offset, limit int) {
	q := r.URL.Query()
	offset = defOffset
	limit = defLimit

	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	return
}
