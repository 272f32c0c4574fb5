package admin_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edtech/courses-service/internal/admin"
	"github.com/edtech/courses-service/internal/courses"
)

// fakeSvc is an in-memory admin.Service implementation.
type fakeSvc struct {
	courses     map[string]courses.Course
	lessons     map[string]courses.Lesson
	documents   map[string]courses.PDFDocument
	lessonPDFs  map[string]courses.LessonPDF
	enrollments map[string]courses.Enrollment
	seq         int
}

func newFakeSvc() *fakeSvc {
	return &fakeSvc{
		courses:     map[string]courses.Course{},
		lessons:     map[string]courses.Lesson{},
		documents:   map[string]courses.PDFDocument{},
		lessonPDFs:  map[string]courses.LessonPDF{},
		enrollments: map[string]courses.Enrollment{},
	}
}

func (s *fakeSvc) nextID() string {
	s.seq++
	return fmt.Sprintf("id-%d", s.seq)
}

func (s *fakeSvc) CreateCourse(_ context.Context, title, description string) (*courses.Course, error) {
	c := courses.Course{ID: s.nextID(), Title: title, Description: description, CreatedAt: time.Now()}
	s.courses[c.ID] = c
	return &c, nil
}

func (s *fakeSvc) GetCourse(_ context.Context, id string) (*courses.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, courses.ErrNotFound
	}
	return &c, nil
}

func (s *fakeSvc) ListCourses(_ context.Context, _, _ int) ([]courses.Course, error) {
	out := []courses.Course{}
	for _, c := range s.courses {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeSvc) UpdateCourse(_ context.Context, id, title, description string) (*courses.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, courses.ErrNotFound
	}
	c.Title, c.Description = title, description
	s.courses[id] = c
	return &c, nil
}

func (s *fakeSvc) DeleteCourse(_ context.Context, id string) error {
	if _, ok := s.courses[id]; !ok {
		return courses.ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

func (s *fakeSvc) CreateLesson(_ context.Context, courseID, title string, position int) (*courses.Lesson, error) {
	if _, ok := s.courses[courseID]; !ok {
		return nil, courses.ErrNotFound
	}
	l := courses.Lesson{ID: s.nextID(), CourseID: courseID, Title: title, Position: position, CreatedAt: time.Now()}
	s.lessons[l.ID] = l
	return &l, nil
}

func (s *fakeSvc) GetLesson(_ context.Context, id string) (*courses.Lesson, error) {
	l, ok := s.lessons[id]
	if !ok {
		return nil, courses.ErrNotFound
	}
	return &l, nil
}

func (s *fakeSvc) ListLessons(_ context.Context, courseID string, _, _ int) ([]courses.LessonSummary, error) {
	out := []courses.LessonSummary{}
	for _, l := range s.lessons {
		if courseID != "" && l.CourseID != courseID {
			continue
		}
		out = append(out, courses.LessonSummary{Lesson: l, CourseTitle: s.courses[l.CourseID].Title})
	}
	return out, nil
}

func (s *fakeSvc) UpdateLesson(_ context.Context, id, title string, position int) (*courses.Lesson, error) {
	l, ok := s.lessons[id]
	if !ok {
		return nil, courses.ErrNotFound
	}
	l.Title, l.Position = title, position
	s.lessons[id] = l
	return &l, nil
}

func (s *fakeSvc) DeleteLesson(_ context.Context, id string) error {
	if _, ok := s.lessons[id]; !ok {
		return courses.ErrNotFound
	}
	delete(s.lessons, id)
	return nil
}

func (s *fakeSvc) UploadDocument(_ context.Context, title, filename string, data []byte) (*courses.PDFDocument, error) {
	if int64(len(data)) > courses.MaxPDFSizeBytes {
		return nil, courses.ErrTooLarge
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") || !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, courses.ErrNotPDF
	}
	d := courses.PDFDocument{ID: s.nextID(), Title: title, Bucket: "b", ObjectPath: "pdfs/x/" + filename, SizeBytes: int64(len(data)), CreatedAt: time.Now()}
	s.documents[d.ID] = d
	return &d, nil
}

func (s *fakeSvc) GetDocument(_ context.Context, id string) (*courses.PDFDocument, error) {
	d, ok := s.documents[id]
	if !ok {
		return nil, courses.ErrNotFound
	}
	return &d, nil
}

func (s *fakeSvc) ListDocuments(_ context.Context, _, _ int) ([]courses.PDFDocument, error) {
	out := []courses.PDFDocument{}
	for _, d := range s.documents {
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeSvc) DeleteDocument(_ context.Context, id string) error {
	if _, ok := s.documents[id]; !ok {
		return courses.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

func (s *fakeSvc) DocumentURL(_ context.Context, id string) (string, error) {
	d, ok := s.documents[id]
	if !ok {
		return "", courses.ErrNotFound
	}
	return "https://signed.example.com/" + d.ObjectPath, nil
}

func (s *fakeSvc) AttachPDF(_ context.Context, lessonID, documentID string, position int) (*courses.LessonPDF, error) {
	if _, ok := s.lessons[lessonID]; !ok {
		return nil, courses.ErrNotFound
	}
	if _, ok := s.documents[documentID]; !ok {
		return nil, courses.ErrNotFound
	}
	for _, lp := range s.lessonPDFs {
		if lp.LessonID == lessonID && lp.DocumentID == documentID {
			return nil, courses.ErrAlreadyAttached
		}
	}
	lp := courses.LessonPDF{ID: s.nextID(), LessonID: lessonID, DocumentID: documentID, Position: position, CreatedAt: time.Now()}
	s.lessonPDFs[lp.ID] = lp
	return &lp, nil
}

func (s *fakeSvc) ListLessonPDFs(_ context.Context, lessonID string) ([]courses.LessonPDFDetail, error) {
	out := []courses.LessonPDFDetail{}
	for _, lp := range s.lessonPDFs {
		if lp.LessonID != lessonID {
			continue
		}
		d := s.documents[lp.DocumentID]
		out = append(out, courses.LessonPDFDetail{LessonPDF: lp, DocumentTitle: d.Title, Bucket: d.Bucket, ObjectPath: d.ObjectPath})
	}
	return out, nil
}

func (s *fakeSvc) DetachPDF(_ context.Context, id string) error {
	if _, ok := s.lessonPDFs[id]; !ok {
		return courses.ErrNotFound
	}
	delete(s.lessonPDFs, id)
	return nil
}

func (s *fakeSvc) Enroll(_ context.Context, userID, courseID string) (*courses.Enrollment, error) {
	if _, ok := s.courses[courseID]; !ok {
		return nil, courses.ErrNotFound
	}
	for _, e := range s.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return nil, courses.ErrAlreadyEnrolled
		}
	}
	e := courses.Enrollment{ID: s.nextID(), UserID: userID, CourseID: courseID, CreatedAt: time.Now()}
	s.enrollments[e.ID] = e
	return &e, nil
}

func (s *fakeSvc) ListEnrollments(_ context.Context, courseID string, _, _ int) ([]courses.Enrollment, error) {
	out := []courses.Enrollment{}
	for _, e := range s.enrollments {
		if courseID != "" && e.CourseID != courseID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeSvc) DeleteEnrollment(_ context.Context, id string) error {
	if _, ok := s.enrollments[id]; !ok {
		return courses.ErrNotFound
	}
	delete(s.enrollments, id)
	return nil
}

/* Helpers */

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func dataField(t *testing.T, rr *httptest.ResponseRecorder, key string) string {
	t.Helper()
	var env struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rr.Body.String())
	}
	v, _ := env.Data[key].(string)
	return v
}

/* Tests */

func TestCourseCRUD(t *testing.T) {
	h := admin.Routes(newFakeSvc())

	rr := doJSON(t, h, http.MethodPost, "/courses", map[string]string{"title": "Algebra", "description": "First course"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rr.Code, rr.Body.String())
	}
	id := dataField(t, rr, "id")
	if id == "" {
		t.Fatal("create: missing id")
	}

	if rr = doJSON(t, h, http.MethodGet, "/courses/"+id, nil); rr.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rr.Code)
	}

	rr = doJSON(t, h, http.MethodPut, "/courses/"+id, map[string]string{"title": "Algebra II"})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status = %d", rr.Code)
	}
	if got := dataField(t, rr, "title"); got != "Algebra II" {
		t.Errorf("updated title = %q", got)
	}

	if rr = doJSON(t, h, http.MethodDelete, "/courses/"+id, nil); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rr.Code)
	}
	if rr = doJSON(t, h, http.MethodGet, "/courses/"+id, nil); rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: status = %d", rr.Code)
	}
}

func TestCourseValidation(t *testing.T) {
	h := admin.Routes(newFakeSvc())

	rr := doJSON(t, h, http.MethodPost, "/courses", map[string]string{"description": "no title"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestLessonInlinePDFs(t *testing.T) {
	svc := newFakeSvc()
	h := admin.Routes(svc)

	c, _ := svc.CreateCourse(context.Background(), "Algebra", "")
	rr := doJSON(t, h, http.MethodPost, "/lessons", map[string]any{"courseId": c.ID, "title": "Lesson 1", "position": 1})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create lesson: status = %d, body %s", rr.Code, rr.Body.String())
	}
	lessonID := dataField(t, rr, "id")

	doc, _ := svc.UploadDocument(context.Background(), "Notes", "notes.pdf", []byte("%PDF-1.4"))

	rr = doJSON(t, h, http.MethodPost, "/lessons/"+lessonID+"/pdfs", map[string]any{"documentId": doc.ID})
	if rr.Code != http.StatusCreated {
		t.Fatalf("attach: status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Attaching the same document again conflicts.
	rr = doJSON(t, h, http.MethodPost, "/lessons/"+lessonID+"/pdfs", map[string]any{"documentId": doc.ID})
	if rr.Code != http.StatusConflict {
		t.Fatalf("re-attach: status = %d, want 409", rr.Code)
	}

	// Lesson detail embeds the attachment.
	rr = doJSON(t, h, http.MethodGet, "/lessons/"+lessonID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get lesson: status = %d", rr.Code)
	}
	var env struct {
		Data struct {
			PDFs []courses.LessonPDFDetail `json:"pdfs"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode lesson detail: %v", err)
	}
	if len(env.Data.PDFs) != 1 || env.Data.PDFs[0].DocumentID != doc.ID {
		t.Errorf("lesson detail pdfs = %+v", env.Data.PDFs)
	}
}

func TestUploadDocumentEndpoint(t *testing.T) {
	h := admin.Routes(newFakeSvc())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	_ = mw.WriteField("title", "Notes")
	fw, _ := mw.CreateFormFile("file", "notes.pdf")
	_, _ = fw.Write([]byte("%PDF-1.4 hello"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	id := dataField(t, rr, "id")

	// Signed URL for the uploaded document.
	rr2 := doJSON(t, h, http.MethodGet, "/documents/"+id+"/url", nil)
	if rr2.Code != http.StatusOK {
		t.Fatalf("url: status = %d", rr2.Code)
	}
	if u := dataField(t, rr2, "url"); !strings.HasPrefix(u, "https://signed.example.com/") {
		t.Errorf("url = %q", u)
	}
}

func TestUploadDocumentEndpointRejectsNonPDF(t *testing.T) {
	h := admin.Routes(newFakeSvc())

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	_, _ = fw.Write([]byte("hello"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("status = %d, want 415", rr.Code)
	}
}

func TestEnrollmentEndpoints(t *testing.T) {
	svc := newFakeSvc()
	h := admin.Routes(svc)

	c, _ := svc.CreateCourse(context.Background(), "Algebra", "")

	rr := doJSON(t, h, http.MethodPost, "/enrollments", map[string]string{"userId": "u-1", "courseId": c.ID})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodPost, "/enrollments", map[string]string{"userId": "u-1", "courseId": c.ID})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate: status = %d, want 409", rr.Code)
	}

	rr = doJSON(t, h, http.MethodPost, "/enrollments", map[string]string{"userId": "u-1"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing course: status = %d, want 400", rr.Code)
	}
}
