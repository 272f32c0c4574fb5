// Package courses manages course content: courses, lessons, PDF documents,
// and enrollments.
package courses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyEnrolled is returned when a user is already enrolled in a course.
var ErrAlreadyEnrolled = errors.New("user already enrolled")

// ErrAlreadyAttached is returned when a document is already attached to a lesson.
var ErrAlreadyAttached = errors.New("document already attached to lesson")

// Repository handles all course-content database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

/* Courses */

// CreateCourse inserts a new course and returns the created record.
func (r *Repository) CreateCourse(ctx context.Context, title, description string) (*Course, error) {
	c := &Course{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO courses (title, description)
		 VALUES ($1, $2)
		 RETURNING id, title, description, created_at`,
		title, description,
	).Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return c, nil
}

// GetCourse fetches a course by ID.
func (r *Repository) GetCourse(ctx context.Context, id string) (*Course, error) {
	c := &Course{}
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, created_at FROM courses WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

// ListCourses returns courses ordered by creation time, newest first.
func (r *Repository) ListCourses(ctx context.Context, offset, limit int) ([]Course, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, created_at
		 FROM courses
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCourse replaces a course's title and description.
func (r *Repository) UpdateCourse(ctx context.Context, id, title, description string) (*Course, error) {
	c := &Course{}
	err := r.db.QueryRow(ctx,
		`UPDATE courses SET title = $2, description = $3
		 WHERE id = $1
		 RETURNING id, title, description, created_at`,
		id, title, description,
	).Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update course: %w", err)
	}
	return c, nil
}

// DeleteCourse removes a course and, via cascade, its lessons and enrollments.
func (r *Repository) DeleteCourse(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* Lessons */

// CreateLesson inserts a new lesson for a course.
func (r *Repository) CreateLesson(ctx context.Context, courseID, title string, position int) (*Lesson, error) {
	l := &Lesson{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO lessons (course_id, title, position)
		 VALUES ($1, $2, $3)
		 RETURNING id, course_id, title, position, created_at`,
		courseID, title, position,
	).Scan(&l.ID, &l.CourseID, &l.Title, &l.Position, &l.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	return l, nil
}

// GetLesson fetches a lesson by ID.
func (r *Repository) GetLesson(ctx context.Context, id string) (*Lesson, error) {
	l := &Lesson{}
	err := r.db.QueryRow(ctx,
		`SELECT id, course_id, title, position, created_at FROM lessons WHERE id = $1`,
		id,
	).Scan(&l.ID, &l.CourseID, &l.Title, &l.Position, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

// ListLessons returns lesson summaries (lesson plus owning course title).
// An empty courseID lists across all courses.
func (r *Repository) ListLessons(ctx context.Context, courseID string, offset, limit int) ([]LessonSummary, error) {
	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.course_id, l.title, l.position, l.created_at, c.title
		 FROM lessons l
		 JOIN courses c ON c.id = l.course_id
		 WHERE ($1 = '' OR l.course_id::text = $1)
		 ORDER BY c.title, l.position, l.created_at
		 OFFSET $2 LIMIT $3`,
		courseID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	out := []LessonSummary{}
	for rows.Next() {
		var s LessonSummary
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Title, &s.Position, &s.CreatedAt, &s.CourseTitle); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateLesson replaces a lesson's title and position.
func (r *Repository) UpdateLesson(ctx context.Context, id, title string, position int) (*Lesson, error) {
	l := &Lesson{}
	err := r.db.QueryRow(ctx,
		`UPDATE lessons SET title = $2, position = $3
		 WHERE id = $1
		 RETURNING id, course_id, title, position, created_at`,
		id, title, position,
	).Scan(&l.ID, &l.CourseID, &l.Title, &l.Position, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update lesson: %w", err)
	}
	return l, nil
}

// DeleteLesson removes a lesson and its document links.
func (r *Repository) DeleteLesson(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* PDF documents */

// CreateDocument records an uploaded PDF.
func (r *Repository) CreateDocument(ctx context.Context, title, bucket, objectPath string, sizeBytes int64) (*PDFDocument, error) {
	d := &PDFDocument{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO pdf_documents (title, bucket, object_path, size_bytes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, title, bucket, object_path, size_bytes, created_at`,
		title, bucket, objectPath, sizeBytes,
	).Scan(&d.ID, &d.Title, &d.Bucket, &d.ObjectPath, &d.SizeBytes, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

// GetDocument fetches a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id string) (*PDFDocument, error) {
	d := &PDFDocument{}
	err := r.db.QueryRow(ctx,
		`SELECT id, title, bucket, object_path, size_bytes, created_at
		 FROM pdf_documents WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Title, &d.Bucket, &d.ObjectPath, &d.SizeBytes, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context, offset, limit int) ([]PDFDocument, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, bucket, object_path, size_bytes, created_at
		 FROM pdf_documents
		 ORDER BY created_at DESC
		 OFFSET $1 LIMIT $2`,
		offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []PDFDocument{}
	for rows.Next() {
		var d PDFDocument
		if err := rows.Scan(&d.ID, &d.Title, &d.Bucket, &d.ObjectPath, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes a document record. The stored object is left in the
// bucket; reclaiming orphaned objects is a maintenance task, not a request
// concern.
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM pdf_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* Lesson-PDF links */

// AttachPDF links a document to a lesson at the given position.
func (r *Repository) AttachPDF(ctx context.Context, lessonID, documentID string, position int) (*LessonPDF, error) {
	lp := &LessonPDF{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO lesson_pdfs (lesson_id, document_id, position)
		 VALUES ($1, $2, $3)
		 RETURNING id, lesson_id, document_id, position, created_at`,
		lessonID, documentID, position,
	).Scan(&lp.ID, &lp.LessonID, &lp.DocumentID, &lp.Position, &lp.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyAttached
		}
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("attach pdf: %w", err)
	}
	return lp, nil
}

// ListLessonPDFs returns the documents attached to a lesson, in position order.
func (r *Repository) ListLessonPDFs(ctx context.Context, lessonID string) ([]LessonPDFDetail, error) {
	rows, err := r.db.Query(ctx,
		`SELECT lp.id, lp.lesson_id, lp.document_id, lp.position, lp.created_at,
		        d.title, d.bucket, d.object_path
		 FROM lesson_pdfs lp
		 JOIN pdf_documents d ON d.id = lp.document_id
		 WHERE lp.lesson_id = $1
		 ORDER BY lp.position, lp.created_at`,
		lessonID,
	)
	if err != nil {
		return nil, fmt.Errorf("list lesson pdfs: %w", err)
	}
	defer rows.Close()

	out := []LessonPDFDetail{}
	for rows.Next() {
		var d LessonPDFDetail
		if err := rows.Scan(&d.ID, &d.LessonID, &d.DocumentID, &d.Position, &d.CreatedAt,
			&d.DocumentTitle, &d.Bucket, &d.ObjectPath); err != nil {
			return nil, fmt.Errorf("scan lesson pdf: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DetachPDF removes a lesson-document link by its ID.
func (r *Repository) DetachPDF(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM lesson_pdfs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("detach pdf: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

/* Enrollments */

// CreateEnrollment enrolls a user in a course.
func (r *Repository) CreateEnrollment(ctx context.Context, userID, courseID string) (*Enrollment, error) {
	e := &Enrollment{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO enrollments (user_id, course_id)
		 VALUES ($1, $2)
		 RETURNING id, user_id, course_id, created_at`,
		userID, courseID,
	).Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyEnrolled
		}
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	return e, nil
}

// ListEnrollments returns enrollments, optionally filtered by course.
func (r *Repository) ListEnrollments(ctx context.Context, courseID string, offset, limit int) ([]Enrollment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, course_id, created_at
		 FROM enrollments
		 WHERE ($1 = '' OR course_id::text = $1)
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		courseID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	out := []Enrollment{}
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteEnrollment removes an enrollment by ID.
func (r *Repository) DeleteEnrollment(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsEnrolled reports whether the user has an enrollment in the course.
func (r *Repository) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE user_id = $1 AND course_id = $2)`,
		userID, courseID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation checks whether an error is a PostgreSQL foreign_key_violation (code 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
