package courses

import "time"

// Course is a unit of published course content.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Lesson belongs to a course; ordering within the course is by Position.
type Lesson struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
}

// LessonSummary is the listing row for lessons: title, owning course, and
// creation time.
type LessonSummary struct {
	Lesson
	CourseTitle string `json:"courseTitle"`
}

// PDFDocument is an uploaded PDF tracked in the database and stored in the
// object-storage bucket under ObjectPath.
type PDFDocument struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Bucket     string    `json:"bucket"`
	ObjectPath string    `json:"objectPath"`
	SizeBytes  int64     `json:"sizeBytes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LessonPDF links a document to a lesson.
type LessonPDF struct {
	ID         string    `json:"id"`
	LessonID   string    `json:"lessonId"`
	DocumentID string    `json:"documentId"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"createdAt"`
}

// LessonPDFDetail is a LessonPDF joined with its document metadata.
type LessonPDFDetail struct {
	LessonPDF
	DocumentTitle string `json:"documentTitle"`
	Bucket        string `json:"bucket"`
	ObjectPath    string `json:"objectPath"`
}

// Enrollment grants a user access to a course's content. User identity is
// managed by the identity service; only the UUID is recorded here.
type Enrollment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	CreatedAt time.Time `json:"createdAt"`
}
