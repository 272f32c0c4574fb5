package admin

import "strings"

type courseReq struct {
	Title       string `json:"title" example:"Intro to Algebra"`
	Description string `json:"description" example:"A first course."`
}

type lessonReq struct {
	CourseID string `json:"courseId" example:"7b0c3f9a-..."`
	Title    string `json:"title" example:"Linear equations"`
	Position int    `json:"position" example:"1"`
}

type attachPDFReq struct {
	DocumentID string `json:"documentId" example:"0e1d2c3b-..."`
	Position   int    `json:"position" example:"0"`
}

type enrollmentReq struct {
	UserID   string `json:"userId" example:"e7eedc79-..."`
	CourseID string `json:"courseId" example:"7b0c3f9a-..."`
}

func validateCourseReq(req courseReq) string {
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	return ""
}

func validateLessonReq(req lessonReq, requireCourse bool) string {
	if requireCourse && strings.TrimSpace(req.CourseID) == "" {
		return "courseId is required"
	}
	if strings.TrimSpace(req.Title) == "" {
		return "title is required"
	}
	if req.Position < 0 {
		return "position must not be negative"
	}
	return ""
}

func validateAttachPDFReq(req attachPDFReq) string {
	if strings.TrimSpace(req.DocumentID) == "" {
		return "documentId is required"
	}
	if req.Position < 0 {
		return "position must not be negative"
	}
	return ""
}

func validateEnrollmentReq(req enrollmentReq) string {
	if strings.TrimSpace(req.UserID) == "" {
		return "userId is required"
	}
	if strings.TrimSpace(req.CourseID) == "" {
		return "courseId is required"
	}
	return ""
}
