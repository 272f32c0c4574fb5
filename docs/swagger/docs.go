// Package swagger registers the OpenAPI document served by the swagger UI.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header",
            "description": "JWT Bearer token. Format: Bearer {token}"
        }
    },
    "paths": {
        "/courses": {
            "get": {
                "tags": ["courses"],
                "summary": "List courses",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/courses/{courseID}": {
            "get": {
                "tags": ["courses"],
                "summary": "Get course",
                "parameters": [{"name": "courseID", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/courses/{courseID}/lessons": {
            "get": {
                "tags": ["courses"],
                "summary": "List course lessons",
                "parameters": [{"name": "courseID", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/courses/{courseID}/enroll": {
            "post": {
                "tags": ["courses"],
                "summary": "Enroll in course",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "courseID", "in": "path", "required": true, "type": "string"}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/lessons/{lessonID}/pdfs": {
            "get": {
                "tags": ["lessons"],
                "summary": "List lesson PDFs",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "lessonID", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/lessons/{lessonID}/pdfs/{documentID}/url": {
            "get": {
                "tags": ["lessons"],
                "summary": "Get lesson PDF download URL",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "lessonID", "in": "path", "required": true, "type": "string"},
                    {"name": "documentID", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Courses API",
	Description:      "Course-content backend: courses, lessons, PDF documents, enrollments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
