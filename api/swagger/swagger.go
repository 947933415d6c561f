package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Academia API",
        "description": "Academy administration console backend",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token introspection"},
        {"name": "Teachers", "description": "Teacher roster and monthly hours"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Classrooms", "description": "Physical and virtual rooms"},
        {"name": "Courses", "description": "Courses and weekly schedule slots"},
        {"name": "Sessions", "description": "Course sessions"},
        {"name": "Enrollments", "description": "Student enrollment and monthly billing"},
        {"name": "Receipts", "description": "Receipt lifecycle"},
        {"name": "Invoices", "description": "Invoices, receipt linkage and payments"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {"200": {"description": "Token issued"}}
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/teachers/{id}/hours": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Monthly teaching hours summary",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "month", "in": "query", "type": "string", "description": "YYYY-MM"},
                    {"name": "format", "in": "query", "type": "string", "description": "csv for download"}
                ],
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/classrooms": {
            "get": {
                "tags": ["Classrooms"],
                "summary": "List classrooms",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List courses",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/courses/{id}/slots": {
            "get": {
                "tags": ["Courses"],
                "summary": "List weekly schedule slots",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Replace weekly schedule slots",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List sessions",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Create session",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/sessions/materialize": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Materialize sessions from weekly slots",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/enrollments/issue-receipts": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Issue monthly receipts for a course",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/receipts": {
            "get": {
                "tags": ["Receipts"],
                "summary": "List receipts",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Receipts"],
                "summary": "Issue receipt",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/receipts/{id}/pay": {
            "post": {
                "tags": ["Receipts"],
                "summary": "Mark receipt as paid",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/invoices": {
            "get": {
                "tags": ["Invoices"],
                "summary": "List invoices",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            },
            "post": {
                "tags": ["Invoices"],
                "summary": "Create invoice",
                "responses": {"201": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/invoices/{id}/payments": {
            "get": {
                "tags": ["Invoices"],
                "summary": "List payment events",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        },
        "/invoices/{id}/payments/{eventId}": {
            "delete": {
                "tags": ["Invoices"],
                "summary": "Reverse a payment event",
                "responses": {"200": {"$ref": "#/responses/Envelope"}}
            }
        }
    },
    "responses": {
        "Envelope": {
            "description": "Standard response envelope",
            "schema": {"$ref": "#/definitions/ResponseEnvelope"}
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
