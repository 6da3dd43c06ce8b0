package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Test-Slot API",
        "description": "Derives candidate test periods from the weekly timetable and schedules at most one test per subject per date",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Roster", "description": "Teachers, their courses and scheduled tests"},
        {"name": "Scheduling", "description": "Period resolution and test scheduling"},
        {"name": "Ops", "description": "Instrumentation"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/teachers": {
            "get": {
                "tags": ["Roster"],
                "summary": "List teachers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{name}/courses": {
            "get": {
                "tags": ["Roster"],
                "summary": "List courses taught by a teacher",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/periods": {
            "get": {
                "tags": ["Scheduling"],
                "summary": "Resolve candidate test periods",
                "parameters": [
                    {"name": "subject", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/PeriodsResponse"}},
                    "400": {"description": "INVALID_DATE or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "NO_SESSIONS", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_SCHEDULED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "STORE_UNAVAILABLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests": {
            "get": {
                "tags": ["Roster"],
                "summary": "List scheduled tests by date",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Scheduling"],
                "summary": "Schedule a test in a resolved period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleTestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ScheduledTest"}},
                    "400": {"description": "INVALID_DATE or VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "UNAUTHORIZED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "ALREADY_SCHEDULED", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "STORE_UNAVAILABLE", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tests/export": {
            "get": {
                "tags": ["Roster"],
                "summary": "Download scheduled tests",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "400": {"description": "VALIDATION_ERROR", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Ops"],
                "summary": "Instrumentation snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "ScheduleTestRequest": {
            "type": "object",
            "required": ["subject", "date", "period"],
            "properties": {
                "teacher": {"type": "string", "description": "Defaults to the token's teacher when auth is enabled"},
                "subject": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "period": {"type": "string", "example": "Slot 4 (10:45 am - 11:35 am) - F305"}
            }
        },
        "ScheduledTest": {
            "type": "object",
            "properties": {
                "teacher": {"type": "string"},
                "subject": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "period": {"type": "string"}
            }
        },
        "PeriodsResponse": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "date": {"type": "string", "format": "date"},
                "weekday": {"type": "string"},
                "periods": {"type": "array", "items": {"type": "string"}}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
