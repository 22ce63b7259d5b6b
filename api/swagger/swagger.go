package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Yuga Planner API",
        "description": "Asynchronous employee task scheduling with constraint-based optimization",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Scheduler", "description": "Solver job lifecycle and results"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/api/schedule-jobs": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Submit a scheduling problem for asynchronous solving",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SolveScheduleRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Problem cannot be built", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scheduler"],
                "summary": "Request termination of every known solver job",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/api/schedule-jobs/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Poll a solver job for its latest solution",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Scheduler"],
                "summary": "Request termination of one solver job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/schedule-jobs/{id}/export": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Export a job's latest schedule as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No solution yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/schedule-jobs/{id}/export-link": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Create a signed download link for a job's schedule export",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown job", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Archiving not configured or no solution yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{token}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Download an archived export by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "File no longer available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/solver-runs": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "List persisted solver runs",
                "parameters": [
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Persistence disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/solver-runs/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Get the persisted solver run for one job",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No persisted run", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Persistence disabled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CalendarEntryRequest": {
            "type": "object",
            "required": ["summary", "startIso", "endIso"],
            "properties": {
                "summary": {"type": "string"},
                "startIso": {"type": "string", "format": "date-time"},
                "endIso": {"type": "string", "format": "date-time"},
                "employee": {"type": "string"}
            }
        },
        "TaskItemRequest": {
            "type": "object",
            "required": ["description", "durationSlots", "skill"],
            "properties": {
                "description": {"type": "string"},
                "durationSlots": {"type": "integer", "minimum": 1},
                "skill": {"type": "string"}
            }
        },
        "EmployeeSpec": {
            "type": "object",
            "required": ["name", "skills"],
            "properties": {
                "name": {"type": "string"},
                "skills": {"type": "array", "items": {"type": "string"}},
                "unavailableDates": {"type": "array", "items": {"type": "string", "format": "date"}},
                "undesiredDates": {"type": "array", "items": {"type": "string", "format": "date"}},
                "desiredDates": {"type": "array", "items": {"type": "string", "format": "date"}}
            }
        },
        "SolveScheduleRequest": {
            "type": "object",
            "properties": {
                "calendarEntries": {"type": "array", "items": {"$ref": "#/definitions/CalendarEntryRequest"}},
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/TaskItemRequest"}},
                "employees": {"type": "array", "items": {"$ref": "#/definitions/EmployeeSpec"}},
                "employeeCount": {"type": "integer"},
                "daysInSchedule": {"type": "integer"},
                "projectId": {"type": "string"}
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
