package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Horario API",
        "description": "University timetable engine: placements, availability, sections and layered grids",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Terms", "description": "Academic terms and their placements"},
        {"name": "Placements", "description": "Conflict-checked placement of sections into rooms and blocks"},
        {"name": "Availability", "description": "Free rooms and instructors at a slot"},
        {"name": "Sections", "description": "Course sections lifecycle"},
        {"name": "Grid", "description": "Layered weekly grid"}
    ],
    "paths": {
        "/terms": {
            "get": {
                "tags": ["Terms"],
                "summary": "List terms",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/terms/current": {
            "get": {
                "tags": ["Terms"],
                "summary": "Get the current term, creating it when missing",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/terms/{id}/placements": {
            "get": {
                "tags": ["Terms"],
                "summary": "List placements of a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Term ID or 'current'"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Terms"],
                "summary": "Delete every placement of a term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string", "description": "Term ID or 'current'"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/placements": {
            "post": {
                "tags": ["Placements"],
                "summary": "Propose a placement",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown section, room, day or block", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room or instructor conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Placements"],
                "summary": "Remove a placement by location",
                "parameters": [
                    {"name": "sectionId", "in": "query", "required": true, "type": "string"},
                    {"name": "room", "in": "query", "required": true, "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "block", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"}
                ],
                "responses": {"204": {"description": "Removed"}, "404": {"description": "Not found"}}
            }
        },
        "/placements/by-course": {
            "post": {
                "tags": ["Placements"],
                "summary": "Propose a placement by course code and section name",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignByCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown course section, room, day or block", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room or instructor conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/rooms/{name}/placements": {
            "get": {
                "tags": ["Rooms"],
                "summary": "List the placements of a room",
                "parameters": [
                    {"name": "name", "in": "path", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown room or term", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/placements/room": {
            "put": {
                "tags": ["Placements"],
                "summary": "Move a placement to another room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveRoomRequest"}}
                ],
                "responses": {
                    "200": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Room conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/placements/instructor": {
            "put": {
                "tags": ["Placements"],
                "summary": "Change the instructor of a placed section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReassignInstructorRequest"}}
                ],
                "responses": {
                    "200": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Instructor conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/availability/rooms": {
            "get": {
                "tags": ["Availability"],
                "summary": "List free rooms at a slot",
                "parameters": [
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "block", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"},
                    {"name": "site", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/availability/instructors": {
            "get": {
                "tags": ["Availability"],
                "summary": "List instructors free to teach a course at a slot",
                "parameters": [
                    {"name": "course", "in": "query", "required": true, "type": "string"},
                    {"name": "career", "in": "query", "type": "string"},
                    {"name": "day", "in": "query", "required": true, "type": "string"},
                    {"name": "block", "in": "query", "required": true, "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}/sections": {
            "get": {
                "tags": ["Sections"],
                "summary": "List sections of a course",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/courses/{id}/sections/generate": {
            "post": {
                "tags": ["Sections"],
                "summary": "Generate sections from course demand",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sections": {
            "post": {
                "tags": ["Sections"],
                "summary": "Create a section",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Duplicate name", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/sections/{id}": {
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "cascade", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Deleted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Section still placed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grid": {
            "get": {
                "tags": ["Grid"],
                "summary": "Weekly grid of a career semester with lower semesters layered underneath",
                "parameters": [
                    {"name": "career", "in": "query", "required": true, "type": "string"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "depth", "in": "query", "type": "integer"},
                    {"name": "termId", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        }
    },
    "definitions": {
        "AssignRequest": {
            "type": "object",
            "required": ["sectionId", "room", "day", "block"],
            "properties": {
                "sectionId": {"type": "string"},
                "room": {"type": "string"},
                "day": {"type": "string"},
                "block": {"type": "string"},
                "termId": {"type": "string"}
            }
        },
        "AssignByCourseRequest": {
            "type": "object",
            "required": ["courseCode", "section", "room", "day", "block"],
            "properties": {
                "courseCode": {"type": "string"},
                "section": {"type": "string"},
                "career": {"type": "string"},
                "semester": {"type": "integer"},
                "room": {"type": "string"},
                "day": {"type": "string"},
                "block": {"type": "string"},
                "termId": {"type": "string"}
            }
        },
        "MoveRoomRequest": {
            "type": "object",
            "required": ["sectionId", "day", "block", "fromRoom", "toRoom"],
            "properties": {
                "sectionId": {"type": "string"},
                "day": {"type": "string"},
                "block": {"type": "string"},
                "fromRoom": {"type": "string"},
                "toRoom": {"type": "string"},
                "termId": {"type": "string"}
            }
        },
        "ReassignInstructorRequest": {
            "type": "object",
            "required": ["sectionId", "day", "block", "room", "instructor"],
            "properties": {
                "sectionId": {"type": "string"},
                "day": {"type": "string"},
                "block": {"type": "string"},
                "room": {"type": "string"},
                "instructor": {"type": "string"},
                "termId": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "warnings": {"type": "array", "items": {"type": "object"}},
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
