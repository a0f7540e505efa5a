package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Teacher Review API",
        "description": "Anonymous teacher reviews: search, aggregates, votes and submissions",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http",
        "https"
    ],
    "tags": [
        {"name": "Teachers", "description": "Teacher search and detail"},
        {"name": "Courses", "description": "Course catalogue"},
        {"name": "Reviews", "description": "Reviews, votes and submissions"},
        {"name": "System", "description": "Probes and metrics"}
    ],
    "paths": {
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Search teachers",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "sort_by", "in": "query", "type": "string", "enum": ["name", "rating", "review_count"], "default": "name"},
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "page_size", "in": "query", "type": "integer", "default": 20}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Teacher detail with course tags and recent review count",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TeacherDetail"}},
                    "404": {"description": "Teacher not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List a teacher's reviews",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "order_by_recent", "in": "query", "type": "boolean", "default": true},
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "page_size", "in": "query", "type": "integer", "default": 10}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/teachers/{id}/reviews/export": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Export a teacher's reviews",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"},
                    {"name": "course_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Teacher not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/departments": {
            "get": {
                "tags": ["Teachers"],
                "summary": "Distinct departments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "Search courses",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "order_by_popularity", "in": "query", "type": "boolean", "default": false},
                    {"name": "page", "in": "query", "type": "integer", "default": 1},
                    {"name": "page_size", "in": "query", "type": "integer", "default": 20}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/submit-review": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit a review",
                "parameters": [
                    {"name": "X-Forwarded-For", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReviewRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Submission cooldown active", "headers": {"Retry-After": {"type": "integer"}}, "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reviews/vote": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Up- or down-vote a review",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/VoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/VoteResult"}},
                    "400": {"description": "Invalid vote", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Review not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TeacherDetail": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "department": {"type": "string"},
                "title": {"type": "string"},
                "avg_rating": {"type": "number"},
                "review_count": {"type": "integer"},
                "roll_call_percentage": {"type": "number"},
                "course_tags": {"type": "array", "items": {"$ref": "#/definitions/CourseTag"}},
                "recent_review_count": {"type": "integer"}
            }
        },
        "CourseTag": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "course_name": {"type": "string"},
                "course_code": {"type": "string"},
                "count": {"type": "integer"}
            }
        },
        "DeviceTraits": {
            "type": "object",
            "properties": {
                "user_agent": {"type": "string"},
                "language": {"type": "string"},
                "screen_width": {"type": "integer"},
                "screen_height": {"type": "integer"},
                "timezone_offset": {"type": "integer"},
                "canvas_signature": {"type": "string"},
                "platform": {"type": "string"},
                "cookie_enabled": {"type": "boolean"}
            }
        },
        "CourseReviewRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"},
                "course_name": {"type": "string"},
                "course_rating": {"type": "number"},
                "course_comment": {"type": "string"}
            },
            "required": ["course_rating"]
        },
        "CourseTagRequest": {
            "type": "object",
            "properties": {
                "course_name": {"type": "string"},
                "course_code": {"type": "string"}
            },
            "required": ["course_name"]
        },
        "SubmitReviewRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "rating": {"type": "number"},
                "does_roll_call": {"type": "boolean"},
                "comment": {"type": "string"},
                "course_reviews": {"type": "array", "items": {"$ref": "#/definitions/CourseReviewRequest"}},
                "course_tags": {"type": "array", "items": {"$ref": "#/definitions/CourseTagRequest"}},
                "device": {"$ref": "#/definitions/DeviceTraits"}
            },
            "required": ["teacher_id", "rating", "does_roll_call"]
        },
        "VoteRequest": {
            "type": "object",
            "properties": {
                "review_id": {"type": "string"},
                "vote_type": {"type": "string", "enum": ["upvote", "downvote"]}
            },
            "required": ["review_id", "vote_type"]
        },
        "VoteResult": {
            "type": "object",
            "properties": {
                "review_id": {"type": "string"},
                "upvotes": {"type": "integer"},
                "downvotes": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next_page": {"type": "boolean"},
                "has_prev_page": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "message": {"type": "string"},
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
