package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LearnFlow API",
        "description": "Online course marketplace: catalog, curriculum progress, enrollments, reviews",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Registration, login and session management"},
        {"name": "Catalog", "description": "Public course catalog with filters and sorting"},
        {"name": "Courses", "description": "Course authoring for instructors"},
        {"name": "Curriculum", "description": "Lesson tree, selection and progress tracking"},
        {"name": "Enrollments", "description": "Course enrollment lifecycle"},
        {"name": "Notes", "description": "Timestamped lesson notes"},
        {"name": "Reviews", "description": "Course ratings and comments"},
        {"name": "Community", "description": "Per-course Q&A board with threaded comments"},
        {"name": "Quizzes", "description": "Course assessments, attempts and grading"},
        {"name": "Dashboard", "description": "Instructor dashboard and exports"},
        {"name": "Users", "description": "User administration"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a student account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the current refresh token",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/password": {
            "put": {
                "tags": ["Auth"],
                "summary": "Change password and revoke sessions",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Browse the catalog",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "category", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "string", "enum": ["beginner", "intermediate", "advanced"]},
                    {"name": "price", "in": "query", "type": "string", "enum": ["free", "under50k", "50k-100k", "over100k"]},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["popular", "newest", "rating", "price-low", "price-high"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unknown filter or sort key"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Create a draft course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/categories": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Category counts over the published catalog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/mine": {
            "get": {
                "tags": ["Courses"],
                "summary": "List the instructor's own courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}": {
            "get": {
                "tags": ["Catalog"],
                "summary": "Course detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Courses"],
                "summary": "Update a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCourseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Deactivate a course (unpublish)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses/{id}/sections": {
            "post": {
                "tags": ["Courses"],
                "summary": "Add a curriculum section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/sections/{sectionId}/lessons": {
            "post": {
                "tags": ["Courses"],
                "summary": "Add a lesson to a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Section not found"}
                }
            }
        },
        "/courses/{id}/lessons/{lessonId}": {
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete a lesson",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses/{id}/publish": {
            "post": {
                "tags": ["Courses"],
                "summary": "Publish or unpublish a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetPublishedRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/curriculum": {
            "get": {
                "tags": ["Curriculum"],
                "summary": "Curriculum tree with per-user lesson states",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/lessons/{lessonId}/select": {
            "post": {
                "tags": ["Curriculum"],
                "summary": "Select a lesson for playback",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not enrolled"}
                }
            }
        },
        "/courses/{id}/lessons/{lessonId}/complete": {
            "post": {
                "tags": ["Curriculum"],
                "summary": "Mark a lesson completed",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/progress": {
            "get": {
                "tags": ["Curriculum"],
                "summary": "Progress percentage for the current user",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/courses/{id}/reviews": {
            "get": {
                "tags": ["Reviews"],
                "summary": "List reviews for a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit or replace the caller's review",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Active enrollment required"}
                }
            },
            "delete": {
                "tags": ["Reviews"],
                "summary": "Delete a review (author or admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "user_id", "in": "query", "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses/{id}/posts": {
            "get": {
                "tags": ["Community"],
                "summary": "Course board listing",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "keyword", "in": "query", "type": "string"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["latest", "popular", "comments"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Community"],
                "summary": "Open a thread on the course board",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreatePostRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Course not found or unpublished"}
                }
            }
        },
        "/posts/{id}": {
            "get": {
                "tags": ["Community"],
                "summary": "Thread detail (bumps the view counter)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Community"],
                "summary": "Edit a thread (author or admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdatePostRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the author"}
                }
            },
            "delete": {
                "tags": ["Community"],
                "summary": "Delete a thread (author or admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/posts/{id}/comments": {
            "get": {
                "tags": ["Community"],
                "summary": "Thread comments, oldest first",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Community"],
                "summary": "Comment on a thread",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Post or parent comment not found"}
                }
            }
        },
        "/comments/{id}": {
            "put": {
                "tags": ["Community"],
                "summary": "Edit a comment (author or admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCommentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Community"],
                "summary": "Delete a comment (author or admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses/{id}/quizzes": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Quizzes on a course",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Quizzes"],
                "summary": "Author a quiz with questions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateQuizRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the course instructor"}
                }
            }
        },
        "/quizzes/{id}": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Quiz detail (answer key stripped for takers)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Quiz not published"}
                }
            },
            "put": {
                "tags": ["Quizzes"],
                "summary": "Edit quiz settings",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateQuizRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Quizzes"],
                "summary": "Delete a quiz and its attempts",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/quizzes/{id}/attempts": {
            "post": {
                "tags": ["Quizzes"],
                "summary": "Start an attempt",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Attempt limit reached"}
                }
            }
        },
        "/quizzes/{id}/progress": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Caller's progress on a quiz",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/quizzes/{id}/statistics": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Attempt rollup with per-question accuracy",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the course instructor"}
                }
            }
        },
        "/quiz-attempts": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Caller's attempts, newest first",
                "parameters": [
                    {"name": "quiz_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["in_progress", "completed", "graded", "abandoned"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/quiz-attempts/{id}": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Attempt detail with answers",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not the attempt owner"}
                }
            }
        },
        "/quiz-attempts/{id}/submit": {
            "post": {
                "tags": ["Quizzes"],
                "summary": "Submit answers and auto-grade choice questions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitQuizRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Attempt already submitted"}
                }
            }
        },
        "/quiz-attempts/{id}/grade": {
            "post": {
                "tags": ["Quizzes"],
                "summary": "Manually grade an attempt (admin)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeQuizRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List the caller's enrollments",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll in a published course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already enrolled"}
                }
            }
        },
        "/enrollments/{id}": {
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Cancel an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/admin/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List all enrollments (admin)",
                "parameters": [
                    {"name": "course_id", "in": "query", "type": "string"},
                    {"name": "user_id", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons/{lessonId}/notes": {
            "get": {
                "tags": ["Notes"],
                "summary": "List the caller's notes for a lesson",
                "parameters": [
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Notes"],
                "summary": "Create a timestamped note",
                "parameters": [
                    {"name": "lessonId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/notes/{id}": {
            "delete": {
                "tags": ["Notes"],
                "summary": "Delete a note",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/dashboard/summary": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Instructor dashboard summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/dashboard/enrollments/export": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Export enrollments as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users (admin)",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "User detail",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Course": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "string"},
                "price": {"type": "integer"},
                "rating": {"type": "number"},
                "review_count": {"type": "integer"},
                "student_count": {"type": "integer"},
                "instructor_id": {"type": "string"},
                "instructor_name": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "published": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "Lesson": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "section_id": {"type": "string"},
                "title": {"type": "string"},
                "duration_seconds": {"type": "integer"},
                "preview": {"type": "boolean"},
                "state": {"type": "string", "enum": ["locked", "available", "current", "completed"]},
                "completed_at": {"type": "string"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "name": {"type": "string"}
            },
            "required": ["email", "password", "name"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "current_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["current_password", "new_password"]
        },
        "CreateCourseRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "string", "enum": ["beginner", "intermediate", "advanced"]},
                "price": {"type": "integer"},
                "tags": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["title", "category", "level"]
        },
        "UpdateCourseRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "category": {"type": "string"},
                "level": {"type": "string"},
                "price": {"type": "integer"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateSectionRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "duration": {"type": "string"},
                "position": {"type": "integer"}
            },
            "required": ["title"]
        },
        "CreateLessonRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "duration": {"type": "string"},
                "position": {"type": "integer"},
                "preview": {"type": "boolean"},
                "video_url": {"type": "string"}
            },
            "required": ["title"]
        },
        "SetPublishedRequest": {
            "type": "object",
            "properties": {
                "published": {"type": "boolean"}
            },
            "required": ["published"]
        },
        "EnrollRequest": {
            "type": "object",
            "properties": {
                "course_id": {"type": "string"}
            },
            "required": ["course_id"]
        },
        "CreateNoteRequest": {
            "type": "object",
            "properties": {
                "seconds": {"type": "integer"},
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "SubmitReviewRequest": {
            "type": "object",
            "properties": {
                "rating": {"type": "number", "minimum": 1, "maximum": 5},
                "comment": {"type": "string"}
            },
            "required": ["rating"]
        },
        "CreatePostRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "content": {"type": "string"}
            },
            "required": ["title", "content"]
        },
        "UpdatePostRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "content": {"type": "string"}
            }
        },
        "CreateCommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"},
                "parent_id": {"type": "string"}
            },
            "required": ["content"]
        },
        "UpdateCommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            },
            "required": ["content"]
        },
        "CreateQuizRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "time_limit": {"type": "integer", "minimum": 0},
                "max_attempts": {"type": "integer", "minimum": 0},
                "passing_score": {"type": "integer", "minimum": 0, "maximum": 100},
                "questions": {"type": "array", "items": {"$ref": "#/definitions/CreateQuestionRequest"}}
            },
            "required": ["title", "questions"]
        },
        "CreateQuestionRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "type": {"type": "string", "enum": ["multiple_choice", "true_false", "short_answer", "essay"]},
                "points": {"type": "integer", "minimum": 1},
                "explanation": {"type": "string"},
                "choices": {"type": "array", "items": {"$ref": "#/definitions/CreateChoiceRequest"}}
            },
            "required": ["text", "type"]
        },
        "CreateChoiceRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "correct": {"type": "boolean"}
            },
            "required": ["text"]
        },
        "UpdateQuizRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "time_limit": {"type": "integer"},
                "max_attempts": {"type": "integer"},
                "passing_score": {"type": "integer"},
                "published": {"type": "boolean"}
            }
        },
        "SubmitQuizRequest": {
            "type": "object",
            "properties": {
                "answers": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "question_id": {"type": "string"},
                            "selected_choices": {"type": "array", "items": {"type": "string"}},
                            "text_answer": {"type": "string"}
                        },
                        "required": ["question_id"]
                    }
                }
            },
            "required": ["answers"]
        },
        "GradeQuizRequest": {
            "type": "object",
            "properties": {
                "answers": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "question_id": {"type": "string"},
                            "points_awarded": {"type": "integer", "minimum": 0},
                            "correct": {"type": "boolean"},
                            "feedback": {"type": "string"}
                        },
                        "required": ["question_id"]
                    }
                }
            },
            "required": ["answers"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"},
                "request_id": {"type": "string"}
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
