// Package swagger registers the Bookcast OpenAPI document with swag.
package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "https://github.com/jackzampolin/bookcast"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Reports ready only when DefraDB answers its health check",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/endpoints.HealthResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Detailed server status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.StatusResponse"}}
                }
            }
        },
        "/api/books": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "List books",
                "parameters": [
                    {"type": "string", "description": "Only books of this owner", "name": "owner", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ListBooksResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/books/upload": {
            "post": {
                "description": "Upload an EPUB, PDF or plain-text book file",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Upload a book",
                "parameters": [
                    {"type": "file", "description": "Book file (.epub, .pdf, .txt)", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Book title", "name": "title", "in": "formData"},
                    {"type": "string", "description": "Book author", "name": "author", "in": "formData"},
                    {"type": "string", "description": "Store identifier used for shared dedup", "name": "store_id", "in": "formData"},
                    {"type": "string", "description": "Owning account", "name": "owner", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/endpoints.BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/books/{book_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["books"],
                "summary": "Get a book",
                "parameters": [
                    {"type": "string", "description": "Book ID", "name": "book_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.BookResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/catalog/search": {
            "get": {
                "description": "Searches Gutendex by title and author words",
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Search the public-domain catalog",
                "parameters": [
                    {"type": "string", "description": "Search terms", "name": "q", "in": "query", "required": true},
                    {"type": "integer", "description": "Result page (1-based)", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.SearchResult"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/catalog/import/{store_id}": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["catalog"],
                "summary": "Import a catalog book",
                "parameters": [
                    {"type": "integer", "description": "Gutendex book id", "name": "store_id", "in": "path", "required": true},
                    {"description": "Owner", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/endpoints.ImportRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/endpoints.BookResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/books/{book_id}/podcasts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["podcasts"],
                "summary": "List series for a book",
                "parameters": [
                    {"type": "string", "description": "Book ID", "name": "book_id", "in": "path", "required": true},
                    {"type": "string", "description": "Owning account", "name": "owner", "in": "query"},
                    {"type": "boolean", "description": "Include outlines and scripts", "name": "full", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ListPodcastsResponse"}}
                }
            },
            "post": {
                "description": "Starts series generation for a book in one tone",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["podcasts"],
                "summary": "Generate a podcast series",
                "parameters": [
                    {"type": "string", "description": "Book ID", "name": "book_id", "in": "path", "required": true},
                    {"description": "Tone and owner", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoints.GenerateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/endpoints.JobResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/endpoints.ActiveJobResponse"}}
                }
            }
        },
        "/api/books/{book_id}/podcasts/{tone_id}/retry": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["podcasts"],
                "summary": "Retry failed episodes",
                "parameters": [
                    {"type": "string", "description": "Book ID", "name": "book_id", "in": "path", "required": true},
                    {"type": "string", "description": "Tone ID", "name": "tone_id", "in": "path", "required": true},
                    {"description": "Episode numbers", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/endpoints.RetryRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/endpoints.JobResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/endpoints.ActiveJobResponse"}}
                }
            }
        },
        "/api/books/{book_id}/podcasts/{tone_id}/episodes/{n}/audio": {
            "get": {
                "produces": ["audio/mpeg"],
                "tags": ["podcasts"],
                "summary": "Download rendered episode audio",
                "parameters": [
                    {"type": "string", "description": "Book ID", "name": "book_id", "in": "path", "required": true},
                    {"type": "string", "description": "Tone ID", "name": "tone_id", "in": "path", "required": true},
                    {"type": "integer", "description": "Episode number", "name": "n", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            },
            "post": {
                "produces": ["application/json"],
                "tags": ["podcasts"],
                "summary": "Render episode audio",
                "parameters": [
                    {"type": "string", "description": "Book ID", "name": "book_id", "in": "path", "required": true},
                    {"type": "string", "description": "Tone ID", "name": "tone_id", "in": "path", "required": true},
                    {"type": "integer", "description": "Episode number", "name": "n", "in": "path", "required": true},
                    {"type": "string", "description": "Owning account", "name": "owner", "in": "query"},
                    {"type": "boolean", "description": "Re-render even if the file exists", "name": "force", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.AudioResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/podcast-jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List podcast generation jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ListJobsResponse"}}
                }
            }
        },
        "/api/llm-calls": {
            "get": {
                "description": "Recent outline and episode generation calls, newest first, with token usage per provider",
                "produces": ["application/json"],
                "tags": ["llmcalls"],
                "summary": "List LLM calls",
                "parameters": [
                    {"type": "string", "description": "Filter by job", "name": "job_id", "in": "query"},
                    {"type": "string", "description": "Filter by book", "name": "book_id", "in": "query"},
                    {"type": "string", "description": "outline or episode", "name": "purpose", "in": "query"},
                    {"type": "string", "description": "Filter by provider", "name": "provider", "in": "query"},
                    {"type": "boolean", "description": "Filter by outcome", "name": "success", "in": "query"},
                    {"type": "integer", "description": "Maximum calls returned", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ListLLMCallsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/notifications": {
            "get": {
                "produces": ["application/json"],
                "tags": ["notifications"],
                "summary": "List notifications",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/endpoints.ListNotificationsResponse"}}
                }
            },
            "delete": {
                "tags": ["notifications"],
                "summary": "Clear all notifications",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/notifications/{id}": {
            "delete": {
                "tags": ["notifications"],
                "summary": "Dismiss a notification",
                "parameters": [
                    {"type": "string", "description": "Notification ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/endpoints.ErrorResponse"}}
                }
            }
        },
        "/api/events": {
            "get": {
                "description": "Server-Sent Events: \"jobs\" and \"notifications\" events carry full snapshots",
                "produces": ["text/event-stream"],
                "tags": ["jobs"],
                "summary": "Progress stream",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "endpoints.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "endpoints.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}, "defra": {"type": "string"}}
        },
        "endpoints.StatusResponse": {
            "type": "object",
            "properties": {
                "server": {"type": "string"},
                "active_jobs": {"type": "integer"},
                "providers": {
                    "type": "object",
                    "properties": {
                        "llm": {"type": "array", "items": {"type": "string"}},
                        "tts": {"type": "array", "items": {"type": "string"}}
                    }
                },
                "defra": {
                    "type": "object",
                    "properties": {
                        "container": {"type": "string"},
                        "health": {"type": "string"},
                        "url": {"type": "string"}
                    }
                }
            }
        },
        "library.Book": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "store_id": {"type": "string"},
                "format": {"type": "string", "enum": ["epub", "pdf", "txt"]},
                "file_url": {"type": "string"},
                "owner": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "endpoints.BookResponse": {
            "type": "object",
            "properties": {"book": {"$ref": "#/definitions/library.Book"}}
        },
        "endpoints.ListBooksResponse": {
            "type": "object",
            "properties": {"books": {"type": "array", "items": {"$ref": "#/definitions/library.Book"}}}
        },
        "endpoints.ImportRequest": {
            "type": "object",
            "properties": {"owner": {"type": "string"}}
        },
        "catalog.SearchResult": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "next": {"type": "string"},
                "previous": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "endpoints.GenerateRequest": {
            "type": "object",
            "properties": {
                "tone_id": {"type": "string"},
                "owner": {"type": "string"},
                "seasons": {"type": "integer"},
                "episodes_per_season": {"type": "integer"}
            }
        },
        "endpoints.RetryRequest": {
            "type": "object",
            "properties": {
                "episodes": {"type": "array", "items": {"type": "integer"}},
                "owner": {"type": "string"}
            }
        },
        "llmcall.Call": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "latency_ms": {"type": "integer"},
                "job_id": {"type": "string"},
                "book_id": {"type": "string"},
                "tone_id": {"type": "string"},
                "purpose": {"type": "string"},
                "episode": {"type": "integer"},
                "provider": {"type": "string"},
                "model": {"type": "string"},
                "temperature": {"type": "number"},
                "prompt_chars": {"type": "integer"},
                "input_tokens": {"type": "integer"},
                "output_tokens": {"type": "integer"},
                "attempts": {"type": "integer"},
                "response": {"type": "string"},
                "success": {"type": "boolean"},
                "error": {"type": "string"}
            }
        },
        "llmcall.Usage": {
            "type": "object",
            "properties": {
                "calls": {"type": "integer"},
                "failures": {"type": "integer"},
                "input_tokens": {"type": "integer"},
                "output_tokens": {"type": "integer"},
                "avg_latency_ms": {"type": "number"}
            }
        },
        "llmcall.Summary": {
            "type": "object",
            "properties": {
                "total": {"$ref": "#/definitions/llmcall.Usage"},
                "by_provider": {"type": "array", "items": {"$ref": "#/definitions/llmcall.Usage"}}
            }
        },
        "jobs.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "book_id": {"type": "string"},
                "book_title": {"type": "string"},
                "tone_id": {"type": "string"},
                "tone": {"type": "string"},
                "kind": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "dedup-local", "dedup-shared", "extracting", "planning", "generating", "done", "error"]},
                "label": {"type": "string"},
                "error": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "jobs.Notification": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string", "enum": ["info", "success", "warning", "error"]},
                "title": {"type": "string"},
                "message": {"type": "string"},
                "book_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "endpoints.JobResponse": {
            "type": "object",
            "properties": {"job": {"$ref": "#/definitions/jobs.Job"}}
        },
        "endpoints.ActiveJobResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "job_id": {"type": "string"}}
        },
        "endpoints.ListJobsResponse": {
            "type": "object",
            "properties": {"jobs": {"type": "array", "items": {"$ref": "#/definitions/jobs.Job"}}}
        },
        "endpoints.ListLLMCallsResponse": {
            "type": "object",
            "properties": {
                "calls": {"type": "array", "items": {"$ref": "#/definitions/llmcall.Call"}},
                "summary": {"$ref": "#/definitions/llmcall.Summary"}
            }
        },
        "endpoints.ListNotificationsResponse": {
            "type": "object",
            "properties": {"notifications": {"type": "array", "items": {"$ref": "#/definitions/jobs.Notification"}}}
        },
        "endpoints.SeriesSummary": {
            "type": "object",
            "properties": {
                "tone_id": {"type": "string"},
                "title": {"type": "string"},
                "episodes": {"type": "integer"},
                "ready": {"type": "array", "items": {"type": "integer"}},
                "series": {"type": "object"}
            }
        },
        "endpoints.ListPodcastsResponse": {
            "type": "object",
            "properties": {
                "book_id": {"type": "string"},
                "series": {"type": "array", "items": {"$ref": "#/definitions/endpoints.SeriesSummary"}}
            }
        },
        "endpoints.AudioResponse": {
            "type": "object",
            "properties": {
                "book_id": {"type": "string"},
                "tone_id": {"type": "string"},
                "episode": {"type": "integer"},
                "path": {"type": "string"},
                "bytes": {"type": "integer"},
                "cached": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Bookcast API",
	Description:      "Turns books into multi-episode podcast series: upload or import books, generate outlines and episode scripts, render audio and follow progress.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
