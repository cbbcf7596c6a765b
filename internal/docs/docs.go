// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g internal/server/router.go -o internal/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Welcome message",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Liveness probe. Not rate limited and requires no token.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/ready": {
            "get": {
                "description": "Pings the token store. Not rate limited and requires no token.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.HealthResponse"}},
                    "503": {"description": "Store unreachable", "schema": {"$ref": "#/definitions/models.HealthResponse"}}
                }
            }
        },
        "/auth/tokens": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns every token, admin tokens included, in creation order.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "List all tokens",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Token"}}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Issues a new server-generated bearer token. An empty body creates a non-admin token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Create a new token",
                "parameters": [
                    {"description": "Token role", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/services.CreateTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TokenCreatedResponse"}},
                    "400": {"description": "Malformed JSON body", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/auth/tokens/{token}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Permanently revokes a token. Subsequent requests with it are rejected.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Delete a token",
                "parameters": [
                    {"type": "string", "description": "Token value", "name": "token", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.MessageResponse"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Token not found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/auth/tokens/{token}/usage": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Total metered requests of a token and its most recent usage records, newest first.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Token usage report",
                "parameters": [
                    {"type": "string", "description": "Token value", "name": "token", "in": "path", "required": true},
                    {"type": "integer", "description": "Number of recent records (1-100, default 20)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.UsageReport"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "404": {"description": "Token not found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/moderate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Classifies an uploaded JPEG, PNG or GIF (max 5 MiB) for harmful content.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["moderation"],
                "summary": "Moderate an image",
                "parameters": [
                    {"type": "file", "description": "Image to analyze", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/classifier.Result"}},
                    "400": {"description": "Missing file, unsupported type or file too large", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Missing or unknown token", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Rate limit exceeded", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "500": {"description": "Classifier unavailable", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "classifier.Result": {
            "type": "object",
            "properties": {
                "safe": {"type": "boolean"},
                "categories": {"type": "object", "additionalProperties": {"type": "number"}},
                "confidence": {"type": "number"},
                "labels": {"type": "array", "items": {"type": "string"}}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "unauthorized"},
                "message": {"type": "string", "example": "invalid or missing bearer token"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "service": {"type": "string"}
            }
        },
        "models.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "models.Token": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "is_admin": {"type": "boolean"},
                "created_at": {"type": "string"},
                "last_used": {"type": "string"}
            }
        },
        "models.TokenCreatedResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "is_admin": {"type": "boolean"},
                "created_at": {"type": "string"}
            }
        },
        "models.UsageRecord": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "endpoint": {"type": "string"},
                "timestamp": {"type": "string"},
                "file_size": {"type": "integer"},
                "file_type": {"type": "string"},
                "status": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "services.UsageReport": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "is_admin": {"type": "boolean"},
                "used": {"type": "boolean"},
                "last_used": {"type": "string"},
                "total_requests": {"type": "integer"},
                "recent_errors": {"type": "integer"},
                "recent": {"type": "array", "items": {"$ref": "#/definitions/models.UsageRecord"}}
            }
        },
        "services.CreateTokenRequest": {
            "type": "object",
            "properties": {
                "is_admin": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Image Moderation API",
	Description:      "Bearer-token gateway in front of an image classifier.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
