// Package users holds the Swagger document for the users service API.
package users

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team"
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
        "/v1/users/register": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/usersdk.RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/usersdk.UserResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Get a user profile",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.UserResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Rename the calling user",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/usersdk.RenameRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.UserResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/users/{id}/password": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Change the calling user's password",
                "consumes": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/usersdk.ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}},
                    "403": {"description": "Current password is incorrect", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/usersdk.LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.LoginResponse"}},
                    "401": {"description": "Invalid credentials or inactive account", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/auth/validate": {
            "post": {
                "tags": ["Auth"],
                "summary": "Validate an access token",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/usersdk.ValidateRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.ValidateResponse"}}
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log out",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/v1/admin/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Get the calling administrator",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.UserResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/admin/users": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Create an administrator",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/usersdk.CreateAdminRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/usersdk.UserResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/admin/users/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Delete (deactivate) a user",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/v1/admin/users/{id}/{action}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Admin"],
                "summary": "Promote, demote, deactivate or reactivate a user",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "enum": ["promote", "demote", "deactivate", "reactivate"], "name": "action", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.UserResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}},
                    "409": {"description": "Invalid state transition", "schema": {"$ref": "#/definitions/usersdk.ErrorResponse"}}
                }
            }
        },
        "/.well-known/jwks.json": {
            "get": {
                "tags": ["well-known"],
                "summary": "Get JWKS",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.JWKS"}}}
            }
        },
        "/livez": {
            "get": {
                "tags": ["Health"],
                "summary": "Liveness probe",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.HealthResponse"}}}
            }
        },
        "/readyz": {
            "get": {
                "tags": ["Health"],
                "summary": "Readiness probe",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/usersdk.HealthResponse"}},
                    "503": {"description": "Not ready", "schema": {"$ref": "#/definitions/usersdk.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "usersdk.RegisterRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {"email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string"}}
        },
        "usersdk.CreateAdminRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {"email": {"type": "string"}, "name": {"type": "string"}, "password": {"type": "string"}}
        },
        "usersdk.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "usersdk.ChangePasswordRequest": {
            "type": "object",
            "required": ["current_password", "new_password"],
            "properties": {"current_password": {"type": "string"}, "new_password": {"type": "string"}}
        },
        "usersdk.RenameRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {"name": {"type": "string"}}
        },
        "usersdk.ValidateRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "usersdk.UserResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "admin"]},
                "created_at": {"type": "string"},
                "is_active": {"type": "boolean"}
            }
        },
        "usersdk.LoginResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "expires_at": {"type": "string"},
                "last_login_at": {"type": "string"},
                "user": {"$ref": "#/definitions/usersdk.UserResponse"}
            }
        },
        "usersdk.ValidateResponse": {
            "type": "object",
            "properties": {
                "valid": {"type": "boolean"},
                "sub": {"type": "string"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "expires_at": {"type": "string"}
            }
        },
        "usersdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "uptime": {"type": "string"},
                "checks": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "usersdk.JWKS": {
            "type": "object",
            "properties": {"keys": {"type": "array", "items": {"type": "object"}}}
        },
        "usersdk.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}, "error_description": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "JWT access token. Format: \"Bearer {token}\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Users Service API",
	Description:      "Account registration, login and administration with JWT access tokens.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
