// Package docs holds the swagger spec served at /swagger. Regenerate
// with `swag init -g cmd/server/main.go`.
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
        "/api/shorten": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Links"],
                "summary": "Shorten a URL",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Invalid URL"},
                    "503": {"description": "Code space exhausted"}
                }
            }
        },
        "/{code}": {
            "get": {
                "produces": ["text/html"],
                "tags": ["Links"],
                "summary": "Follow a short code",
                "parameters": [
                    {"type": "string", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "302": {"description": "Found"},
                    "404": {"description": "Unknown or expired code"}
                }
            }
        },
        "/api/links": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "security": [{"ApiKeyAuth": []}],
                "summary": "List all link records",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/sweep": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Admin"],
                "security": [{"ApiKeyAuth": []}],
                "summary": "Run one reclamation sweep now",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "linkcycle API",
	Description:      "URL shortener with code reclamation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
