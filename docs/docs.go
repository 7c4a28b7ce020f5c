// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with `swag init -g cmd/tixgo/main.go`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/healthz": {"get": {"summary": "Health check", "responses": {"200": {"description": "OK"}}}},
        "/events": {"get": {"summary": "List events", "responses": {"200": {"description": "OK"}}}},
        "/events/{id}": {"get": {
            "summary": "Get event with days and passes",
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "integer"}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
        }},
        "/payments/orders": {"post": {
            "summary": "Create payment order",
            "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "429": {"description": "rate limited"}, "500": {"description": "Internal Server Error"}}
        }},
        "/payments/verify": {"post": {
            "summary": "Verify payment and issue ticket (idempotent per order and payment id)",
            "responses": {"200": {"description": "OK"}, "400": {"description": "invalid signature / payment not successful"}, "409": {"description": "verification in progress"}, "500": {"description": "Internal Server Error"}}
        }},
        "/admin/login": {"post": {"summary": "Admin login", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/admin/events": {"post": {"summary": "Create event with days and passes", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}},
        "/admin/bookings": {"get": {"summary": "List bookings", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/bookings/{id}": {"get": {
            "summary": "Get booking",
            "security": [{"BearerAuth": []}],
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
        }},
        "/admin/analytics/summary": {"get": {"summary": "Booking and revenue totals", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "TixGo API",
	Description:      "Event catalogue, payment orders, payment verification and ticket issuing.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
