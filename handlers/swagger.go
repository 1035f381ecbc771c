package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves the API description.
// - GET /swagger/index.html  -> Swagger UI loading the document below
// - GET /swagger/doc.json    -> OpenAPI document
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>teamkb API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "teamkb", "version": "v1.0.0" },
  "servers": [{ "url": "/api" }],
  "components": {
    "securitySchemes": {
      "cookieAuth": { "type": "apiKey", "in": "cookie", "name": "token" },
      "bearerAuth": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" }
    },
    "schemas": {
      "Error": { "type": "object", "properties": { "success": { "type": "boolean" }, "message": { "type": "string" } } },
      "Document": { "type": "object", "properties": {
        "id": { "type": "string" }, "title": { "type": "string" }, "content": { "type": "string" },
        "summary": { "type": "string" }, "tags": { "type": "array", "items": { "type": "string" } },
        "createdBy": { "type": "string" }, "createdAt": { "type": "string", "format": "date-time" },
        "updatedAt": { "type": "string", "format": "date-time" } } }
    }
  },
  "security": [{ "cookieAuth": [] }, { "bearerAuth": [] }],
  "paths": {
    "/user/register": { "post": { "summary": "Register a user", "security": [],
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["email","name","password"], "properties": { "email": { "type": "string" }, "name": { "type": "string" }, "password": { "type": "string" } } } } } },
      "responses": { "201": { "description": "user created" }, "400": { "description": "missing fields or email taken" } } } },
    "/user/login": { "post": { "summary": "Log in and receive the token cookie", "security": [],
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["email","password"], "properties": { "email": { "type": "string" }, "password": { "type": "string" } } } } } },
      "responses": { "200": { "description": "user and token" }, "401": { "description": "bad credentials" } } } },
    "/user/logout": { "post": { "summary": "Revoke the current token and clear the cookie", "responses": { "200": { "description": "logged out" }, "401": { "description": "not authenticated" } } } },
    "/user/profile": { "get": { "summary": "Current user", "responses": { "200": { "description": "user" }, "401": { "description": "not authenticated" } } } },
    "/documents/create": { "post": { "summary": "Create a document with AI summary and tags",
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["title","content"], "properties": { "title": { "type": "string" }, "content": { "type": "string" } } } } } },
      "responses": { "201": { "description": "doc" }, "400": { "description": "missing fields" }, "500": { "description": "AI failure" } } } },
    "/documents/all": { "get": { "summary": "All documents, newest first", "responses": { "200": { "description": "docs" } } } },
    "/documents/search": { "get": { "summary": "Case-insensitive substring search",
      "parameters": [{ "name": "query", "in": "query", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "docs" }, "400": { "description": "blank query" } } } },
    "/documents/semantic-search": { "post": { "summary": "AI-ranked search with positional fallback",
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["query"], "properties": { "query": { "type": "string" } } } } } },
      "responses": { "200": { "description": "query, totalResults, results, fallback" }, "400": { "description": "blank query" } } } },
    "/documents/answer-question": { "post": { "summary": "Answer a question from the knowledge base",
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["question"], "properties": { "question": { "type": "string" } } } } } },
      "responses": { "200": { "description": "question, answer, documentsUsed, fallback" }, "400": { "description": "blank question" }, "404": { "description": "no documents" } } } },
    "/documents/{id}": { "get": { "summary": "One document",
      "parameters": [{ "name": "id", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "doc" }, "404": { "description": "not found" } } } },
    "/documents/update/{id}": { "put": { "summary": "Partial update; snapshots the previous state",
      "parameters": [{ "name": "id", "in": "path", "required": true, "schema": { "type": "string" } }],
      "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "title": { "type": "string" }, "content": { "type": "string" }, "summary": { "type": "string" }, "tags": { "type": "array", "items": { "type": "string" } } } } } } },
      "responses": { "200": { "description": "doc" }, "400": { "description": "blank title or content" }, "404": { "description": "not found" } } } },
    "/documents/delete/{id}": { "delete": { "summary": "Delete a document (owner or admin)",
      "parameters": [{ "name": "id", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "deleted" }, "403": { "description": "not the owner" }, "404": { "description": "not found" } } } },
    "/versions/history/{documentId}": { "get": { "summary": "Version history, newest first",
      "parameters": [{ "name": "documentId", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "versions" } } } },
    "/versions/{versionId}": { "get": { "summary": "One version",
      "parameters": [{ "name": "versionId", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "version" }, "404": { "description": "not found" } } } },
    "/versions/restore/{versionId}": { "post": { "summary": "Restore a document to a version",
      "parameters": [{ "name": "versionId", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "doc" }, "404": { "description": "version or document not found" } } } },
    "/activities/team-feed": { "get": { "summary": "Five most recent activities", "responses": { "200": { "description": "activities" } } } },
    "/activities/user/{userId}": { "get": { "summary": "Activities of a user",
      "parameters": [{ "name": "userId", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "activities" } } } },
    "/activities/document/{documentId}": { "get": { "summary": "Activities on a document",
      "parameters": [{ "name": "documentId", "in": "path", "required": true, "schema": { "type": "string" } }],
      "responses": { "200": { "description": "activities" } } } },
    "/activities/recent-edits": { "get": { "summary": "Recently edited documents, deduplicated", "responses": { "200": { "description": "documents" } } } }
  }
}`
