// Package docs registers the control API description with swag so that
// gin-swagger can serve it at /swagger/doc.json.
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
    "paths": {
        "/api/agents": {
            "get": {
                "description": "Point-in-time snapshot of every registered agent",
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "List agents",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Agent"}}
                    }
                }
            }
        },
        "/api/agents/{id}/scan": {
            "post": {
                "description": "Queue a recursive scan for the agent; it is delivered on the agent's next heartbeat.\nUnknown agents and paths starting with \"-\" get an error payload with status 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["agents"],
                "summary": "Trigger a scan",
                "parameters": [
                    {"type": "string", "description": "Agent ID", "name": "id", "in": "path", "required": true},
                    {"description": "Scan target", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/models.TriggerScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.TriggerScanResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/logs": {
            "get": {
                "description": "Operational log records, newest first",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List hub logs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.LogRecord"}}}
                }
            }
        },
        "/api/scans": {
            "get": {
                "description": "All reported scan outcomes, newest first",
                "produces": ["application/json"],
                "tags": ["scans"],
                "summary": "List scan history",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.ScanRecord"}}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Check if the service is running",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "models.Agent": {
            "type": "object",
            "properties": {
                "hostname": {"type": "string"},
                "id": {"type": "string"},
                "infected_files": {"type": "integer"},
                "last_seen": {"type": "integer"},
                "status": {"type": "string"},
                "version": {"type": "string"}
            }
        },
        "models.LogRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "level": {"type": "string"},
                "message": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        },
        "models.ScanRecord": {
            "type": "object",
            "properties": {
                "agent_id": {"type": "string"},
                "details": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string"},
                "threats_found": {"type": "integer"},
                "timestamp": {"type": "integer"}
            }
        },
        "models.TriggerScanRequest": {
            "type": "object",
            "properties": {
                "path": {"type": "string"}
            }
        },
        "models.TriggerScanResponse": {
            "type": "object",
            "properties": {
                "agent_id": {"type": "string"},
                "status": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Scan Fleet Hub API",
	Description:      "Control API for the scan fleet hub: agent inventory, scan and log history, scan triggering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
