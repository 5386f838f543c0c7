package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Smart Asset API",
        "description": "Internal asset management backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and password management"},
        {"name": "Me", "description": "Own profile and avatar"},
        {"name": "Users", "description": "Read-only user directory (admin)"},
        {"name": "Assets", "description": "Asset registry"},
        {"name": "Inventory", "description": "Consumable stock"},
        {"name": "Assignments", "description": "Asset loans and the return workflow"},
        {"name": "Tickets", "description": "Repair tickets and the resolution workflow"},
        {"name": "Notifications", "description": "Per-user notification feed"},
        {"name": "Dashboard", "description": "Reporting"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "responses": {"200": {"description": "Token pair issued"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Rotate refresh token",
                "responses": {"200": {"description": "New token pair"}, "401": {"description": "Expired or revoked token"}}
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Logged out"}}
            }
        },
        "/auth/password-reset": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Request password reset",
                "responses": {"200": {"description": "Acknowledged"}}
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Change own password",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Password changed"}, "403": {"description": "Old password mismatch"}}
            }
        },
        "/me": {
            "get": {
                "tags": ["Me"],
                "summary": "Get own profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Profile"}}
            },
            "patch": {
                "tags": ["Me"],
                "summary": "Update own profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Updated profile"}}
            }
        },
        "/me/avatar": {
            "post": {
                "tags": ["Me"],
                "summary": "Upload avatar",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "responses": {"200": {"description": "Updated profile"}}
            }
        },
        "/users": {
            "get": {
                "tags": ["Users"],
                "summary": "List users",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Users"}, "403": {"description": "Admin only"}}
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["Users"],
                "summary": "Get user",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "User"}, "404": {"description": "Not found"}}
            }
        },
        "/assets": {
            "get": {
                "tags": ["Assets"],
                "summary": "List assets",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "q", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "employee", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "Assets"}}
            },
            "post": {
                "tags": ["Assets"],
                "summary": "Register asset",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate serial"}}
            }
        },
        "/assets/export": {
            "get": {
                "tags": ["Assets"],
                "summary": "Export asset register",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Rendered file"}}
            }
        },
        "/assets/{id}": {
            "get": {
                "tags": ["Assets"],
                "summary": "Get asset",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Asset"}}
            },
            "put": {
                "tags": ["Assets"],
                "summary": "Update asset",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated asset"}}
            },
            "delete": {
                "tags": ["Assets"],
                "summary": "Delete asset",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}, "409": {"description": "Asset is referenced"}}
            }
        },
        "/inventory": {
            "get": {
                "tags": ["Inventory"],
                "summary": "List inventory items",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Items"}}
            },
            "post": {
                "tags": ["Inventory"],
                "summary": "Create inventory item",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/inventory/{id}": {
            "get": {
                "tags": ["Inventory"],
                "summary": "Get inventory item",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Item"}}
            },
            "put": {
                "tags": ["Inventory"],
                "summary": "Update inventory item",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated item"}}
            },
            "delete": {
                "tags": ["Inventory"],
                "summary": "Delete inventory item",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/assignments": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "employee", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "Assignments"}}
            },
            "post": {
                "tags": ["Assignments"],
                "summary": "Create assignment",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/assignments/{id}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "Get assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Assignment"}}
            },
            "patch": {
                "tags": ["Assignments"],
                "summary": "Update assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated assignment"}}
            }
        },
        "/assignments/{id}/request-return": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Request return",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated assignment"}, "409": {"description": "Already returned"}}
            }
        },
        "/assignments/{id}/confirm-return": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Confirm return",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated assignment"}, "409": {"description": "Already returned"}}
            }
        },
        "/tickets": {
            "get": {
                "tags": ["Tickets"],
                "summary": "List tickets",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "employee", "in": "query", "type": "string"}],
                "responses": {"200": {"description": "Tickets"}}
            },
            "post": {
                "tags": ["Tickets"],
                "summary": "Create ticket",
                "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tickets/{id}": {
            "get": {
                "tags": ["Tickets"],
                "summary": "Get ticket",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Ticket"}}
            },
            "patch": {
                "tags": ["Tickets"],
                "summary": "Update ticket",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated ticket"}, "403": {"description": "Admin only"}}
            }
        },
        "/tickets/{id}/mark-done": {
            "post": {
                "tags": ["Tickets"],
                "summary": "Mark ticket resolved",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated ticket"}, "403": {"description": "Technician only"}, "409": {"description": "Wrong state"}}
            }
        },
        "/tickets/{id}/approve-close": {
            "post": {
                "tags": ["Tickets"],
                "summary": "Close a resolved ticket",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated ticket"}, "409": {"description": "Not resolved"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "List own notifications",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Notifications"}}
            }
        },
        "/notifications/{id}": {
            "patch": {
                "tags": ["Notifications"],
                "summary": "Toggle read marker",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Updated notification"}, "400": {"description": "Payload must contain only read"}}
            }
        },
        "/notifications/mark-all-read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark all as read",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Rows updated"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Totals and asset status breakdown",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "Stats"}}
            }
        },
        "/recent-activity": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Recent tickets and assignments",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "limit", "in": "query", "type": "integer", "default": 5}],
                "responses": {"200": {"description": "Recent activity"}}
            }
        }
    },
    "definitions": {
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
                "pagination": {"type": "object"},
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
