package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Firewatch Maintenance API",
        "description": "Maintenance-visit planning for fire-safety service contracts",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and token lifecycle"},
        {"name": "Companies", "description": "Customer organisations"},
        {"name": "Branches", "description": "Company locations"},
        {"name": "Contracts", "description": "Maintenance agreements and service batches"},
        {"name": "Visits", "description": "Scheduled maintenance events and exports"},
        {"name": "Planner", "description": "Visit planning runs"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a user",
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
                "summary": "Exchange a refresh token for a new token pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke the caller's refresh token",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "204": {"description": "Revoked"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Return the authenticated user",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/companies": {
            "get": {
                "tags": ["Companies"],
                "summary": "List companies",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "includeArchived", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Companies"],
                "summary": "Create company",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCompanyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/companies/{id}": {
            "get": {
                "tags": ["Companies"],
                "summary": "Get one company",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Companies"],
                "summary": "Update company",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCompanyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Companies"],
                "summary": "Archive company",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Archived"}
                }
            }
        },
        "/branches": {
            "get": {
                "tags": ["Branches"],
                "summary": "List branches",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "companyId", "in": "query", "type": "string"},
                    {"name": "city", "in": "query", "type": "string"},
                    {"name": "includeArchived", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Branches"],
                "summary": "Create branch",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBranchRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/branches/{id}": {
            "get": {
                "tags": ["Branches"],
                "summary": "Get one branch",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Branches"],
                "summary": "Update branch",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBranchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Branches"],
                "summary": "Archive branch",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Archived"}
                }
            }
        },
        "/contracts": {
            "get": {
                "tags": ["Contracts"],
                "summary": "List contracts",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "companyId", "in": "query", "type": "string"},
                    {"name": "includeArchived", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Contracts"],
                "summary": "Create contract",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateContractRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/contracts/{id}": {
            "get": {
                "tags": ["Contracts"],
                "summary": "Get one contract",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Contracts"],
                "summary": "Update contract",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateContractRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Contracts"],
                "summary": "Archive contract",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Archived"}
                }
            }
        },
        "/visits": {
            "get": {
                "tags": ["Visits"],
                "summary": "List visits",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "companyId", "in": "query", "type": "string"},
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "contractId", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Visits"],
                "summary": "Manually schedule a visit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateVisitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/visits/export": {
            "get": {
                "tags": ["Visits"],
                "summary": "Export the visit schedule as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "companyId", "in": "query", "type": "string"},
                    {"name": "branchId", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered schedule file"}
                }
            }
        },
        "/visits/{id}": {
            "get": {
                "tags": ["Visits"],
                "summary": "Get one visit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Visits"],
                "summary": "Delete visit",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"}
                }
            }
        },
        "/visits/{id}/status": {
            "patch": {
                "tags": ["Visits"],
                "summary": "Update visit status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateVisitStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/run": {
            "post": {
                "tags": ["Planner"],
                "summary": "Run the visit planner synchronously for one company",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanVisitsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Planning result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Planning failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/enqueue": {
            "post": {
                "tags": ["Planner"],
                "summary": "Queue an asynchronous planning run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanVisitsRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/planner/result/{companyId}": {
            "get": {
                "tags": ["Planner"],
                "summary": "Fetch the last planning result for a company",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "companyId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No cached result"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "CreateCompanyRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "city": {"type": "string"}
            }
        },
        "CreateBranchRequest": {
            "type": "object",
            "required": ["company_id", "name"],
            "properties": {
                "company_id": {"type": "string"},
                "name": {"type": "string"},
                "city": {"type": "string"},
                "address": {"type": "string"}
            }
        },
        "ServiceFlags": {
            "type": "object",
            "properties": {
                "fire_extinguisher": {"type": "boolean"},
                "alarm": {"type": "boolean"},
                "suppression": {"type": "boolean"},
                "gas": {"type": "boolean"},
                "foam": {"type": "boolean"}
            }
        },
        "ServiceBatchRequest": {
            "type": "object",
            "required": ["name", "branch_ids"],
            "properties": {
                "name": {"type": "string"},
                "branch_ids": {"type": "array", "items": {"type": "string"}},
                "services": {"$ref": "#/definitions/ServiceFlags"},
                "regular_visits_per_year": {"type": "integer"},
                "emergency_visits_per_year": {"type": "integer"}
            }
        },
        "CreateContractRequest": {
            "type": "object",
            "required": ["company_id", "contract_number", "contract_start_date", "contract_end_date", "service_batches"],
            "properties": {
                "company_id": {"type": "string"},
                "contract_number": {"type": "string"},
                "contract_start_date": {"type": "string", "example": "01-Jan-2024"},
                "contract_end_date": {"type": "string", "example": "31-Dec-2024"},
                "service_batches": {"type": "array", "items": {"$ref": "#/definitions/ServiceBatchRequest"}}
            }
        },
        "CreateVisitRequest": {
            "type": "object",
            "required": ["branch_id", "contract_id", "type", "scheduled_date"],
            "properties": {
                "branch_id": {"type": "string"},
                "contract_id": {"type": "string"},
                "type": {"type": "string", "enum": ["regular", "emergency", "followup"]},
                "scheduled_date": {"type": "string", "example": "2024-01-06"},
                "services": {"$ref": "#/definitions/ServiceFlags"},
                "notes": {"type": "string"}
            }
        },
        "UpdateVisitStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["scheduled", "completed", "cancelled", "missed"]}
            }
        },
        "PlanVisitsRequest": {
            "type": "object",
            "required": ["companyId"],
            "properties": {
                "companyId": {"type": "string"},
                "persist": {"type": "boolean"},
                "maxVisitsPerDay": {"type": "integer"},
                "preferredWeekStart": {"type": "string", "enum": ["saturday", "sunday"]},
                "conflictResolution": {"type": "string", "enum": ["reschedule", "skip", "error"]}
            }
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
