package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Learning Analytics API",
        "description": "Aggregation pipeline and dashboard reads over pre-computed learning analytics",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Analytics", "description": "Aggregation runs and dashboard reads"},
        {"name": "System", "description": "Operational metrics"}
    ],
    "paths": {
        "/analytics/compute": {
            "post": {
                "tags": ["Analytics"],
                "summary": "Trigger an analytics computation run",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/ComputationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ComputationResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ErrorEnvelope"}},
                    "500": {"description": "Computation failed", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/analytics/dashboard": {
            "post": {
                "tags": ["Analytics"],
                "summary": "Build a dashboard payload for the requested metric groups",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/DashboardRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "500": {"description": "Dashboard build failed", "schema": {"$ref": "#/definitions/ErrorEnvelope"}}
                }
            }
        },
        "/system/stats": {
            "get": {
                "tags": ["System"],
                "summary": "Runtime metrics snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/SystemMetrics"}}
                }
            }
        }
    },
    "definitions": {
        "ComputationRequest": {
            "type": "object",
            "properties": {
                "computationType": {"type": "string", "enum": ["daily", "weekly", "monthly", "benchmarks", "all"]},
                "clientId": {"type": "string"},
                "userId": {"type": "string"},
                "forceRecalculation": {"type": "boolean"},
                "batchSize": {"type": "integer"}
            }
        },
        "ComputationResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "computationType": {"type": "string"},
                "results": {"type": "object"},
                "duration": {"type": "integer"},
                "computationLogId": {"type": "string"}
            }
        },
        "DateRange": {
            "type": "object",
            "properties": {
                "start": {"type": "string", "format": "date-time"},
                "end": {"type": "string", "format": "date-time"}
            }
        },
        "DashboardRequest": {
            "type": "object",
            "properties": {
                "clientId": {"type": "string"},
                "userId": {"type": "string"},
                "dateRange": {"$ref": "#/definitions/DateRange"},
                "metrics": {"type": "array", "items": {"type": "string"}},
                "analyticsType": {"type": "string", "enum": ["dashboard", "individual", "comparative", "predictive"]},
                "benchmarkScope": {"type": "string", "enum": ["global", "client", "peer"]}
            }
        },
        "SystemMetrics": {
            "type": "object",
            "properties": {
                "cache_hit_ratio": {"type": "number"},
                "cache_hits": {"type": "integer"},
                "cache_misses": {"type": "integer"},
                "requests_total": {"type": "integer"},
                "average_request_duration_ms": {"type": "number"},
                "computation_runs": {"type": "integer"},
                "computation_failures": {"type": "integer"},
                "goroutines": {"type": "integer"},
                "generated_at": {"type": "string", "format": "date-time"}
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
        "ErrorEnvelope": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/APIError"}
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
