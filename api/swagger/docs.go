// Package swagger registers the summary API description served under /swagger.
package swagger

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
        "/api/recipes/calculate": {"post": {"security": [{"BearerAuth": []}], "tags": ["recipes"], "summary": "Calculate recipe cost"}},
        "/api/recipes": {"post": {"security": [{"BearerAuth": []}], "tags": ["recipes"], "summary": "Create recipe version"}},
        "/api/products": {"get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Get products"}},
        "/api/products/{id}/recipe": {"get": {"security": [{"BearerAuth": []}], "tags": ["recipes"], "summary": "Get active recipe"}},
        "/api/products/{id}/recipes": {"get": {"security": [{"BearerAuth": []}], "tags": ["recipes"], "summary": "List recipe versions"}},
        "/api/products/{id}/recipes/{version}/activate": {"put": {"security": [{"BearerAuth": []}], "tags": ["recipes"], "summary": "Activate recipe version"}},
        "/api/raw-items": {"get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Get raw items"}},
        "/api/addons": {"get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Get addons"}},
        "/api/waste": {"post": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Record waste"}},
        "/api/costing/modifiers": {"post": {"security": [{"BearerAuth": []}], "tags": ["costing"], "summary": "Calculate modifiers cost"}},
        "/api/costing/orders": {"post": {"security": [{"BearerAuth": []}], "tags": ["costing"], "summary": "Preview order COGS"}},
        "/api/orders": {"post": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Create order"}},
        "/api/orders/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Get order"}},
        "/api/accounting/daily": {"get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Daily accounting snapshot"}},
        "/api/accounting/snapshots": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "List snapshots"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Save daily snapshot"}
        },
        "/api/accounting/snapshots/{id}/approve": {"put": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Approve snapshot"}},
        "/api/accounting/profit/items": {"get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Profit per drink"}},
        "/api/accounting/profit/categories": {"get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Profit per category"}},
        "/api/accounting/profit/top": {"get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Top profitable items"}},
        "/api/accounting/profit/worst": {"get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Worst items"}},
        "/api/accounting/waste": {"get": {"security": [{"BearerAuth": []}], "tags": ["accounting"], "summary": "Waste report"}},
        "/api/reports/orders.csv": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Export orders (CSV)"}},
        "/api/reports/inventory.csv": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Export inventory (CSV)"}},
        "/api/reports/profit.csv": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Export profit (CSV)"}},
        "/api/reports/profit.xlsx": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Export profit (XLSX)"}},
        "/api/reports/summary": {"get": {"security": [{"BearerAuth": []}], "tags": ["reports"], "summary": "Daily summary"}},
        "/api/invoices": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["invoices"], "summary": "List tax invoices"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["invoices"], "summary": "Issue tax invoice"}
        },
        "/api/invoices/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["invoices"], "summary": "Get tax invoice"}},
        "/api/invoices/verify": {"get": {"security": [{"BearerAuth": []}], "tags": ["invoices"], "summary": "Verify invoice chain"}},
        "/api/invoices/vat-summary": {"get": {"security": [{"BearerAuth": []}], "tags": ["invoices"], "summary": "VAT summary"}},
        "/api/tax-rules": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["tax"], "summary": "List tax rules"},
            "post": {"security": [{"BearerAuth": []}], "tags": ["tax"], "summary": "Create tax rule"}
        },
        "/api/tax-rules/active": {"get": {"security": [{"BearerAuth": []}], "tags": ["tax"], "summary": "Active tax rate"}},
        "/api/audit-logs": {"get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Get audit logs"}}
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
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Cafe Ledger API",
	Description:      "Cost accounting and hash-chained tax invoices for a cafe chain.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
