// Package docs OpenAPI-описание HTTP API в формате swaggo/swag.
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
        "/api/assessments": {
            "post": {
                "description": "Проверяет правдоподобие данных, кодирует признаки и вызывает классификатор. Наблюдение не сохраняется.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assessment"],
                "summary": "Оценить риск сердечно-сосудистого заболевания",
                "parameters": [
                    {"description": "Клиническое наблюдение", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/clinical.Observation"}}
                ],
                "responses": {
                    "200": {"description": "Результат оценки", "schema": {"$ref": "#/definitions/httpapi.AssessmentResponse"}},
                    "400": {"description": "Некорректные данные", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}},
                    "500": {"description": "Ошибка классификатора", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}},
                    "503": {"description": "Модель не загружена", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/advisories": {
            "post": {
                "description": "Возвращает рекомендательные сообщения валидатора. Модель не требуется.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Assessment"],
                "summary": "Проверить правдоподобие показателей",
                "parameters": [
                    {"description": "Клиническое наблюдение", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/clinical.Observation"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.AdvisoriesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/features/encode": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Features"],
                "summary": "Закодировать наблюдение",
                "parameters": [
                    {"description": "Клиническое наблюдение", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/clinical.Observation"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.FeaturesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpapi.ErrorResponse"}}
                }
            }
        },
        "/api/features/layout": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Features"],
                "summary": "Порядок колонок модели",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.LayoutResponse"}}
                }
            }
        },
        "/api/reference": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Reference"],
                "summary": "Значение клинических показателей",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.ReferenceResponse"}}
                }
            }
        },
        "/api/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Проверка состояния",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpapi.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "clinical.Observation": {
            "type": "object",
            "required": ["age", "sex", "chest_pain_type", "resting_bp", "cholesterol", "fasting_blood_sugar_high", "resting_ecg", "max_heart_rate", "exercise_angina", "st_depression", "st_slope", "major_vessels", "thalassemia"],
            "properties": {
                "age": {"type": "integer", "minimum": 1, "maximum": 120},
                "sex": {"type": "string", "enum": ["female", "male"]},
                "chest_pain_type": {"type": "string", "enum": ["typical", "atypical", "non_anginal", "asymptomatic"]},
                "resting_bp": {"type": "integer", "minimum": 50, "maximum": 300},
                "cholesterol": {"type": "integer", "minimum": 80, "maximum": 600},
                "fasting_blood_sugar_high": {"type": "boolean"},
                "resting_ecg": {"type": "string", "enum": ["normal", "st_abnormality", "left_ventricular_hypertrophy"]},
                "max_heart_rate": {"type": "integer", "minimum": 30, "maximum": 250},
                "exercise_angina": {"type": "boolean"},
                "st_depression": {"type": "number", "minimum": 0, "maximum": 10},
                "st_slope": {"type": "string", "enum": ["upsloping", "flat", "downsloping"]},
                "major_vessels": {"type": "integer", "minimum": 0, "maximum": 3},
                "thalassemia": {"type": "string", "enum": ["unknown", "normal", "fixed_defect", "reversible_defect"]}
            }
        },
        "advisory.Message": {
            "type": "object",
            "properties": {
                "rule": {"type": "string"},
                "severity": {"type": "string", "enum": ["warning", "info"]},
                "text": {"type": "string"}
            }
        },
        "scoring.Assessment": {
            "type": "object",
            "properties": {
                "label": {"type": "string", "enum": ["healthy", "diseased"]},
                "probability": {"type": "number"},
                "percentage": {"type": "number"}
            }
        },
        "httpapi.FeaturesResponse": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "values": {"type": "array", "items": {"type": "number"}}
            }
        },
        "httpapi.AssessmentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "advisories": {"type": "array", "items": {"$ref": "#/definitions/advisory.Message"}},
                "assessment": {"$ref": "#/definitions/scoring.Assessment"},
                "features": {"$ref": "#/definitions/httpapi.FeaturesResponse"},
                "created_at": {"type": "string"}
            }
        },
        "httpapi.AdvisoriesResponse": {
            "type": "object",
            "properties": {
                "advisories": {"type": "array", "items": {"$ref": "#/definitions/advisory.Message"}}
            }
        },
        "httpapi.LayoutResponse": {
            "type": "object",
            "properties": {
                "width": {"type": "integer"},
                "columns": {"type": "array", "items": {"type": "string"}},
                "groups": {"type": "array", "items": {"type": "object"}}
            }
        },
        "httpapi.ReferenceResponse": {
            "type": "object",
            "properties": {
                "source": {"type": "string"},
                "entries": {"type": "array", "items": {"type": "object"}},
                "options": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "httpapi.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "model_available": {"type": "boolean"},
                "canary": {"type": "object"}
            }
        },
        "httpapi.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "field": {"type": "string"},
                "hint": {"type": "string"},
                "advisories": {"type": "array", "items": {"$ref": "#/definitions/advisory.Message"}}
            }
        }
    }
}`

// SwaggerInfo метаданные API, подставляются в docTemplate.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Heart Risk API",
	Description:      "Учебный сервис оценки риска сердечно-сосудистого заболевания по клиническим показателям.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
