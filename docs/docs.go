// Package docs 接口文档，内容与控制器中的 swag 注释一致，修改接口后需同步更新
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "termsOfService": "http://swagger.io/terms/",
        "contact": {
            "name": "API支持",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/checkins": {
            "post": {
                "description": "测验分数 > 7 且专注时长 > 60 分钟视为达标, 否则创建待处理干预并通知导师",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["打卡"],
                "summary": "提交每日打卡",
                "parameters": [
                    {
                        "description": "打卡数据",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.CheckinRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.CheckinResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "检查服务状态",
                "produces": ["application/json"],
                "tags": ["系统"],
                "summary": "健康检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/util.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/interventions/assign": {
            "post": {
                "description": "学生进入 Remedial 状态; 对应的干预记录标记为 Assigned",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["干预"],
                "summary": "导师分配补救任务",
                "parameters": [
                    {
                        "description": "任务",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.AssignTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.AssignTaskResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/interventions/complete": {
            "post": {
                "description": "关闭已分配的干预记录, 学生回到 Normal 状态",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["干预"],
                "summary": "学生完成补救任务",
                "parameters": [
                    {
                        "description": "学生",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/service.CompleteTaskRequest"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.CompleteTaskResult"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/students": {
            "get": {
                "description": "按姓名排序返回所有学生及其当前状态",
                "produces": ["application/json"],
                "tags": ["学生"],
                "summary": "学生列表",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/model.StudentSummary"}}}}
                            ]
                        }
                    },
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/students/{id}/interventions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["学生"],
                "summary": "学生干预历史",
                "parameters": [
                    {"type": "string", "description": "学生ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/model.Intervention"}}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/students/{id}/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["学生"],
                "summary": "学生打卡记录",
                "parameters": [
                    {"type": "string", "description": "学生ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "条数, 默认30, 最大200", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/model.DailyLog"}}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/students/{id}/status": {
            "get": {
                "description": "返回学生快照和最近一条待处理的干预记录; 处于 Needs Intervention 时附带轮询间隔",
                "produces": ["application/json"],
                "tags": ["学生"],
                "summary": "获取学生状态",
                "parameters": [
                    {"type": "string", "description": "学生ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.StudentStatusView"}}}
                            ]
                        }
                    },
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        },
        "/students/{id}/status/wait": {
            "get": {
                "description": "状态与 known 不同时立即返回, 否则最多等待 timeout 秒(不超过轮询间隔)",
                "produces": ["application/json"],
                "tags": ["学生"],
                "summary": "等待学生状态变化(长轮询)",
                "parameters": [
                    {"type": "string", "description": "学生ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "调用方已知的状态", "name": "known", "in": "query"},
                    {"type": "integer", "description": "最长等待秒数", "name": "timeout", "in": "query"}
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "allOf": [
                                {"$ref": "#/definitions/util.Response"},
                                {"type": "object", "properties": {"data": {"$ref": "#/definitions/service.StudentStatusView"}}}
                            ]
                        }
                    },
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/util.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/util.Response"}}
                }
            }
        }
    },
    "definitions": {
        "model.DailyLog": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "focus_minutes": {"type": "integer"},
                "id": {"type": "integer"},
                "quiz_score": {"type": "integer"},
                "status": {"type": "string"},
                "student_id": {"type": "string"}
            }
        },
        "model.Intervention": {
            "type": "object",
            "properties": {
                "assigned_at": {"type": "string"},
                "assigned_by": {"type": "string"},
                "assigned_task": {"type": "string"},
                "completed_at": {"type": "string"},
                "created_at": {"type": "string"},
                "id": {"type": "string"},
                "reason": {"type": "string"},
                "status": {"$ref": "#/definitions/model.InterventionStatus"},
                "student_id": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "model.InterventionStatus": {
            "type": "string",
            "enum": ["Pending", "Assigned", "Completed"],
            "x-enum-varnames": ["InterventionPending", "InterventionAssigned", "InterventionCompleted"]
        },
        "model.Student": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "current_intervention_id": {"type": "string"},
                "current_task": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"$ref": "#/definitions/model.StudentStatus"},
                "updated_at": {"type": "string"}
            }
        },
        "model.StudentStatus": {
            "type": "string",
            "enum": ["Normal", "Needs Intervention", "Remedial"],
            "x-enum-varnames": ["StatusNormal", "StatusNeedsIntervention", "StatusRemedial"]
        },
        "model.StudentSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "status": {"$ref": "#/definitions/model.StudentStatus"}
            }
        },
        "service.AssignTaskRequest": {
            "type": "object",
            "properties": {
                "assigned_by": {"type": "string"},
                "intervention_id": {"type": "string"},
                "student_id": {"type": "string"},
                "task": {"type": "string"}
            }
        },
        "service.AssignTaskResult": {
            "type": "object",
            "properties": {
                "intervention_id": {"type": "string"},
                "message": {"type": "string"},
                "task": {"type": "string"}
            }
        },
        "service.CheckinRequest": {
            "type": "object",
            "properties": {
                "focus_minutes": {"type": "integer"},
                "quiz_score": {"type": "integer"},
                "student_id": {"type": "string"}
            }
        },
        "service.CheckinResult": {
            "type": "object",
            "properties": {
                "intervention_id": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "service.CompleteTaskRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"}
            }
        },
        "service.CompleteTaskResult": {
            "type": "object",
            "properties": {
                "intervention_id": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "service.StudentStatusView": {
            "type": "object",
            "properties": {
                "pending_intervention": {"$ref": "#/definitions/model.Intervention"},
                "poll_interval_seconds": {"type": "integer"},
                "student": {"$ref": "#/definitions/model.Student"}
            }
        },
        "util.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Intervention Service API",
	Description:      "学生学习打卡与导师干预状态机服务。",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
