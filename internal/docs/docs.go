// Package docs registra el documento OpenAPI que sirve /swagger.
// Se mantiene a mano: lista rutas y resúmenes sin esquemas. Los resúmenes copian
// los @Summary de cada handler; al cambiar uno hay que cambiar el otro.
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
        "/health": {"get": {"tags": ["system"], "summary": "Health check", "responses": {"200": {"description": "ok"}}}},
        "/pets": {
            "get": {"tags": ["pets"], "summary": "Listar mis mascotas", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["pets"], "summary": "Registrar mascota", "responses": {"201": {"description": "Created"}}}
        },
        "/pets/{petID}": {
            "get": {"tags": ["pets"], "summary": "Perfil de mascota", "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["pets"], "summary": "Actualizar mascota", "responses": {"200": {"description": "OK"}}}
        },
        "/pets/{petID}/vaccines": {
            "get": {"tags": ["care"], "summary": "Listar vacunas o desparasitaciones", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["care"], "summary": "Registrar vacuna o desparasitación", "responses": {"201": {"description": "Created"}}}
        },
        "/pets/{petID}/vaccines/{eventID}/reminders": {
            "get": {"tags": ["care"], "summary": "Recordatorios de un evento", "responses": {"200": {"description": "OK"}}}
        },
        "/pets/{petID}/vaccines/{eventID}": {
            "get": {"tags": ["care"], "summary": "Obtener vacuna o desparasitación", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["care"], "summary": "Editar vacuna o desparasitación", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["care"], "summary": "Borrar vacuna o desparasitación", "responses": {"204": {"description": "No Content"}}}
        },
        "/pets/{petID}/dewormings": {
            "get": {"tags": ["care"], "summary": "Listar vacunas o desparasitaciones", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["care"], "summary": "Registrar vacuna o desparasitación", "responses": {"201": {"description": "Created"}}}
        },
        "/pets/{petID}/dewormings/{eventID}/reminders": {
            "get": {"tags": ["care"], "summary": "Recordatorios de un evento", "responses": {"200": {"description": "OK"}}}
        },
        "/pets/{petID}/dewormings/{eventID}": {
            "get": {"tags": ["care"], "summary": "Obtener vacuna o desparasitación", "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["care"], "summary": "Editar vacuna o desparasitación", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["care"], "summary": "Borrar vacuna o desparasitación", "responses": {"204": {"description": "No Content"}}}
        },
        "/pets/{petID}/reminders": {
            "get": {"tags": ["reminders"], "summary": "Listar recordatorios de una mascota", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["reminders"], "summary": "Crear recordatorio manual", "responses": {"201": {"description": "Created"}}}
        },
        "/pets/{petID}/reminders/{reminderID}": {
            "delete": {"tags": ["reminders"], "summary": "Borrar recordatorio", "responses": {"204": {"description": "No Content"}}}
        },
        "/pets/{petID}/reminders/{reminderID}/complete": {
            "post": {"tags": ["reminders"], "summary": "Completar recordatorio", "responses": {"200": {"description": "OK"}}}
        },
        "/reminders/upcoming": {
            "get": {"tags": ["reminders"], "summary": "Próximos recordatorios", "responses": {"200": {"description": "OK"}}}
        },
        "/pets/{petID}/weights": {
            "get": {"tags": ["weights"], "summary": "Historial de peso", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["weights"], "summary": "Registrar peso", "responses": {"201": {"description": "Created"}}}
        },
        "/pets/{petID}/weights/{recordID}": {
            "delete": {"tags": ["weights"], "summary": "Borrar registro de peso", "responses": {"204": {"description": "No Content"}}}
        },
        "/pets/{petID}/timeline": {
            "get": {"tags": ["timeline"], "summary": "Timeline de la mascota", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo lo ajusta main (Host, Version) antes de servir.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pet-care-reminders API",
	Description:      "Mascotas, vacunas, desparasitaciones, recordatorios, peso y línea de tiempo.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
