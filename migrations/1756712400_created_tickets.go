package migrations

import (
	"encoding/json"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		jsonData := `{
			"id": "pbc_tickets_0001",
			"name": "tickets",
			"type": "base",
			"system": false,
			"fields": [
				{
					"autogeneratePattern": "",
					"hidden": false,
					"id": "text_id",
					"max": 64,
					"min": 10,
					"name": "id",
					"pattern": "^[A-Za-z0-9_-]+$",
					"presentable": true,
					"primaryKey": true,
					"required": true,
					"system": true,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "text_holder_name",
					"max": 120,
					"min": 3,
					"name": "holder_name",
					"presentable": true,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "text_holder_phone",
					"max": 16,
					"min": 0,
					"name": "holder_phone",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "select_pass_class",
					"maxSelect": 1,
					"name": "pass_class",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "select",
					"values": ["ONE MAN", "ONE LADY", "FIVE QUEENS"]
				},
				{
					"hidden": false,
					"id": "text_price",
					"max": 0,
					"min": 0,
					"name": "price",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "select_operator",
					"maxSelect": 1,
					"name": "operator",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "select",
					"values": ["orange", "mtn"]
				},
				{
					"hidden": false,
					"id": "select_state",
					"maxSelect": 1,
					"name": "state",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "select",
					"values": ["issued", "checked_in", "revoked"]
				},
				{
					"hidden": false,
					"id": "text_issued_at",
					"max": 0,
					"min": 0,
					"name": "issued_at",
					"presentable": false,
					"required": true,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "text_checked_in_at",
					"max": 0,
					"min": 0,
					"name": "checked_in_at",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "text"
				},
				{
					"hidden": false,
					"id": "text_checked_in_by",
					"max": 0,
					"min": 0,
					"name": "checked_in_by",
					"presentable": false,
					"required": false,
					"system": false,
					"type": "text"
				}
			],
			"indexes": [
				"CREATE INDEX idx_tickets_state ON tickets (state)"
			],
			"listRule": null,
			"viewRule": null,
			"createRule": null,
			"updateRule": null,
			"deleteRule": null
		}`

		collection := &core.Collection{}
		if err := json.Unmarshal([]byte(jsonData), &collection); err != nil {
			return err
		}

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("pbc_tickets_0001")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
