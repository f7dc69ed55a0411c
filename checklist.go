// Package migrationbot tracks a per-client migration checklist as an
// interactive Slack message. The checklist lives in a persisted record;
// button clicks toggle task state and re-render the message in place.
package migrationbot

// TaskDefinition is one checklist item. IDs are stable across deploys
// because they double as Slack action IDs on the posted message.
type TaskDefinition struct {
	ID   string
	Text string
}

// Checklist is the deploy-time task list, rendered in this order.
var Checklist = []TaskDefinition{
	{
		ID:   "provide_realistico_email",
		Text: "1. Proveer el email de realisti.co",
	},
	{
		ID:   "create_floorfy_account",
		Text: "2. Crear cuenta de Floorfy con un método de pago asignado",
	},
	{
		ID:   "migrate_tours",
		Text: "3. Migrar los tours que están archivados",
	},
	{
		ID:   "prepare_subscription",
		Text: "4. Dejar la suscripción preparada",
	},
	{
		ID:   "cancel_subscriptions",
		Text: "5. Cancelar la suscripción en Realistico BD y Stripe",
	},
}
