// file: internals/features/payments/model/payment_gateway_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

/*
  payment_gateway_events = audit log of every provider interaction outcome.
  Many rows per payment are expected (create-session, execute, sweep lookups).
  Raw payloads are kept for debugging and replay.
*/

const (
	GatewayEventStatusReceived  = "received"
	GatewayEventStatusProcessed = "processed"
	GatewayEventStatusFailed    = "failed"
)

type PaymentGatewayEvent struct {
	GatewayEventID uuid.UUID `gorm:"column:gateway_event_id;type:uuid;default:gen_random_uuid();primaryKey" json:"gateway_event_id"`

	GatewayEventPaymentID *string `gorm:"column:gateway_event_payment_id;type:varchar(40);index" json:"gateway_event_payment_id"`

	GatewayEventProvider    string  `gorm:"column:gateway_event_provider;type:varchar(20);not null" json:"gateway_event_provider"`
	GatewayEventType        string  `gorm:"column:gateway_event_type;type:varchar(40);not null" json:"gateway_event_type"`
	GatewayEventExternalID  *string `gorm:"column:gateway_event_external_id" json:"gateway_event_external_id"`
	GatewayEventExternalRef *string `gorm:"column:gateway_event_external_ref" json:"gateway_event_external_ref"`

	GatewayEventPayload datatypes.JSON `gorm:"column:gateway_event_payload;type:jsonb" json:"gateway_event_payload"`

	GatewayEventStatus string  `gorm:"column:gateway_event_status;type:varchar(20);not null;default:'received'" json:"gateway_event_status"`
	GatewayEventError  *string `gorm:"column:gateway_event_error" json:"gateway_event_error"`

	GatewayEventCreatedAt time.Time `gorm:"column:gateway_event_created_at;autoCreateTime" json:"gateway_event_created_at"`
}

func (PaymentGatewayEvent) TableName() string {
	return "payment_gateway_events"
}
