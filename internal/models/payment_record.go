package models

import "time"

// Payment record statuses mirror the verification state machine's
// user-visible states.
const (
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusTimeout    = "timeout"
)

// PaymentRecord maps to the `payment_records` table. One row per initiation
// attempt; the terminal verification outcome is merged into the same row.
type PaymentRecord struct {
	ID               uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID        string    `gorm:"column:session_id;size:64;uniqueIndex" json:"session_id"`
	ClientID         string    `gorm:"column:client_id;size:64;index" json:"client_id"`
	Reference        string    `gorm:"column:reference;size:191;index" json:"reference"`
	GatewayReference string    `gorm:"column:gateway_reference;size:191" json:"gateway_reference"`
	PaymentID        string    `gorm:"column:payment_id;size:191" json:"payment_id"`
	TransactionID    string    `gorm:"column:transaction_id;size:191" json:"transaction_id"`
	Kind             string    `gorm:"column:kind;size:32" json:"kind"`
	ItemID           string    `gorm:"column:item_id;size:191" json:"item_id"`
	ItemName         string    `gorm:"column:item_name;size:400" json:"item_name"`
	Email            string    `gorm:"column:email;size:320" json:"email"`
	MethodID         string    `gorm:"column:method_id;size:191" json:"method_id"`
	Amount           string    `gorm:"column:amount;size:64" json:"amount"`
	Currency         string    `gorm:"column:currency;size:8" json:"currency"`
	Status           string    `gorm:"column:status;size:32;index" json:"status"`
	TimedOut         bool      `gorm:"column:timed_out" json:"timed_out"`
	Attempts         int       `gorm:"column:attempts" json:"attempts"`
	FailureMessage   string    `gorm:"column:failure_message;type:text" json:"failure_message,omitempty"`
	TicketCount      int       `gorm:"column:ticket_count" json:"ticket_count"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}
