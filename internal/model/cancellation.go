package model

import (
	"encoding/json"
	"time"
)

// CancellationRecord is written once when a cancellation-style status update
// arrives and removed either by POS acknowledgement or by the sweeper.
type CancellationRecord struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"orderId"`
	RemoteOrderID   string          `json:"remoteOrderId"`
	RemoteID        string          `json:"remoteId"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason"`
	ReasonCode      string          `json:"reasonCode"`
	CancelledBy     string          `json:"cancelledBy"`
	Note            string          `json:"note"`
	OriginalPayload json.RawMessage `json:"originalPayload"`
	CancelledAt     time.Time       `json:"cancelledAt"`
	CreatedAt       time.Time       `json:"createdAt"`
}
