package model

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventNewOrder       EventType = "newOrder"
	EventCancelOrder    EventType = "cancelOrder"
	EventCourierArrival EventType = "courierArrival"
)

// InboundEvent is a GetirYemek webhook stored verbatim for the POS to poll.
// The payload is never validated; ingestion is at-most-effort.
type InboundEvent struct {
	ID                  string          `json:"id"`
	Type                EventType       `json:"type"`
	Data                json.RawMessage `json:"data"`
	RestaurantSecretKey string          `json:"restaurantSecretKey"`
	Timestamp           time.Time       `json:"timestamp"`
}
