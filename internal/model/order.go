package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusPrepared  OrderStatus = "PREPARED"
	StatusPickedUp  OrderStatus = "PICKED_UP"
)

// TimestampField names the per-status timestamp recorded on a transition.
func (s OrderStatus) TimestampField() string {
	switch s {
	case StatusAccepted:
		return "acceptedAt"
	case StatusRejected:
		return "rejectedAt"
	case StatusCancelled:
		return "cancelledAt"
	case StatusPrepared:
		return "preparedAt"
	case StatusPickedUp:
		return "pickedUpAt"
	default:
		return "updatedAt"
	}
}

type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "DELIVERY"
	DeliveryTypePickup   DeliveryType = "PICKUP"
)

// CanonicalOrder is the platform-agnostic order shape every inbound payload
// is transformed into. Field names on the wire are fixed: the POS consumes
// them as-is from the polling API.
type CanonicalOrder struct {
	OrderID               string            `json:"OrderId"`
	RemoteOrderID         string            `json:"RemoteOrderId"`
	Remote                RemoteOrderRef    `json:"-"`
	OrderToken            string            `json:"OrderToken"`
	VendorID              string            `json:"VendorId"`
	ChainCode             string            `json:"ChainCode"`
	OrderDate             string            `json:"OrderDate"`
	CreatedAt             time.Time         `json:"CreatedAt"`
	ScheduledDeliveryTime *string           `json:"ScheduledDeliveryTime"`
	IsScheduled           bool              `json:"IsScheduled"`
	Customer              *Customer         `json:"Customer"`
	Items                 []LineItem        `json:"Items"`
	TotalAmount           decimal.Decimal   `json:"TotalAmount"`
	DeliveryFee           decimal.Decimal   `json:"DeliveryFee"`
	DiscountAmount        decimal.Decimal   `json:"DiscountAmount"`
	PaymentMethod         string            `json:"PaymentMethod"`
	DeliveryType          DeliveryType      `json:"DeliveryType"`
	CourierType           string            `json:"CourierType"`
	Note                  string            `json:"Note"`
	PlatformOrderID       *string           `json:"PlatformOrderId"`
	CallbackUrls          map[string]string `json:"CallbackUrls,omitempty"`
}

type Customer struct {
	FirstName string   `json:"FirstName"`
	LastName  string   `json:"LastName"`
	Phone     string   `json:"Phone"`
	Email     string   `json:"Email"`
	Address   *Address `json:"Address"`
}

type Address struct {
	FullAddress string  `json:"FullAddress"`
	City        string  `json:"City"`
	District    string  `json:"District"`
	Street      string  `json:"Street"`
	BuildingNo  string  `json:"BuildingNo"`
	ApartmentNo string  `json:"ApartmentNo"`
	Floor       string  `json:"Floor"`
	DoorNo      string  `json:"DoorNo"`
	Latitude    float64 `json:"Latitude"`
	Longitude   float64 `json:"Longitude"`
}

type LineItem struct {
	Name       string          `json:"Name"`
	Quantity   int             `json:"Quantity"`
	UnitPrice  decimal.Decimal `json:"UnitPrice"`
	TotalPrice decimal.Decimal `json:"TotalPrice"`
	Note       string          `json:"Note"`
	Options    []Option        `json:"Options"`
}

type Option struct {
	Name  string          `json:"Name"`
	Value string          `json:"Value"`
	Price decimal.Decimal `json:"Price"`
}

// TrackedOrder is an order held for the POS to poll, keyed in the store by
// its order token.
type TrackedOrder struct {
	Order            CanonicalOrder       `json:"order"`
	Status           OrderStatus          `json:"status"`
	CreatedAt        time.Time            `json:"createdAt"`
	StatusTimestamps map[string]time.Time `json:"statusTimestamps,omitempty"`
	CancelReason     string               `json:"cancelReason,omitempty"`
}
