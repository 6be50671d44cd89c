// Package normalize turns platform-specific order payloads into the
// canonical representation. Every transformation here is total: malformed or
// partial input degrades to zero values, it never fails.
package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"posbridge/internal/model"
)

// Order converts a raw YemekSepeti order-dispatch payload into a canonical
// order. origin is the base URL used when the payload carries no callback
// URLs of its own.
func Order(vendorID string, raw []byte, origin string) model.CanonicalOrder {
	var payload map[string]any
	_ = json.Unmarshal(raw, &payload)

	now := time.Now()
	token := str(payload, "token")
	ref := model.RemoteOrderRef{VendorID: vendorID, OrderToken: token, IssuedAt: now}

	order := model.CanonicalOrder{
		OrderID:       firstNonEmpty(str(payload, "code"), token),
		RemoteOrderID: ref.String(),
		Remote:        ref,
		OrderToken:    token,
		VendorID:      vendorID,
		OrderDate:     firstNonEmpty(str(payload, "createdAt"), now.Format(time.RFC3339)),
		CreatedAt:     now,
		IsScheduled:   boolVal(payload, "isScheduled"),
		Items:         items(payload),
		PaymentMethod: firstNonEmpty(str(obj(payload, "payment"), "type"), "ONLINE"),
		DeliveryType:  deliveryType(str(payload, "expeditionType")),
		CourierType:   "VENDOR",
		Note:          str(obj(payload, "comments"), "customerComment"),
		CallbackUrls:  callbackURLs(payload, origin, token),
	}

	if s := str(payload, "scheduledDeliveryTime"); s != "" {
		order.ScheduledDeliveryTime = &s
	}
	if c := obj(payload, "customer"); c != nil {
		order.Customer = customer(c)
	}

	price := obj(payload, "price")
	order.TotalAmount = dec(price, "grandTotal")
	order.DeliveryFee = dec(price, "deliveryFee")
	order.DiscountAmount = dec(price, "discount")

	if id := str(payload, "id"); id != "" {
		order.PlatformOrderID = &id
	}

	return order
}

func customer(c map[string]any) *model.Customer {
	cust := &model.Customer{
		FirstName: str(c, "firstName"),
		LastName:  str(c, "lastName"),
		// platforms fill mobilePhone more reliably than the generic field
		Phone: firstNonEmpty(str(c, "mobilePhone"), str(c, "phone")),
		Email: str(c, "email"),
	}

	if a := obj(c, "address"); a != nil {
		cust.Address = &model.Address{
			FullAddress: str(a, "fullAddress"),
			City:        str(a, "city"),
			District:    str(a, "district"),
			Street:      str(a, "street"),
			BuildingNo:  str(a, "buildingNo"),
			ApartmentNo: str(a, "apartmentNo"),
			Floor:       str(a, "floor"),
			DoorNo:      str(a, "doorNo"),
			Latitude:    num(a, "latitude"),
			Longitude:   num(a, "longitude"),
		}
	}
	return cust
}

func items(payload map[string]any) []model.LineItem {
	products := arr(payload, "products")
	result := make([]model.LineItem, 0, len(products))
	for _, p := range products {
		prod, ok := p.(map[string]any)
		if !ok {
			continue
		}
		item := model.LineItem{
			Name:      str(prod, "name"),
			Quantity:  intVal(prod, "quantity"),
			UnitPrice: dec(prod, "unitPrice"),
			// the paid price is authoritative for the line total; it already
			// reflects discounts, so unitPrice*quantity must not be recomputed
			TotalPrice: dec(prod, "paidPrice"),
			Note:       str(prod, "description"),
			Options:    options(prod),
		}
		result = append(result, item)
	}
	return result
}

func options(prod map[string]any) []model.Option {
	toppings := arr(prod, "selectedToppings")
	result := make([]model.Option, 0, len(toppings))
	for _, t := range toppings {
		top, ok := t.(map[string]any)
		if !ok {
			continue
		}
		result = append(result, model.Option{
			Name:  str(top, "name"),
			Value: str(top, "value"),
			Price: dec(top, "price"),
		})
	}
	return result
}

func deliveryType(expeditionType string) model.DeliveryType {
	// only the literal "pickup" maps to PICKUP; every other value,
	// including unknown ones, means delivery
	if expeditionType == "pickup" {
		return model.DeliveryTypePickup
	}
	return model.DeliveryTypeDelivery
}

func callbackURLs(payload map[string]any, origin, token string) map[string]string {
	if raw, ok := payload["callbackUrls"].(map[string]any); ok {
		// use the platform's URLs verbatim, even if partially populated
		urls := make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				urls[k] = s
			}
		}
		return urls
	}

	return map[string]string{
		"orderAcceptedUrl": fmt.Sprintf("%s/test-callbacks/order-accepted/%s", origin, token),
		"orderRejectedUrl": fmt.Sprintf("%s/test-callbacks/order-rejected/%s", origin, token),
		"orderPreparedUrl": fmt.Sprintf("%s/test-callbacks/order-prepared/%s", origin, token),
		"orderPickedUpUrl": fmt.Sprintf("%s/test-callbacks/order-pickedup/%s", origin, token),
	}
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func obj(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	if o, ok := m[key].(map[string]any); ok {
		return o
	}
	return nil
}

func arr(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	if a, ok := m[key].([]any); ok {
		return a
	}
	return nil
}

func boolVal(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}

func num(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func intVal(m map[string]any, key string) int {
	return int(num(m, key))
}

func dec(m map[string]any, key string) decimal.Decimal {
	if m == nil {
		return decimal.Zero
	}
	switch v := m[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
