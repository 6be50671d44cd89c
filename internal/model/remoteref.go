package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RemoteOrderRef is the structured form of the composite remote-order-id the
// platform echoes back on status updates (vendorId_orderToken_millis). The
// composite is an opaque tag, not unique across dispatch retries; the order
// token is the real correlation key.
type RemoteOrderRef struct {
	VendorID   string
	OrderToken string
	IssuedAt   time.Time
}

func (r RemoteOrderRef) String() string {
	return fmt.Sprintf("%s_%s_%d", r.VendorID, r.OrderToken, r.IssuedAt.UnixMilli())
}

// ParseRemoteOrderID decodes a composite id received from outside. Ids that
// don't follow the underscore convention are treated as a bare order token.
func ParseRemoteOrderID(id string) RemoteOrderRef {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return RemoteOrderRef{OrderToken: id}
	}

	ref := RemoteOrderRef{VendorID: parts[0], OrderToken: parts[1]}
	if len(parts) >= 3 {
		if ms, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			ref.IssuedAt = time.UnixMilli(ms)
		}
	}
	return ref
}
