package request

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hospital-erp/backend/internal/domain/shared"
)

// QRPrefix marks checkout QR payloads
const QRPrefix = "erp-checkout"

// ErrCheckoutTokenInvalid is returned when a token is unknown, expired, or
// was already redeemed. It is terminal and never retried.
var ErrCheckoutTokenInvalid = shared.NewDomainError("CHECKOUT_TOKEN_INVALID", "Checkout token is invalid or already used")

// CheckoutTokenStore keeps the single outstanding checkout token per request
type CheckoutTokenStore interface {
	// Issue stores token for the request, replacing any earlier token
	Issue(ctx context.Context, requestID int64, token string, ttl time.Duration) error

	// Redeem consumes the token atomically. It reports false when the token
	// does not match the outstanding one; a redeemed token never matches again.
	Redeem(ctx context.Context, requestID int64, token string) (bool, error)
}

// EncodeQR builds the QR payload for a checkout token
func EncodeQR(requestID int64, token string) string {
	return fmt.Sprintf("%s:%d:%s", QRPrefix, requestID, token)
}

// DecodeQR splits a QR payload into request id and token
func DecodeQR(payload string) (int64, string, error) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 || parts[0] != QRPrefix || parts[2] == "" {
		return 0, "", ErrCheckoutTokenInvalid
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", ErrCheckoutTokenInvalid
	}
	return id, parts[2], nil
}
