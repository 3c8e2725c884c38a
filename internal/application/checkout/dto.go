package checkout

import (
	"time"

	inventoryapp "github.com/hospital-erp/backend/internal/application/inventory"
	requestapp "github.com/hospital-erp/backend/internal/application/request"
)

// TokenResponse carries the QR payload of a freshly issued checkout token
type TokenResponse struct {
	QRCode    string    `json:"qrCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CompleteInput completes a checkout. Exactly one of Token or CheckoutUser
// is set: Token for the QR path, CheckoutUser for the manual path.
type CompleteInput struct {
	Token        string `json:"token" binding:"required_without=CheckoutUser,max=200"`
	CheckoutUser string `json:"checkoutUser" binding:"required_without=Token,max=100"`
}

// CompleteResponse is the outcome of a checkout
type CompleteResponse struct {
	Request     requestapp.RequestResponse       `json:"request"`
	Item        inventoryapp.ItemResponse        `json:"item"`
	Transaction inventoryapp.TransactionResponse `json:"transaction"`
}
