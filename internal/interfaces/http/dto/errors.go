package dto

import "net/http"

// Wire error codes. Every code has the form ERR_<DESCRIPTION>.
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"

	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
	// ErrCodeUnknownModule rejects a permission naming a module outside the catalog
	ErrCodeUnknownModule = "ERR_UNKNOWN_MODULE"

	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked       = "ERR_TOKEN_REVOKED"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
	// ErrCodeCheckoutTokenInvalid covers unknown, expired and redeemed tokens alike
	ErrCodeCheckoutTokenInvalid = "ERR_CHECKOUT_TOKEN_INVALID"

	// ErrCodeInvalidState is an operation the current status does not allow
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// errorCode ties a domain error code to its wire code and HTTP status
type errorCode struct {
	wire   string
	status int
}

// domainCodes is keyed by the code a shared.DomainError carries
var domainCodes = map[string]errorCode{
	"INTERNAL_ERROR":         {ErrCodeInternal, http.StatusInternalServerError},
	"PASSWORD_HASH_ERROR":    {ErrCodeInternal, http.StatusInternalServerError},
	"BAD_REQUEST":            {ErrCodeBadRequest, http.StatusBadRequest},
	"VALIDATION_ERROR":       {ErrCodeValidation, http.StatusBadRequest},
	"INVALID_INPUT":          {ErrCodeInvalidInput, http.StatusBadRequest},
	"INVALID_QUANTITY":       {ErrCodeInvalidQuantity, http.StatusBadRequest},
	"UNKNOWN_MODULE":         {ErrCodeUnknownModule, http.StatusBadRequest},
	"INVALID_NAME":           {ErrCodeInvalidInput, http.StatusBadRequest},
	"INVALID_USERNAME":       {ErrCodeInvalidInput, http.StatusBadRequest},
	"INVALID_PASSWORD":       {ErrCodeInvalidInput, http.StatusBadRequest},
	"INVALID_ROLE":           {ErrCodeInvalidInput, http.StatusBadRequest},
	"UNAUTHORIZED":           {ErrCodeUnauthorized, http.StatusUnauthorized},
	"FORBIDDEN":              {ErrCodeForbidden, http.StatusForbidden},
	"INVALID_CREDENTIALS":    {ErrCodeInvalidCredentials, http.StatusUnauthorized},
	"NOT_FOUND":              {ErrCodeNotFound, http.StatusNotFound},
	"ALREADY_EXISTS":         {ErrCodeAlreadyExists, http.StatusConflict},
	"CONFLICT":               {ErrCodeConflict, http.StatusConflict},
	"CHECKOUT_TOKEN_INVALID": {ErrCodeCheckoutTokenInvalid, http.StatusConflict},
	"INVALID_STATE":          {ErrCodeInvalidState, http.StatusUnprocessableEntity},
	"IMMUTABLE_TRANSACTION":  {ErrCodeInvalidState, http.StatusUnprocessableEntity},
	"PROVISIONAL_LEDGER":     {ErrCodeInvalidState, http.StatusUnprocessableEntity},
	"INSUFFICIENT_STOCK":     {ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
}

// wireStatus holds the status of codes that never come from the domain
var wireStatus = map[string]int{
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
}

func init() {
	for _, c := range domainCodes {
		wireStatus[c.wire] = c.status
	}
}

// GetHTTPStatus returns the HTTP status of a wire code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := wireStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to its wire code. Wire
// codes and unknown codes are returned unchanged.
func NormalizeErrorCode(code string) string {
	if c, ok := domainCodes[code]; ok {
		return c.wire
	}
	return code
}
