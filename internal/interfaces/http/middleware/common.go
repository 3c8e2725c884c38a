package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MaxRequestIDLength caps client supplied request ids
const MaxRequestIDLength = 128

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// DefaultCORSConfig allows no origin. The ward terminals and the console
// run on configured origins; everything else is same-origin.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", RequestIDHeader, "Accept", "Origin"},
		ExposeHeaders:    []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// CORSWithConfig answers preflight requests with 204 and adds CORS headers
// for allowed origins. A "*" entry allows any origin but never together with
// credentials.
func CORSWithConfig(cfg CORSConfig) gin.HandlerFunc {
	allowed := make(map[string]bool, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		allowed[o] = true
	}
	wildcard := allowed["*"]

	shared := map[string]string{
		"Access-Control-Allow-Headers": strings.Join(cfg.AllowHeaders, ", "),
		"Access-Control-Allow-Methods": strings.Join(cfg.AllowMethods, ", "),
	}
	if len(cfg.ExposeHeaders) > 0 {
		shared["Access-Control-Expose-Headers"] = strings.Join(cfg.ExposeHeaders, ", ")
	}
	if cfg.MaxAge > 0 {
		shared["Access-Control-Max-Age"] = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowOrigin := ""
		switch {
		case wildcard:
			allowOrigin = "*"
		case origin != "" && allowed[origin]:
			allowOrigin = origin
		}

		if allowOrigin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			if cfg.AllowCredentials && allowOrigin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			for k, v := range shared {
				h.Set(k, v)
			}
		}

		// preflights never reach the routes, allowed or not
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestID propagates the caller's X-Request-ID or issues a new one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > MaxRequestIDLength {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// SecurityConfig selects the optional security headers
type SecurityConfig struct {
	// HSTSMaxAge enables Strict-Transport-Security when positive. Only set
	// it behind TLS.
	HSTSMaxAge time.Duration
	// ContentSecurityPolicy is sent when not empty
	ContentSecurityPolicy string
}

// DefaultSecurityConfig locks down a JSON API: nothing may be framed,
// scripted or embedded
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'",
	}
}

// Secure adds the default security headers
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig adds security headers to every response
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int(cfg.HSTSMaxAge.Seconds()))
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=(), usb=()")
		if cfg.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
		}
		if hsts != "" {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}
