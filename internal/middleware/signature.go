package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
)

// SignatureHeader carries the HMAC of a webhook body.
const SignatureHeader = "X-Hub-Signature-256"

// MaxWebhookBody caps webhook payloads.
const MaxWebhookBody = 1 << 20

// HubSignature verifies X-Hub-Signature-256 on POST requests against
// appSecret. An empty secret disables the check.
func HubSignature(appSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if appSecret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
			if err != nil {
				writeError(w, http.StatusRequestEntityTooLarge, "body too large")
				return
			}
			if !ValidSignature(appSecret, body, r.Header.Get(SignatureHeader)) {
				writeError(w, http.StatusForbidden, "invalid signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// ValidSignature reports whether header is "sha256=<hex hmac of body>".
func ValidSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
