package meta

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// SignatureHeader carries the HMAC-SHA256 of the raw request body.
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="

	subscribeMode = "subscribe"
)

var (
	ErrSignatureMissing   = errors.New("signature header missing")
	ErrSignatureMalformed = errors.New("signature header malformed")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrSecretMissing      = errors.New("app secret not configured")
)

// VerifySignature checks header ("sha256=<hex>") against the HMAC-SHA256 of
// the exact bytes received.
func VerifySignature(rawBody []byte, header, secret string) error {
	if secret == "" {
		return ErrSecretMissing
	}
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrSignatureMissing
	}
	if !strings.HasPrefix(header, signaturePrefix) {
		return ErrSignatureMalformed
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil || len(provided) != sha256.Size {
		return ErrSignatureMalformed
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the header value VerifySignature accepts for body.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifySubscription answers the GET handshake. It returns the challenge to
// echo back when the request is a subscribe with the expected token.
func VerifySubscription(mode, token, challenge, expected string) (string, bool) {
	if mode != subscribeMode || expected == "" || challenge == "" {
		return "", false
	}
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return "", false
	}
	return challenge, true
}
