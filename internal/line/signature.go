package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// SignatureHeader is the HTTP header carrying the platform signature.
const SignatureHeader = "x-line-signature"

// VerifySignature checks an x-line-signature value against the raw request
// body: base64(HMAC-SHA256(secret, body)), compared in constant time.
//
// The body must be the bytes as received, before any JSON parsing;
// re-serializing parsed JSON breaks the check. A missing header is an
// ordinary mismatch, not a separate error kind.
func VerifySignature(body []byte, secret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// Sign computes the signature value for a body. Used by tests and tooling.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
