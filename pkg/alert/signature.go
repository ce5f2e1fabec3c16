package alert

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SignatureHeaders carries the HMAC signature of an alert payload.
// The signature binds the payload to a timestamp so receivers can reject
// replays.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
	ID        string
}

// Headers returns the signature headers as a map for HTTP header setting.
func (s SignatureHeaders) Headers() map[string]string {
	return map[string]string{
		"X-Alert-Signature": s.Signature,
		"X-Alert-Timestamp": strconv.FormatInt(s.Timestamp, 10),
		"X-Alert-ID":        s.ID,
	}
}

// SignPayload signs an alert payload with HMAC-SHA256.
// Signature format: HMAC-SHA256(secret, timestamp + "." + payload).
func SignPayload(secret string, payload []byte) SignatureHeaders {
	timestamp := time.Now().Unix()

	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", timestamp, payload)

	return SignatureHeaders{
		Signature: hex.EncodeToString(h.Sum(nil)),
		Timestamp: timestamp,
		ID:        uuid.New().String(),
	}
}

// VerifySignature validates an alert payload against its signature headers
// with constant-time comparison. maxAge of zero disables the timestamp check.
func VerifySignature(secret string, payload []byte, headers SignatureHeaders, maxAge time.Duration) error {
	if maxAge > 0 {
		age := time.Since(time.Unix(headers.Timestamp, 0))
		if age > maxAge {
			return fmt.Errorf("signature timestamp too old: %v", age)
		}
		if age < -time.Minute {
			return fmt.Errorf("signature timestamp is in the future")
		}
	}

	h := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(h, "%d.%s", headers.Timestamp, payload)
	expected := hex.EncodeToString(h.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
