package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"
)

// maxSignatureSkew bounds how stale a signed request may be before it
// is treated as a replay.
const maxSignatureSkew = 5 * time.Minute

var (
	ErrSignatureMissing = errors.New("slack: missing signature headers")
	ErrSignatureExpired = errors.New("slack: request timestamp outside tolerance")
	ErrSignatureInvalid = errors.New("slack: signature mismatch")
)

// VerifySignature checks a v0 request signature: the hex HMAC-SHA256 of
// "v0:<timestamp>:<body>" under the app's signing secret.
func VerifySignature(signingSecret, timestamp, signature string, body []byte, now time.Time) error {
	if timestamp == "" || signature == "" {
		return ErrSignatureMissing
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrSignatureMissing
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > maxSignatureSkew || age < -maxSignatureSkew {
		return ErrSignatureExpired
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}
