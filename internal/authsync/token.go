package authsync

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryMargin is subtracted from a token's exp claim so that a token about to
// lapse is never sent to the server.
const ExpiryMargin = 60 * time.Second

var segmentParser = jwt.NewParser()

// IsTokenCurrentlyValid reports whether token has three dot-separated
// segments and a payload whose exp claim lies more than ExpiryMargin after
// now. Only the payload is read: the header and signature are not checked,
// the client holds no key.
func IsTokenCurrentlyValid(token string, now time.Time) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return false
	}

	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Before(exp.Add(-ExpiryMargin))
}
