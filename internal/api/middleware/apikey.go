package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/response"
)

// Header names checked by APIKey.
const (
	APIKeyHeader    = "X-API-Key"
	TimeTokenHeader = "X-Time-Token"
)

// timeTokenWindow is the lifetime of one time token bucket. The previous bucket
// is still accepted so a token minted just before a boundary stays valid.
const timeTokenWindow = 5 * time.Minute

// GenerateTimeToken returns the time token for apiKey valid in the current window.
func GenerateTimeToken(apiKey string) string {
	return timeToken(apiKey, time.Now())
}

func timeToken(apiKey string, at time.Time) string {
	bucket := at.Unix() / int64(timeTokenWindow/time.Second)
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(strconv.FormatInt(bucket, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// APIKey returns a middleware guarding the admin endpoints. Requests must carry
// the key in X-API-Key and a current token from GenerateTimeToken in X-Time-Token.
// An empty apiKey rejects every request with 500.
func APIKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				response.RespondError(w, http.StatusInternalServerError, "authentication failed", "Authentication not loaded")
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
				response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Invalid API key")
				return
			}

			token := r.Header.Get(TimeTokenHeader)
			if token == "" {
				response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Missing Time token")
				return
			}

			now := time.Now()
			valid := hmac.Equal([]byte(token), []byte(timeToken(apiKey, now))) ||
				hmac.Equal([]byte(token), []byte(timeToken(apiKey, now.Add(-timeTokenWindow))))
			if !valid {
				response.RespondError(w, http.StatusUnauthorized, "authentication failed", "Time token is invalid or expired")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
