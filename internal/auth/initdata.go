// Package auth verifies Telegram WebApp init data. The scheme is fixed
// by Telegram: HMAC-SHA256 over a sorted key=value check string, keyed
// by HMAC-SHA256(bot_token, "WebAppData").
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Verification errors.
var (
	ErrInvalidInitData = errors.New("invalid init data")
	ErrBadSignature    = errors.New("init data signature mismatch")
	ErrExpired         = errors.New("init data expired")
)

// User is the authenticated WebApp user.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// InitData is parsed, verified WebApp launch data.
type InitData struct {
	User       User
	AuthDate   time.Time
	QueryID    string
	StartParam string
}

// Verifier checks init data signatures for one bot token.
type Verifier struct {
	secret []byte
	maxAge time.Duration
}

// NewVerifier derives the verification secret from the bot token.
// maxAge bounds how old accepted init data may be; 0 disables the check.
func NewVerifier(botToken string, maxAge time.Duration) *Verifier {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(botToken))
	return &Verifier{secret: mac.Sum(nil), maxAge: maxAge}
}

// Verify checks the signature and freshness of raw init data and
// returns the parsed payload.
func (v *Verifier) Verify(raw string, now time.Time) (*InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(checkString))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, ErrBadSignature
	}

	data := &InitData{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
	}

	var authUnix int64
	if _, err := fmt.Sscanf(values.Get("auth_date"), "%d", &authUnix); err != nil {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInvalidInitData)
	}
	data.AuthDate = time.Unix(authUnix, 0)
	if v.maxAge > 0 && now.Sub(data.AuthDate) > v.maxAge {
		return nil, ErrExpired
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}
	if err := json.Unmarshal([]byte(userJSON), &data.User); err != nil {
		return nil, fmt.Errorf("%w: bad user payload", ErrInvalidInitData)
	}
	if data.User.ID == 0 {
		return nil, fmt.Errorf("%w: missing user id", ErrInvalidInitData)
	}

	return data, nil
}

// Sign produces the hash Telegram would attach to the given values,
// used by tests to fabricate valid init data.
func (v *Verifier) Sign(values url.Values) string {
	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
