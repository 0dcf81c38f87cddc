package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kmutombo/veridoc/core"
)

var (
	salt = []byte("veridoc.core.user.token_gen")

	// mockable
	nowFunc                   = time.Now
	secretKey                 = []byte(core.Conf.SecretKey)
	passwordResetTimeoutDelta = core.Conf.Server.PasswordResetTimeoutDelta

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID base64 encodes given User ID
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

// decodeUID base64 decodes given UID
func decodeUID(uid string) (string, error) {
	idBytes, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(idBytes), nil
}

// makeToken generates a password reset token for a given User.
// The token is invalidated by a password change or a new login.
func makeToken(usr User) string {
	return makeTokenWithTimestamp(usr, numDaysSince2001(nowFunc()))
}

func makeTokenWithTimestamp(usr User, ts int) string {
	tsB32 := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString([]byte(strconv.Itoa(ts)))

	mac := hmac.New(sha256.New, append(salt, secretKey...))
	mac.Write(tokenHashValue(usr, ts))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return tsB32 + "-" + sig
}

// tokenHashValue produces the user state to be hashed into the token so that
// the token self-invalidates when that state changes.
func tokenHashValue(usr User, ts int) []byte {
	var buff bytes.Buffer
	buff.WriteString(usr.ID)
	buff.Write(usr.PasswordHash)
	buff.WriteString(usr.Email)
	if !usr.LastLogin.IsZero() {
		buff.WriteString(usr.LastLogin.UTC().Format(time.RFC3339))
	}
	buff.WriteString(strconv.Itoa(ts))
	return buff.Bytes()
}

// verifyToken checks that a password reset token for a given User is valid.
func verifyToken(usr User, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.SplitN(token, "-", 2)
	if len(parts) < 2 {
		return errInvalidToken
	}
	tsB32 := parts[0]

	data, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(tsB32)
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken := makeTokenWithTimestamp(usr, ts)
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check expiry
	if (numDaysSince2001(nowFunc()) - ts) > int(passwordResetTimeoutDelta.Hours()/24) {
		return errTokenExpired
	}
	return nil
}

func numDaysSince2001(t time.Time) int {
	base := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Floor(t.Sub(base).Hours() / 24))
}
