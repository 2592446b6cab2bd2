package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ResetTTL is how long a password reset link stays usable.
const ResetTTL = time.Hour

const resetAudience = "password-reset"

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

type resetClaims struct {
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

// ResetTokens issues and verifies signed password reset tokens. A token is
// bound to the staff member's current password hash, so it stops working
// once the password changes.
type ResetTokens struct {
	secret []byte
	now    func() time.Time
}

func NewResetTokens(secret string) *ResetTokens {
	return &ResetTokens{secret: []byte(secret), now: time.Now}
}

func (rt *ResetTokens) fingerprint(passwordHash string) string {
	mac := hmac.New(sha256.New, rt.secret)
	mac.Write([]byte(passwordHash))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

func (rt *ResetTokens) Issue(staffID int64, passwordHash string) (string, error) {
	now := rt.now()
	claims := resetClaims{
		Fingerprint: rt.fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(staffID, 10),
			Audience:  jwt.ClaimStrings{resetAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(rt.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return token, nil
}

// StaffID returns the staff id a token was issued for without checking the
// password fingerprint. Signature, audience and expiry are still enforced.
func (rt *ResetTokens) StaffID(token string) (int64, error) {
	claims, err := rt.parse(token)
	if err != nil {
		return 0, err
	}
	return rt.subject(claims)
}

// Verify checks token against the staff member's current password hash.
func (rt *ResetTokens) Verify(token string, passwordHash string) (int64, error) {
	claims, err := rt.parse(token)
	if err != nil {
		return 0, err
	}
	if !hmac.Equal([]byte(claims.Fingerprint), []byte(rt.fingerprint(passwordHash))) {
		return 0, ErrInvalidResetToken
	}
	return rt.subject(claims)
}

func (rt *ResetTokens) parse(token string) (*resetClaims, error) {
	claims := &resetClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return rt.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(rt.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResetToken, err)
	}
	return claims, nil
}

func (rt *ResetTokens) subject(claims *resetClaims) (int64, error) {
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidResetToken
	}
	return id, nil
}
