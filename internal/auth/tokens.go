package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JoinTokens issues and verifies HS256 tokens that bind a student id to one room.
type JoinTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type joinClaims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

func NewJoinTokens(secret string, ttl time.Duration) *JoinTokens {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &JoinTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a token for studentID in roomID.
func (j *JoinTokens) Issue(roomID, studentID string) (string, error) {
	if roomID == "" || studentID == "" {
		return "", errors.New("empty room or student id")
	}
	now := j.now()
	claims := joinClaims{
		Room: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Verify checks the signature, expiry and that the token was issued for roomID/studentID.
func (j *JoinTokens) Verify(token, roomID, studentID string) error {
	if token == "" {
		return errors.New("missing token")
	}
	claims := &joinClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(j.now))
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	if claims.Room != roomID || claims.Subject != studentID {
		return errors.New("token issued for another participant")
	}
	return nil
}
