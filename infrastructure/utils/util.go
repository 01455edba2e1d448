package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"pin-scheduler/infrastructure/logger"
)

// Clock returns the current time. Components take one so tests can pin "now".
type Clock func() time.Time

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

const stateTTL = 10 * time.Minute

type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.StandardClaims
}

// GenerateState signs a short-lived OAuth state token.
func GenerateState(secretKey string, now time.Time) (string, error) {
	if secretKey == "" {
		return "", errors.New("secret key not configured")
	}
	claims := stateClaims{
		Nonce: uuid.NewString(),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(stateTTL).Unix(),
			Issuer:    "pin-scheduler",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate state token")
		return "", err
	}
	return tokenString, nil
}

// VerifyState checks signature and expiry of a state token produced by GenerateState.
func VerifyState(state, secretKey string) error {
	var claims stateClaims
	token, err := jwt.ParseWithClaims(state, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return errors.New("state expired")
		}
		return errors.New("invalid state")
	}
	if !token.Valid || claims.Nonce == "" {
		return errors.New("invalid state")
	}
	return nil
}
