package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prudhvinik1/deviceregistry/internal/apperror"
	"github.com/prudhvinik1/deviceregistry/internal/models"
)

var ErrMissingSubject = errors.New("token has no valid subject")

// tokenPrecision is the resolution of iat and exp. Revocation cutoffs are
// compared against iat, so it has to be finer than a second.
const tokenPrecision = time.Millisecond

func init() {
	jwt.TimePrecision = tokenPrecision
}

// TokenService issues and verifies HMAC-signed bearer tokens.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	expiry time.Duration
	now    func() time.Time
}

func NewTokenService(secret, algorithm string, expiry time.Duration) (*TokenService, error) {
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	return &TokenService{
		secret: []byte(secret),
		method: method,
		expiry: expiry,
		now:    time.Now,
	}, nil
}

func (s *TokenService) Expiry() time.Duration { return s.expiry }

// Issue signs a token for userID. The returned claims carry the same
// millisecond-precision times that were encoded.
func (s *TokenService) Issue(userID uuid.UUID) (string, models.TokenClaims, error) {
	issuedAt := s.now().UTC().Truncate(tokenPrecision)
	expiresAt := issuedAt.Add(s.expiry)

	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", models.TokenClaims{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, models.TokenClaims{
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature, algorithm and expiry and extracts the subject.
// Every failure is reported as an invalid token.
func (s *TokenService) Verify(tokenString string) (models.TokenClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return models.TokenClaims{}, apperror.InvalidToken(err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.TokenClaims{}, apperror.InvalidToken(ErrMissingSubject)
	}

	// Fractional NumericDates decode through float64 and can land just
	// under the encoded millisecond.
	out := models.TokenClaims{
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Round(tokenPrecision).UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Round(tokenPrecision).UTC()
	}
	return out, nil
}
