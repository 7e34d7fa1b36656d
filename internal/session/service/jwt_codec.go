package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/astroeyes/authcore/internal/errors"
	sessionDomain "github.com/astroeyes/authcore/internal/session/domain"
)

// credentialClaims is the JWT payload of a session credential.
type credentialClaims struct {
	jwt.RegisteredClaims
	DeviceID string `json:"did"`
	ParentID string `json:"pid,omitempty"`
}

// jwtCodec implements CredentialCodec with HS256 compact JWS.
type jwtCodec struct {
	keys   *SigningKeys
	issuer string
}

// NewJWTCodec creates a CredentialCodec signing with keys.Current and
// accepting keys.Previous for verification.
func NewJWTCodec(keys *SigningKeys, issuer string) CredentialCodec {
	return &jwtCodec{keys: keys, issuer: issuer}
}

// Encode builds and signs the credential. Times are truncated to whole
// seconds, the precision of the JWT numeric date.
func (c *jwtCodec) Encode(
	subjectID uuid.UUID,
	deviceID string,
	issuedAt time.Time,
	ttl time.Duration,
	parentID *uuid.UUID,
) (string, error) {
	if subjectID == uuid.Nil || deviceID == "" {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "subject and device are required")
	}
	if ttl < time.Second {
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "ttl must be at least one second")
	}

	issuedAt = issuedAt.UTC().Truncate(time.Second)

	claims := credentialClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.issuer,
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		DeviceID: deviceID,
	}
	if parentID != nil {
		claims.ParentID = parentID.String()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.keys.Current)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to sign credential")
	}
	return token, nil
}

// Decode parses and verifies the credential. The signature is checked before
// any claim, so a forged credential never reports ErrExpired.
func (c *jwtCodec) Decode(token string, now time.Time) (*sessionDomain.Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims credentialClaims
	_, err := parser.ParseWithClaims(token, &claims, c.keyFunc)
	if err != nil {
		return nil, classifyParseError(err)
	}

	return toDomainClaims(&claims)
}

func (c *jwtCodec) keyFunc(*jwt.Token) (any, error) {
	if len(c.keys.Previous) == 0 {
		return c.keys.Current, nil
	}

	set := jwt.VerificationKeySet{Keys: []jwt.VerificationKey{c.keys.Current}}
	for _, key := range c.keys.Previous {
		set.Keys = append(set.Keys, key)
	}
	return set, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.Join(sessionDomain.ErrMalformedCredential, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.Join(sessionDomain.ErrSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Join(sessionDomain.ErrExpired, err)
	default:
		return apperrors.Join(sessionDomain.ErrMalformedCredential, err)
	}
}

func toDomainClaims(c *credentialClaims) (*sessionDomain.Claims, error) {
	if c.IssuedAt == nil || c.ExpiresAt == nil || !c.IssuedAt.Before(c.ExpiresAt.Time) {
		return nil, apperrors.Wrap(sessionDomain.ErrMalformedCredential, "issued at must precede expiry")
	}
	if c.DeviceID == "" {
		return nil, apperrors.Wrap(sessionDomain.ErrMalformedCredential, "missing device")
	}

	subjectID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, apperrors.Join(sessionDomain.ErrMalformedCredential, err)
	}

	out := &sessionDomain.Claims{
		ID:        c.ID,
		SubjectID: subjectID,
		DeviceID:  c.DeviceID,
		IssuedAt:  c.IssuedAt.UTC(),
		ExpiresAt: c.ExpiresAt.UTC(),
	}

	if c.ParentID != "" {
		parentID, err := uuid.Parse(c.ParentID)
		if err != nil {
			return nil, apperrors.Join(sessionDomain.ErrMalformedCredential, err)
		}
		out.ParentID = &parentID
	}

	return out, nil
}
