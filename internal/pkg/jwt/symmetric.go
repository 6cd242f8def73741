package jwt

import (
	"errors"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// minHS512KeyLen is the HS512 block size; shorter keys weaken the MAC.
const minHS512KeyLen = 64

// defaultTTL applies when the config leaves jwt.ttl_minutes unset.
const defaultTTL = time.Hour

// Symmetric signs and verifies portal tokens with an HS512 shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

// NewHS512 validates cfg and builds the HS512 signer and parser.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	opts := []libJWT.ParserOption{
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, libJWT.WithIssuer(cfg.Issuer))
	}
	if len(cfg.Audiences) > 0 {
		opts = append(opts, libJWT.WithAudience(cfg.Audiences...))
	}
	if cfg.Clock != nil {
		opts = append(opts, libJWT.WithTimeFunc(cfg.Clock.Now))
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       ttl,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		parser:    libJWT.NewParser(opts...),
	}, nil
}

func (s *Symmetric) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

// Generate signs a token for subject that expires after the configured TTL.
func (s *Symmetric) Generate(subject, username string, roles []string) (string, error) {
	now := s.now()

	clm := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		Username: username,
		Roles:    roles,
	}
	if s.uuid != nil {
		clm.ID = s.uuid.Generate()
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, clm).SignedString(s.secret)
}

// Verify checks signature, issuer, audience and lifetime and returns the
// claims with Raw set, so the token can be forwarded to the backend.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var clm Claims

	_, err := s.parser.ParseWithClaims(tokenStr, &clm, func(*libJWT.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case clm.Subject == "":
		return Claims{}, ErrInvalidToken
	}

	clm.Raw = tokenStr
	return clm, nil
}
