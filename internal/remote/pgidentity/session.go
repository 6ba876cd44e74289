package pgidentity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/remote"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the user id as the JWT subject.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type storedSession struct {
	AccessToken string            `json:"access_token"`
	ExpiresAt   int64             `json:"expires_at"`
	User        storedSessionUser `json:"user"`
}

type storedSessionUser struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"user_metadata"`
}

func (p *Provider) generateToken(id remote.Identity, expires time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(p.now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: id.Email,
	})
	return token.SignedString(p.secret)
}

// parseToken returns the subject of a valid token. Every failure mentions
// JWT so callers classify it as a broken session.
func (p *Provider) parseToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid JWT: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid JWT: missing subject")
	}
	return claims.Subject, nil
}

func (p *Provider) startSession(ctx context.Context, id remote.Identity) (*remote.Session, error) {
	expires := p.now().Add(p.ttl).Truncate(time.Second)
	token, err := p.generateToken(id, expires)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	rec := storedSession{
		AccessToken: token,
		ExpiresAt:   expires.UnixMilli(),
		User:        storedSessionUser{ID: id.ID, Email: id.Email, Metadata: id.Metadata},
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if err := p.kv.Set(ctx, p.sessionKey, raw); err != nil {
		return nil, fmt.Errorf("%w: persist session: %w", common.ErrUnavailable, err)
	}
	return &remote.Session{AccessToken: token, ExpiresAt: expires, User: id}, nil
}

// GetSession returns the persisted session. An expired session is removed
// and reported as absent.
func (p *Provider) GetSession(ctx context.Context) (*remote.Session, error) {
	raw, err := p.kv.Get(ctx, p.sessionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read session: %w", common.ErrUnavailable, err)
	}
	if raw == nil {
		return nil, nil
	}
	var rec storedSession
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt session record: %v", common.ErrSessionIntegrity, err)
	}

	expires := time.UnixMilli(rec.ExpiresAt)
	if !p.now().Before(expires) {
		if err := p.kv.Delete(ctx, p.sessionKey); err != nil {
			p.log.Warn(ctx, "could not drop expired session", "error", err)
		}
		return nil, nil
	}
	return &remote.Session{
		AccessToken: rec.AccessToken,
		ExpiresAt:   expires,
		User:        remote.Identity{ID: rec.User.ID, Email: rec.User.Email, Metadata: rec.User.Metadata},
	}, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.sessionKey); err != nil {
		return fmt.Errorf("%w: drop session: %w", common.ErrUnavailable, err)
	}
	return nil
}
