// Package pgidentity is a self-hosted identity provider for the remote
// backend: accounts, profiles and doses live in Postgres, access tokens are
// HS256 JWTs and the client session is kept in the local kv store.
package pgidentity

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/cryptox"
	"github.com/dmitrijs2005/dosekeeper/internal/kvstore"
	"github.com/dmitrijs2005/dosekeeper/internal/logging"
	"github.com/dmitrijs2005/dosekeeper/internal/remote"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const uniqueViolation = "23505"

const defaultTokenTTL = time.Hour

type Config struct {
	JWTSecret  []byte
	ProjectRef string
	TokenTTL   time.Duration
}

// SessionKey is the kv key holding the persisted session for a project.
func SessionKey(projectRef string) string {
	return "sb-" + projectRef + "-auth-token"
}

// Provider implements remote.Provider and remote.Rows.
type Provider struct {
	db         *sql.DB
	kv         kvstore.Store
	secret     []byte
	ttl        time.Duration
	sessionKey string
	now        func() time.Time
	log        logging.Logger
}

func New(db *sql.DB, kv kvstore.Store, cfg Config, log logging.Logger) *Provider {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Provider{
		db:         db,
		kv:         kv,
		secret:     cfg.JWTSecret,
		ttl:        ttl,
		sessionKey: SessionKey(cfg.ProjectRef),
		now:        time.Now,
		log:        log.With("module", "pgidentity"),
	}
}

// Open connects to dsn through the pgx driver and applies migrations.
func Open(ctx context.Context, dsn string, kv kvstore.Store, cfg Config, log logging.Logger) (*Provider, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, kv, cfg, log), nil
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrate identity schema: %w", err)
	}
	return nil
}

func (p *Provider) Close() error {
	return p.db.Close()
}

func (p *Provider) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	return nil
}

var _ remote.Provider = (*Provider)(nil)
var _ remote.Rows = (*Provider)(nil)

func decodeMetadata(raw []byte) (map[string]string, error) {
	md := map[string]string{}
	if len(raw) == 0 {
		return md, nil
	}
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("decode user_metadata: %w", err)
	}
	return md, nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*remote.Session, error) {
	query :=
		`SELECT id, email, password_hash, user_metadata FROM auth_users
		 WHERE email = $1
		 `

	var (
		id    remote.Identity
		hash  string
		rawMD []byte
	)
	err := p.db.QueryRowContext(ctx, query, common.NormalizeEmail(email)).Scan(&id.ID, &id.Email, &hash, &rawMD)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invalid login credentials", common.ErrorUnauthorized)
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}

	ok, err := cryptox.VerifyPassword(hash, password)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: invalid login credentials", common.ErrorUnauthorized)
	}
	if id.Metadata, err = decodeMetadata(rawMD); err != nil {
		return nil, err
	}
	return p.startSession(ctx, id)
}

func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*remote.Session, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	rawMD, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encode user_metadata: %w", err)
	}

	query :=
		`INSERT INTO auth_users (email, password_hash, user_metadata)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	id := remote.Identity{Email: common.NormalizeEmail(email), Metadata: metadata}
	err = p.db.QueryRowContext(ctx, query, id.Email, cryptox.HashPassword(password), rawMD).Scan(&id.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	p.log.Info(ctx, "account created", "user_id", id.ID)
	return p.startSession(ctx, id)
}

func (p *Provider) UserExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM auth_users WHERE email = $1)`

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, common.NormalizeEmail(email)).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	return exists, nil
}

// GetUser validates the stored access token and reloads its user.
func (p *Provider) GetUser(ctx context.Context) (*remote.Identity, error) {
	s, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("auth session missing")
	}
	userID, err := p.parseToken(s.AccessToken)
	if err != nil {
		return nil, err
	}

	query :=
		`SELECT id, email, user_metadata FROM auth_users
		 WHERE id = $1
		 `

	var (
		id    remote.Identity
		rawMD []byte
	)
	err = p.db.QueryRowContext(ctx, query, userID).Scan(&id.ID, &id.Email, &rawMD)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("user_not_found")
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	if id.Metadata, err = decodeMetadata(rawMD); err != nil {
		return nil, err
	}
	return &id, nil
}
