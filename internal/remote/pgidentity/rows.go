package pgidentity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/dosekeeper/internal/common"
	"github.com/dmitrijs2005/dosekeeper/internal/models"
)

const profileColumns = `id, user_id, name, email, avatar_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p      models.Profile
		avatar sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &avatar, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}
	return &p, nil
}

func (p *Provider) GetOrCreateProfileRPC(ctx context.Context, userID string) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM get_or_create_profile($1)`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: rpc error: %w", common.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		prof, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: rpc error: %w", common.ErrUnavailable, err)
		}
		out = append(out, *prof)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rpc error: %w", common.ErrUnavailable, err)
	}
	return out, nil
}

func (p *Provider) ProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`

	prof, err := scanProfile(p.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	return prof, nil
}

func (p *Provider) InsertProfile(ctx context.Context, prof models.Profile) (*models.Profile, error) {
	query :=
		`INSERT INTO profiles (user_id, name, email, avatar_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + profileColumns

	out, err := scanProfile(p.db.QueryRowContext(ctx, query, prof.UserID, prof.Name, prof.Email, prof.AvatarURL))
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	return out, nil
}

// UpdateProfile applies the non-nil fields of upd. updated_at never moves
// backwards even if updatedAt lags the stored value.
func (p *Provider) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate, updatedAt time.Time) error {
	query :=
		`UPDATE profiles
		 SET name = COALESCE($2, name),
		     avatar_url = COALESCE($3, avatar_url),
		     updated_at = GREATEST($4, updated_at + interval '1 millisecond')
		 WHERE user_id = $1
		 `

	res, err := p.db.ExecContext(ctx, query, userID, upd.Name, upd.AvatarURL, updatedAt)
	if err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (p *Provider) InsertDose(ctx context.Context, userID, doseType string, takenAt time.Time) (*models.Dose, error) {
	query :=
		`INSERT INTO doses (user_id, dose_type, taken_at)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	d := &models.Dose{UserID: userID, DoseType: doseType, TakenAt: takenAt}
	if err := p.db.QueryRowContext(ctx, query, userID, doseType, takenAt).Scan(&d.ID, &d.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	return d, nil
}

func (p *Provider) ListDoses(ctx context.Context, userID string, limit int) ([]models.Dose, error) {
	query :=
		`SELECT id, user_id, dose_type, taken_at, created_at FROM doses
		 WHERE user_id = $1
		 ORDER BY taken_at DESC
		 LIMIT $2
		 `

	rows, err := p.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	defer rows.Close()

	var out []models.Dose
	for rows.Next() {
		var d models.Dose
		if err := rows.Scan(&d.ID, &d.UserID, &d.DoseType, &d.TakenAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: db error: %w", common.ErrUnavailable, err)
	}
	return out, nil
}
