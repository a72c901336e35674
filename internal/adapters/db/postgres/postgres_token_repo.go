package postgres

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-auth/internal/domain/auth/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresTokenRepo struct {
	db *gorm.DB
}

func NewPostgresTokenRepo(db *gorm.DB) *PostgresTokenRepo {
	return &PostgresTokenRepo{db: db}
}

func (p *PostgresTokenRepo) CreateRefreshToken(ctx context.Context, owner uuid.UUID, expiresAt time.Time) (model.RefreshToken, error) {
	row := refreshTokenRow{
		Token:        uuid.New(),
		UserPublicID: owner,
		ExpiresAt:    expiresAt.UTC(),
	}
	// A token id collision surfaces as a plain storage error.
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return model.RefreshToken{}, customErrors.WrapInternal(err, "CreateRefreshToken")
	}
	return row.toModel(), nil
}

func (p *PostgresTokenRepo) FindWithOwner(ctx context.Context, token uuid.UUID) (model.RefreshToken, model.User, error) {
	var (
		tokenRow refreshTokenRow
		ownerRow userRow
	)
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ?", token).First(&tokenRow)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return customErrors.ErrNotFound
		}
		if res.Error != nil {
			return res.Error
		}

		res = tx.Where("public_id = ?", tokenRow.UserPublicID).First(&ownerRow)
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return customErrors.ErrOwnerMissing
		}
		return res.Error
	})

	switch {
	case err == nil:
		return tokenRow.toModel(), ownerRow.toModel(), nil
	case customErrors.IsNotFound(err):
		return model.RefreshToken{}, model.User{}, err
	case customErrors.IsOwnerMissing(err):
		return tokenRow.toModel(), model.User{}, err
	default:
		return model.RefreshToken{}, model.User{}, customErrors.WrapInternal(err, "FindWithOwner")
	}
}

func (p *PostgresTokenRepo) DeleteRefreshToken(ctx context.Context, token uuid.UUID) error {
	res := p.db.WithContext(ctx).Where("token = ?", token).Delete(&refreshTokenRow{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteRefreshToken")
	}
	return nil
}

// DeleteExpired removes every token that expired at or before now and
// returns how many were removed.
func (p *PostgresTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := p.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&refreshTokenRow{})
	if err := res.Error; err != nil {
		return 0, customErrors.WrapInternal(err, "DeleteExpired")
	}
	return res.RowsAffected, nil
}
