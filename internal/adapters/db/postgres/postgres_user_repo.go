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

type PostgresUserRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db, now: time.Now}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	row := userRowFromModel(user)
	row.ID = 0
	res := p.db.WithContext(ctx).Create(&row)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "CreateUser")
	}
	return row.toModel(), nil
}

func (p *PostgresUserRepo) GetUserByPublicID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var row userRow
	res := p.db.WithContext(ctx).Where("public_id = ?", id).First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByPublicID")
	}
	return row.toModel(), nil
}

func (p *PostgresUserRepo) GetCredentialsByEmail(ctx context.Context, email string) (model.Credentials, error) {
	var row userRow
	res := p.db.WithContext(ctx).
		Select("id", "public_id", "password_hash").
		Where("email = ?", email).
		First(&row)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Credentials{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Credentials{}, customErrors.WrapInternal(err, "GetCredentialsByEmail")
	}
	return model.Credentials{InternalID: row.ID, PublicID: row.PublicID, PasswordHash: row.PasswordHash}, nil
}

func (p *PostgresUserRepo) UpdateUser(ctx context.Context, id uuid.UUID, upd model.UserUpdate) error {
	if upd.IsEmpty() {
		return nil
	}

	fields := map[string]interface{}{"updated_at": p.now().UTC()}
	if upd.DisplayName != nil {
		fields["display_name"] = *upd.DisplayName
	}
	if upd.Email != nil {
		fields["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		fields["password_hash"] = *upd.PasswordHash
	}

	res := p.db.WithContext(ctx).Model(&userRow{}).Where("public_id = ?", id).Updates(fields)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *PostgresUserRepo) TouchLastLogin(ctx context.Context, internalID int64) error {
	res := p.db.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", internalID).
		Update("last_login", p.now().UTC())
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "TouchLastLogin")
	}
	return nil
}
