package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")
var ErrEmailTaken = errors.New("email already in use")

const userColumns = `id, email, password_hash, name, username, bio, phone, city, state, avatar_url, is_online, last_seen, created_at`

// UserRepository abstracts account and profile persistence.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash, name, phone, avatarURL string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) error
	SetAvatarURL(ctx context.Context, id int64, avatarURL string) error
	SetPresence(ctx context.Context, id int64, online bool) error
	Delete(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the sqlx implementation.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, email, passwordHash, name, phone, avatarURL string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO users (email, password_hash, name, phone, avatar_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+userColumns, email, passwordHash, name, phone, avatarURL).StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE users SET
    name = COALESCE($2, name),
    username = COALESCE($3, username),
    bio = COALESCE($4, bio),
    phone = COALESCE($5, phone),
    city = COALESCE($6, city),
    state = COALESCE($7, state)
WHERE id=$1`,
		id, update.Name, update.Username, update.Bio, update.Phone, update.City, update.State)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *userRepository) SetAvatarURL(ctx context.Context, id int64, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_url=$2 WHERE id=$1`, id, avatarURL)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *userRepository) SetPresence(ctx context.Context, id int64, online bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$2, last_seen=$3 WHERE id=$1`,
		id, online, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
