// Package archive is the optional write-behind postgres mirror. The relay
// never reads archived data back into its volatile state; the tables are an
// audit trail plus the account store for login/register.
package archive

import (
	"context"
	"fmt"

	"chat-relay/internal/models"
	"chat-relay/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to archive database successfully")
	return &Postgres{pool: pool}, nil
}

func (a *Postgres) Close() error {
	a.pool.Close()
	return nil
}

// User Store Implementation
func (a *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`

	user := &models.User{}
	err := a.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (a *Postgres) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = a.pool.QueryRow(ctx, query, req.Username, req.Email, string(hash)).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Relay Mirror Implementation
func (a *Postgres) SaveRoom(ctx context.Context, room models.Room) error {
	query := `
		INSERT INTO rooms (id, name, creator_id, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	_, err := a.pool.Exec(ctx, query, room.ID, room.Name, room.CreatorID, room.CreatedAt)
	return err
}

func (a *Postgres) SaveMessage(ctx context.Context, msg models.Message) error {
	query := `
		INSERT INTO messages (id, room_id, sender_id, sender, body, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := a.pool.Exec(ctx, query, msg.ID, msg.RoomID, msg.SenderID, msg.Sender, msg.Body, msg.Kind, msg.CreatedAt)
	return err
}

func (a *Postgres) MarkDeleted(ctx context.Context, messageID string) error {
	query := `UPDATE messages SET deleted_at = NOW() WHERE id = $1`
	_, err := a.pool.Exec(ctx, query, messageID)
	return err
}
