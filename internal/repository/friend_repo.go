package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/chat-app/backend/internal/model"
)

// FriendRepository provides data access for friendships.
// A friendship is stored once per direction so either side can list it.
type FriendRepository struct {
	db *sql.DB
}

// NewFriendRepository creates a new FriendRepository.
func NewFriendRepository(db *sql.DB) *FriendRepository {
	return &FriendRepository{db: db}
}

// Add records a mutual friendship between userID and friendID.
func (r *FriendRepository) Add(ctx context.Context, userID, friendID string) error {
	if userID == friendID {
		return model.ErrSelfFriendship
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	query := `INSERT INTO friendships (user_id, friend_id, created_at) VALUES (?, ?, ?)`
	for _, pair := range [][2]string{{userID, friendID}, {friendID, userID}} {
		if _, err := tx.ExecContext(ctx, query, pair[0], pair[1], now); err != nil {
			var sqliteErr sqlite3.Error
			if errors.As(err, &sqliteErr) {
				switch sqliteErr.ExtendedCode {
				case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
					return model.ErrAlreadyFriends
				case sqlite3.ErrConstraintForeignKey:
					return model.ErrUserNotFound
				}
			}
			return fmt.Errorf("failed to add friendship: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit friendship: %w", err)
	}
	return nil
}

// AreFriends reports whether a friendship exists between the two users.
func (r *FriendRepository) AreFriends(ctx context.Context, userID, friendID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM friendships WHERE user_id = ? AND friend_id = ?`,
		userID, friendID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return n > 0, nil
}

// List returns the friends of userID ordered by username.
func (r *FriendRepository) List(ctx context.Context, userID string) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.avatar, u.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ?
		ORDER BY u.username
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}
