package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/chat-app/backend/internal/model"
)

// ChatRepository provides data access for chats and their participants.
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(db *sql.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreatePrivate inserts a two-party chat. If a chat between the same two
// participants already exists, that chat is returned with false.
func (r *ChatRepository) CreatePrivate(ctx context.Context, chat *model.Chat) (*model.Chat, bool, error) {
	if len(chat.Participants) != 2 {
		return nil, false, fmt.Errorf("private chat needs exactly 2 participants, got %d", len(chat.Participants))
	}
	pairKey := model.PairKey(chat.Participants[0], chat.Participants[1])

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO chats (id, pair_key, created_at) VALUES (?, ?, ?)`,
		chat.ID, pairKey, chat.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			tx.Rollback()
			found, err := r.getByPairKey(ctx, pairKey)
			if err != nil {
				return nil, false, err
			}
			return found, false, nil
		}
		return nil, false, fmt.Errorf("failed to create chat: %w", err)
	}

	for _, userID := range chat.Participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES (?, ?)`,
			chat.ID, userID,
		); err != nil {
			return nil, false, fmt.Errorf("failed to add chat participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit chat: %w", err)
	}
	return chat, true, nil
}

// GetByID retrieves a chat with its participants.
func (r *ChatRepository) GetByID(ctx context.Context, id string) (*model.Chat, error) {
	chat := &model.Chat{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, created_at FROM chats WHERE id = ?`, id,
	).Scan(&chat.ID, &chat.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, model.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	chat.Participants, err = r.Participants(ctx, id)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (r *ChatRepository) getByPairKey(ctx context.Context, pairKey string) (*model.Chat, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM chats WHERE pair_key = ?`, pairKey).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, model.ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Participants returns the user IDs taking part in a chat.
func (r *ChatRepository) Participants(ctx context.Context, chatID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM chat_participants WHERE chat_id = ? ORDER BY user_id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}

// ListByUser returns the chats userID takes part in, newest first.
func (r *ChatRepository) ListByUser(ctx context.Context, userID string) ([]*model.Chat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.created_at, GROUP_CONCAT(all_p.user_id)
		FROM chats c
		JOIN chat_participants me ON me.chat_id = c.id AND me.user_id = ?
		JOIN chat_participants all_p ON all_p.chat_id = c.id
		GROUP BY c.id, c.created_at
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	chats := []*model.Chat{}
	for rows.Next() {
		chat := &model.Chat{}
		var participants string
		if err := rows.Scan(&chat.ID, &chat.CreatedAt, &participants); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chat.Participants = strings.Split(participants, ",")
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}
	return chats, nil
}
