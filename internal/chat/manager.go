// Package chat implements accounts, friendships and chats on top of the
// repositories. It also supplies the socket gateway's hooks for creating a
// chat when an invite is accepted and for resolving chat participants.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/model"
	"github.com/chat-app/backend/internal/repository"
)

// Manager manages accounts, friendships and chats.
type Manager struct {
	users   *repository.UserRepository
	friends *repository.FriendRepository
	chats   *repository.ChatRepository
	tokens  *auth.TokenIssuer

	searchLimit int
}

// Config holds configuration for the chat manager.
type Config struct {
	SearchLimit int
}

// NewManager creates a new chat manager.
func NewManager(users *repository.UserRepository, friends *repository.FriendRepository, chats *repository.ChatRepository, tokens *auth.TokenIssuer, config Config) *Manager {
	if config.SearchLimit == 0 {
		config.SearchLimit = 20
	}

	return &Manager{
		users:       users,
		friends:     friends,
		chats:       chats,
		tokens:      tokens,
		searchLimit: config.SearchLimit,
	}
}

// Register creates an account and returns it with an access token.
func (m *Manager) Register(ctx context.Context, req *model.RegisterUserRequest) (*model.User, string, error) {
	req.Normalize()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := m.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := m.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a fresh access token.
func (m *Manager) Login(ctx context.Context, req *model.LoginRequest) (*model.User, string, error) {
	user, err := m.users.GetByEmail(ctx, model.NormalizeEmail(req.Email))
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, "", model.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}

	ok, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, "", model.ErrInvalidCredentials
	}

	token, err := m.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GetUser returns a user by ID.
func (m *Manager) GetUser(ctx context.Context, id string) (*model.User, error) {
	return m.users.GetByID(ctx, id)
}

// SearchUsers finds users by username or email, leaving out excludeID.
func (m *Manager) SearchUsers(ctx context.Context, query, excludeID string) ([]*model.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.User{}, nil
	}

	users, err := m.users.Search(ctx, query, m.searchLimit+1)
	if err != nil {
		return nil, err
	}

	result := make([]*model.User, 0, len(users))
	for _, u := range users {
		if u.ID != excludeID && len(result) < m.searchLimit {
			result = append(result, u)
		}
	}
	return result, nil
}

// ListFriends returns the friends of userID.
func (m *Manager) ListFriends(ctx context.Context, userID string) ([]*model.User, error) {
	return m.friends.List(ctx, userID)
}

// AddFriendByEmail befriends userID with the account registered under email.
func (m *Manager) AddFriendByEmail(ctx context.Context, userID, email string) (*model.User, error) {
	friend, err := m.users.GetByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if friend.ID == userID {
		return nil, model.ErrSelfFriendship
	}
	already, err := m.friends.AreFriends(ctx, userID, friend.ID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, model.ErrAlreadyFriends
	}
	if err := m.friends.Add(ctx, userID, friend.ID); err != nil {
		return nil, err
	}
	return friend, nil
}

// ListChats returns the chats userID takes part in.
func (m *Manager) ListChats(ctx context.Context, userID string) ([]*model.Chat, error) {
	return m.chats.ListByUser(ctx, userID)
}

// CreatePrivateChat returns the chat between a and b, creating it if needed.
func (m *Manager) CreatePrivateChat(ctx context.Context, a, b string) (*model.Chat, bool, error) {
	if a == b {
		return nil, false, fmt.Errorf("%w: a private chat needs two different users", model.ErrForbidden)
	}
	if _, err := m.users.GetByID(ctx, b); err != nil {
		return nil, false, err
	}

	return m.chats.CreatePrivate(ctx, &model.Chat{
		ID:           uuid.New().String(),
		Participants: []string{a, b},
		CreatedAt:    time.Now(),
	})
}

// OnInviteAccepted creates the private chat for an accepted socket invite.
func (m *Manager) OnInviteAccepted(ctx context.Context, inviterID, inviteeID string) error {
	_, _, err := m.CreatePrivateChat(ctx, inviterID, inviteeID)
	return err
}

// Participants returns the user IDs taking part in chatID.
func (m *Manager) Participants(ctx context.Context, chatID string) ([]string, error) {
	participants, err := m.chats.Participants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, model.ErrChatNotFound
	}
	return participants, nil
}
