package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/chat-app/backend/internal/db"
	"github.com/chat-app/backend/internal/model"
)

// Any user that is created can be read back unchanged by id and by email,
// and the stored password hash is preserved.
func TestUserPersistenceProperty(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "user_repo_test_*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	db.ResetDB()
	testDB, err := db.InitDB(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer db.ResetDB()

	repo := NewUserRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MinSize = 1
	parameters.MaxSize = 32

	properties := gopter.NewProperties(parameters)

	nonEmptyString := gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0
	})

	properties.Property("created users are retrievable by id and email", prop.ForAll(
		func(username, hash string) bool {
			id := uuid.New().String()
			user := &model.User{
				ID:           id,
				Username:     username + "-" + id[:8],
				Email:        id + "@example.com",
				PasswordHash: hash,
				CreatedAt:    time.Now(),
			}

			if err := repo.Create(ctx, user); err != nil {
				t.Logf("failed to create user: %v", err)
				return false
			}
			defer deleteUser(ctx, testDB, id)

			byID, err := repo.GetByID(ctx, id)
			if err != nil {
				return false
			}
			byEmail, err := repo.GetByEmail(ctx, user.Email)
			if err != nil {
				return false
			}

			return byID.Username == user.Username &&
				byID.PasswordHash == hash &&
				byEmail.ID == id
		},
		nonEmptyString,
		nonEmptyString,
	))

	properties.Property("private chats are unique per unordered pair", prop.ForAll(
		func(a, b string) bool {
			if a == b {
				return true
			}
			chats := NewChatRepository(testDB)
			first, _, err := chats.CreatePrivate(ctx, &model.Chat{ID: uuid.New().String(), Participants: []string{a, b}, CreatedAt: time.Now()})
			if err != nil {
				return false
			}
			second, created, err := chats.CreatePrivate(ctx, &model.Chat{ID: uuid.New().String(), Participants: []string{b, a}, CreatedAt: time.Now()})
			if err != nil {
				return false
			}
			return !created && first.ID == second.ID
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
