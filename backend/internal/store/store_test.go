package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kerrors "kindred/backend/pkg/errors"
)

func openTestDB(t *testing.T) (*UserRepository, *MessageRepository) {
	t.Helper()
	db, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	return NewUserRepository(db), NewMessageRepository(db)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	created, err := users.Create(ctx, "alice", "alice@example.com", "hashed")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	byID, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byName, err := users.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	byGraphID, err := users.FindByGraphID(ctx, created.GraphID())
	require.NoError(t, err)
	assert.Equal(t, created.ID, byGraphID.ID)
}

func TestUserRepository_DuplicateUsername(t *testing.T) {
	users, _ := openTestDB(t)
	ctx := context.Background()

	_, err := users.Create(ctx, "bob", "bob@example.com", "hashed")
	require.NoError(t, err)

	_, err = users.Create(ctx, "bob", "other@example.com", "hashed")
	require.Error(t, err)
	var dup *kerrors.ErrDuplicateUser
	assert.ErrorAs(t, err, &dup)
}

func TestUserRepository_NotFound(t *testing.T) {
	users, _ := openTestDB(t)

	_, err := users.FindByID(context.Background(), 9999)
	require.Error(t, err)
	var notFound *kerrors.ErrUserNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMessageRepository_ConversationFlow(t *testing.T) {
	users, messages := openTestDB(t)
	ctx := context.Background()

	alice, err := users.Create(ctx, "alice", "alice@example.com", "hashed")
	require.NoError(t, err)
	bob, err := users.Create(ctx, "bob", "bob@example.com", "hashed")
	require.NoError(t, err)

	_, err = messages.Create(ctx, alice.ID, bob.ID, "hi bob")
	require.NoError(t, err)
	_, err = messages.Create(ctx, bob.ID, alice.ID, "hi alice")
	require.NoError(t, err)

	// Both directions belong to the same conversation
	conv, err := messages.Conversation(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	assert.Len(t, conv, 2)

	// Unread until the recipient fetches them
	assert.False(t, conv[0].Read)

	require.NoError(t, messages.MarkRead(ctx, alice.ID, bob.ID))
	conv, err = messages.Conversation(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	for _, m := range conv {
		if m.RecipientID == alice.ID {
			assert.True(t, m.Read)
		}
	}
}

func TestMessageRepository_DeleteRequiresParticipant(t *testing.T) {
	users, messages := openTestDB(t)
	ctx := context.Background()

	alice, err := users.Create(ctx, "alice", "alice@example.com", "hashed")
	require.NoError(t, err)
	bob, err := users.Create(ctx, "bob", "bob@example.com", "hashed")
	require.NoError(t, err)
	eve, err := users.Create(ctx, "eve", "eve@example.com", "hashed")
	require.NoError(t, err)

	msg, err := messages.Create(ctx, alice.ID, bob.ID, "secret")
	require.NoError(t, err)

	deleted, err := messages.Delete(ctx, msg.ID, eve.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "non-participant must not delete the message")

	deleted, err = messages.Delete(ctx, msg.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
}
