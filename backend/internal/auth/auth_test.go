package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kindred/backend/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.User) {
	t.Helper()
	db, err := store.Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	users := store.NewUserRepository(db)

	hashed, err := HashPassword("s3cret")
	require.NoError(t, err)
	user, err := users.Create(context.Background(), "alice", "alice@example.com", hashed)
	require.NoError(t, err)

	return NewService(users, "test-signing-key", 30*time.Minute), user
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.Error(t, err)

	_, err = svc.Authenticate(ctx, "nobody", "s3cret")
	assert.Error(t, err)
}

func TestService_TokenRoundTrip(t *testing.T) {
	svc, user := newTestService(t)

	token, err := svc.CreateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestService_ResolveToken_Invalid(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ResolveToken(context.Background(), "not-a-token")
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, user := newTestService(t)

	router := gin.New()
	router.GET("/me", svc.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": CurrentUser(c).Username})
	})

	// No token
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/me", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token
	token, err := svc.CreateAccessToken(user)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}
