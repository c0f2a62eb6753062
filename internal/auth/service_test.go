package auth

import (
	"context"
	"testing"
	"time"

	"roomchat/internal/config"
	"roomchat/internal/database"
	"roomchat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	database.UserRepository
	byID    map[int]*models.User
	byEmail map[string]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    make(map[int]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (f *fakeUsers) add(user *models.User) {
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, database.ErrNotFound
	}
	return user, nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: time.Hour,
		},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	users := newFakeUsers()
	alice := &models.User{ID: 1, Username: "alice", Email: "alice@example.com"}
	users.add(alice)
	svc := NewService(users, testConfig())

	token, err := svc.GenerateToken(alice)
	require.NoError(t, err)

	user, err := svc.GetUserFromToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "alice", user.Username)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := NewService(newFakeUsers(), testConfig())

	token, err := svc.GenerateToken(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token + "x")
	require.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc := NewService(newFakeUsers(), testConfig())
	other := NewService(newFakeUsers(), &config.Config{
		JWT: config.JWTConfig{Secret: []byte("different"), ExpiresIn: time.Hour},
	})

	token, err := other.GenerateToken(&models.User{ID: 1, Username: "alice"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}

func TestLoginVerifiesPassword(t *testing.T) {
	users := newFakeUsers()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	users.add(&models.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)})
	svc := NewService(users, testConfig())

	resp, err := svc.Login(context.Background(), &models.LoginRequest{Email: "alice@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.PasswordHash)

	_, err = svc.Login(context.Background(), &models.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	require.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeUsers(), testConfig())

	cases := []models.RegisterRequest{
		{Username: "alice", Email: "alice@example.com", Password: "short"},
		{Username: "al", Email: "alice@example.com", Password: "long enough"},
		{Username: "alice", Email: "not-an-email", Password: "long enough"},
		{Username: "", Email: "", Password: ""},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), &req)
		require.Error(t, err, "request %+v should be rejected", req)
	}
}
