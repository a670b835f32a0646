package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybox/service/internal/config"
	"github.com/memorybox/service/internal/user"
)

type fakeUserRepo struct {
	byEmail map[string]*user.User
	nextID  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*user.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, email, passwordHash string, name *string) (*user.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, user.ErrAlreadyExists
	}
	f.nextID++
	u := &user.User{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.byEmail[email] = u
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, err := f.GetByID(ctx, id)
	return err == nil, nil
}

func newTestService() *Service {
	cfg := &config.Config{JWTSecret: "test-secret", AppEnv: "test"}
	return NewService(user.NewService(newFakeUserRepo()), cfg)
}

func subject(t *testing.T, tokenStr, secret string) string {
	t.Helper()
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)
	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	return sub
}

func TestRegisterIssuesToken(t *testing.T) {
	svc := newTestService()

	token, u, err := svc.Register(context.Background(), "Anna@Example.com", "s3cretpass", nil)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", u.Email, "email is normalized")
	assert.Equal(t, u.ID, subject(t, token, "test-secret"))
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Register(context.Background(), "anna@example.com", "short", nil)
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()

	_, _, err := svc.Register(context.Background(), "anna@example.com", "s3cretpass", nil)
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "anna@example.com", "otherpass1", nil)
	assert.ErrorIs(t, err, user.ErrAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc := newTestService()

	_, registered, err := svc.Register(context.Background(), "anna@example.com", "s3cretpass", nil)
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		token, u, err := svc.Login(context.Background(), "anna@example.com", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
		assert.Equal(t, u.ID, subject(t, token, "test-secret"))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "anna@example.com", "wrongpass1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cretpass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
