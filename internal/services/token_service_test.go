package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
	"github.com/boomchecker/moderation-gateway/internal/models"
)

func newTokenService(store TokenStore) *AdminTokenService {
	return NewAdminTokenService(store, NewAuthGuard(store, zerolog.Nop()), zerolog.Nop())
}

var (
	adminCaller = &models.Token{Token: "admin-token", IsAdmin: true}
	userCaller  = &models.Token{Token: "user-token"}
)

func TestAdminTokenService_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := newMemTokenStore(adminCaller, userCaller)
	svc := newTokenService(store)

	created, err := svc.Create(ctx, adminCaller, false)
	require.NoError(t, err)
	assert.Len(t, created.Token, 43)
	assert.False(t, created.IsAdmin)
	assert.Nil(t, created.LastUsed)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := store.FindByToken(ctx, created.Token)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.IsAdmin, found.IsAdmin)
	assert.True(t, created.CreatedAt.Equal(found.CreatedAt))

	authenticated, err := NewAuthGuard(store, zerolog.Nop()).Authenticate(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.Token, authenticated.Token)
}

func TestAdminTokenService_CreateAdmin(t *testing.T) {
	svc := newTokenService(newMemTokenStore(adminCaller))

	created, err := svc.Create(context.Background(), adminCaller, true)
	require.NoError(t, err)
	assert.True(t, created.IsAdmin)
}

func TestAdminTokenService_NonAdminForbidden(t *testing.T) {
	ctx := context.Background()
	store := newMemTokenStore(adminCaller, userCaller)
	svc := newTokenService(store)

	_, err := svc.Create(ctx, userCaller, false)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = svc.List(ctx, userCaller)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	// Forbidden precedes the existence check
	err = svc.Delete(ctx, userCaller, "does-not-exist")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	err = svc.Delete(ctx, userCaller, adminCaller.Token)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.Equal(t, 2, store.len())
}

func TestAdminTokenService_DeleteTwice(t *testing.T) {
	ctx := context.Background()
	store := newMemTokenStore(adminCaller, userCaller)
	svc := newTokenService(store)

	require.NoError(t, svc.Delete(ctx, adminCaller, userCaller.Token))

	err := svc.Delete(ctx, adminCaller, userCaller.Token)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = NewAuthGuard(store, zerolog.Nop()).Authenticate(ctx, userCaller.Token)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAdminTokenService_List(t *testing.T) {
	ctx := context.Background()
	svc := newTokenService(newMemTokenStore(adminCaller, userCaller))

	tokens, err := svc.List(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, adminCaller.Token, tokens[0].Token)
	assert.True(t, tokens[0].IsAdmin)
	assert.Equal(t, userCaller.Token, tokens[1].Token)
}

func TestAdminTokenService_CreateRetriesOnDuplicate(t *testing.T) {
	store := newMemTokenStore(adminCaller, &models.Token{Token: "taken"})
	svc := newTokenService(store)

	values := []string{"taken", "taken", "fresh"}
	calls := 0
	svc.generate = func() (string, error) {
		v := values[calls]
		calls++
		return v, nil
	}

	created, err := svc.Create(context.Background(), adminCaller, false)
	require.NoError(t, err)
	assert.Equal(t, "fresh", created.Token)
	assert.Equal(t, 3, calls)
}

func TestAdminTokenService_CreateGivesUpAfterRetries(t *testing.T) {
	svc := newTokenService(newMemTokenStore(adminCaller, &models.Token{Token: "taken"}))

	calls := 0
	svc.generate = func() (string, error) {
		calls++
		return "taken", nil
	}

	_, err := svc.Create(context.Background(), adminCaller, false)
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateToken))
	assert.Equal(t, maxCreateAttempts, calls)
}

func TestAdminTokenService_StoreFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemTokenStore(adminCaller)
	svc := newTokenService(store)

	store.createErr = errors.New("disk full")
	_, err := svc.Create(ctx, adminCaller, false)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))

	store.deleteErr = errors.New("disk full")
	err = svc.Delete(ctx, adminCaller, "x")
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestAdminTokenService_SeedAdmin(t *testing.T) {
	ctx := context.Background()
	store := newMemTokenStore()
	svc := newTokenService(store)

	seeded, err := svc.SeedAdmin(ctx, "bootstrap-admin")
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = svc.SeedAdmin(ctx, "bootstrap-admin")
	require.NoError(t, err)
	assert.False(t, seeded)

	admins, _ := store.CountAdmins(ctx)
	assert.Equal(t, int64(1), admins)

	_, err = svc.SeedAdmin(ctx, "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestAdminTokenService_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	store := newMemTokenStore(adminCaller)
	svc := newTokenService(store)

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Create(ctx, adminCaller, false); err != nil {
				errs <- fmt.Errorf("create: %w", err)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, n+1, store.len())
}
