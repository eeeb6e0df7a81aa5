package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wisdomhub/filekeep/internal/domain/user"
)

func TestUsersRepo_CreateAndGet(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	created, err := r.Create(ctx, user.New("alice", "a@x.com", "hash"))
	require.NoError(t, err)

	got, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = r.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_CreateRejectsDuplicateEmail(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, user.New("alice", "a@x.com", "hash"))
	require.NoError(t, err)

	_, err = r.Create(ctx, user.New("other", "a@x.com", "hash2"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestUsersRepo_ConcurrentCreateOnlyOneWins(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create(ctx, user.New("alice", "race@x.com", "hash"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, user.ErrEmailTaken)
	}
	assert.Equal(t, 1, ok)
}

func TestUsersRepo_AppendFilePreservesOrderAndDuplicates(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, user.New("alice", "a@x.com", "hash"))
	require.NoError(t, err)

	for _, f := range []string{"a", "b", "a"} {
		_, err := r.AppendFile(ctx, "a@x.com", f)
		require.NoError(t, err)
	}

	got, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "a"}, got.Files)

	_, err = r.AppendFile(ctx, "nouser@x.com", "x.pdf")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepo_ReturnsCopies(t *testing.T) {
	r := NewUsersRepo()
	ctx := context.Background()

	_, err := r.Create(ctx, user.New("alice", "a@x.com", "hash"))
	require.NoError(t, err)
	u, err := r.AppendFile(ctx, "a@x.com", "a")
	require.NoError(t, err)

	u.Files[0] = "mutated"

	got, err := r.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Files)
}
