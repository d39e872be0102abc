package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "school", nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "list:students:x", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "list:students:x", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "list:*"))
	assert.NoError(t, repo.Close())

	_, _, err := repo.IncrWindow(ctx, "ratelimit:1.2.3.4", time.Minute)
	assert.ErrorIs(t, err, appErrors.ErrUnavailable)
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "school:list:*", NewCacheRepository(nil, "school", nil).key("list:*"))
	assert.Equal(t, "list:*", NewCacheRepository(nil, "", nil).key("list:*"))
}
