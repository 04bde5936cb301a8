package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/tally-backend/pkg/db"
	"github.com/angelmondragon/tally-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tally-backend/pkg/db/models"
	"github.com/angelmondragon/tally-backend/pkg/pagination"
)

func seedCustomer(t *testing.T, repo *Repository, name, email string) *models.Customer {
	t.Helper()
	created, err := repo.Create(context.Background(), &models.Customer{Name: name, Email: email, Phones: []string{"555-0100"}})
	require.NoError(t, err)
	return created
}

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	created := seedCustomer(t, repo, "Ana", "ana@example.com")

	found, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.Name)
	assert.Equal(t, []string{"555-0100"}, found.Phones)

	_, err = repo.FindByID(context.Background(), created.ID+100)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryUniqueEmail(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	seedCustomer(t, repo, "Ana", "ana@example.com")

	_, err := repo.Create(context.Background(), &models.Customer{Name: "Other", Email: "ana@example.com"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryEmailExists(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	ana := seedCustomer(t, repo, "Ana", "ana@example.com")

	exists, err := repo.EmailExists(ctx, "ana@example.com", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, "ana@example.com", ana.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.EmailExists(ctx, "bob@example.com", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepositoryDeleteMissing(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	err := repo.Delete(context.Background(), 42)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListSearchAndPaging(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()
	seedCustomer(t, repo, "Ana Torres", "ana@example.com")
	seedCustomer(t, repo, "Bob Lane", "bob@shop.test")
	seedCustomer(t, repo, "Carla Diaz", "carla@example.com")

	rows, next, err := repo.List(ctx, ListQuery{Search: "EXAMPLE"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, next)
	assert.Equal(t, "Carla Diaz", rows[0].Name)

	rows, next, err = repo.List(ctx, ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotEmpty(t, next)

	cursor, err := pagination.ParseCursor(next)
	require.NoError(t, err)
	rest, next, err := repo.List(ctx, ListQuery{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
	assert.Equal(t, "Ana Torres", rest[0].Name)
}
