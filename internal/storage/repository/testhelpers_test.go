package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/skincare-planner/internal/migrations"
	"github.com/magabrotheeeer/skincare-planner/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("planner"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))
	return storage
}

// TestDataFactory создаёт тестовые данные через методы хранилища.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateProfile сохраняет новую версию профиля.
func (f *TestDataFactory) CreateProfile(t *testing.T, p models.SkinProfile) *models.SkinProfile {
	t.Helper()
	created, err := f.storage.CreateProfile(context.Background(), p)
	require.NoError(t, err)
	return created
}

// CreateCatalog сохраняет бренды и продукты.
func (f *TestDataFactory) CreateCatalog(t *testing.T, brands []Brand, products []models.Product) {
	t.Helper()
	ctx := context.Background()
	for _, b := range brands {
		require.NoError(t, f.storage.UpsertBrand(ctx, b))
	}
	for _, p := range products {
		require.NoError(t, f.storage.UpsertProduct(ctx, p))
	}
}
