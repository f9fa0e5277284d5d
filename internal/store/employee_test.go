package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/empdesk/apiserver/internal/db"
	"github.com/empdesk/apiserver/internal/store"
	"github.com/empdesk/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type employeeRepository interface {
	List(ctx context.Context) ([]types.Employee, error)
	Get(ctx context.Context, id int) (types.Employee, error)
	Create(ctx context.Context, employee types.Employee) (types.Employee, error)
	Update(ctx context.Context, id int, patch types.EmployeePatch) (types.Employee, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

func repositories(t *testing.T) map[string]func(t *testing.T) employeeRepository {
	return map[string]func(t *testing.T) employeeRepository{
		"memory": func(t *testing.T) employeeRepository {
			return store.NewMemoryEmployeeRepository()
		},
		"sqlite": func(t *testing.T) employeeRepository {
			conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "employees.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = conn.Close() })
			return store.NewEmployeeRepository(conn)
		},
	}
}

func strPtr(s string) *string { return &s }

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()

	for name, newRepo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("list is empty and non-nil initially", func(t *testing.T) {
				repo := newRepo(t)

				employees, err := repo.List(ctx)
				require.NoError(t, err)
				assert.NotNil(t, employees)
				assert.Empty(t, employees)

				count, err := repo.Count(ctx)
				require.NoError(t, err)
				assert.Equal(t, 0, count)
			})

			t.Run("ids strictly increase and are never reused after delete", func(t *testing.T) {
				repo := newRepo(t)

				first, err := repo.Create(ctx, types.Employee{Name: "a"})
				require.NoError(t, err)
				second, err := repo.Create(ctx, types.Employee{Name: "b"})
				require.NoError(t, err)
				require.NoError(t, repo.Delete(ctx, second.ID))
				third, err := repo.Create(ctx, types.Employee{Name: "c"})
				require.NoError(t, err)
				require.NoError(t, repo.Delete(ctx, first.ID))
				fourth, err := repo.Create(ctx, types.Employee{Name: "d"})
				require.NoError(t, err)

				assert.Equal(t, 1, first.ID)
				assert.Greater(t, second.ID, first.ID)
				assert.Greater(t, third.ID, second.ID)
				assert.Greater(t, fourth.ID, third.ID)
			})

			t.Run("incoming id is ignored on create", func(t *testing.T) {
				repo := newRepo(t)

				created, err := repo.Create(ctx, types.Employee{ID: 42, Name: "a"})
				require.NoError(t, err)
				assert.Equal(t, 1, created.ID)
			})

			t.Run("get returns the created record", func(t *testing.T) {
				repo := newRepo(t)

				created, err := repo.Create(ctx, types.Employee{
					Picture:   types.DefaultPicture,
					Name:      "Alice",
					Age:       "30",
					City:      "Paris",
					Email:     "not-an-email",
					Phone:     "abc",
					Post:      "Dev",
					StartDate: "2024-01-15",
				})
				require.NoError(t, err)

				fetched, err := repo.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, created, fetched)
			})

			t.Run("list keeps insertion order", func(t *testing.T) {
				repo := newRepo(t)

				for _, name := range []string{"a", "b", "c"} {
					_, err := repo.Create(ctx, types.Employee{Name: name})
					require.NoError(t, err)
				}
				require.NoError(t, repo.Delete(ctx, 2))

				employees, err := repo.List(ctx)
				require.NoError(t, err)
				require.Len(t, employees, 2)
				assert.Equal(t, "a", employees[0].Name)
				assert.Equal(t, "c", employees[1].Name)

				count, err := repo.Count(ctx)
				require.NoError(t, err)
				assert.Equal(t, 2, count)
			})

			t.Run("update changes only patched fields", func(t *testing.T) {
				repo := newRepo(t)

				created, err := repo.Create(ctx, types.Employee{Name: "Alice", City: "Paris", Email: "a@example.com"})
				require.NoError(t, err)

				updated, err := repo.Update(ctx, created.ID, types.EmployeePatch{City: strPtr("Berlin")})
				require.NoError(t, err)

				expected := created
				expected.City = "Berlin"
				assert.Equal(t, expected, updated)

				fetched, err := repo.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, expected, fetched)
			})

			t.Run("update can clear a field", func(t *testing.T) {
				repo := newRepo(t)

				created, err := repo.Create(ctx, types.Employee{Name: "Alice", Email: "a@example.com"})
				require.NoError(t, err)

				updated, err := repo.Update(ctx, created.ID, types.EmployeePatch{Email: strPtr("")})
				require.NoError(t, err)
				assert.Equal(t, "", updated.Email)
				assert.Equal(t, "Alice", updated.Name)
			})

			t.Run("missing records report not found", func(t *testing.T) {
				repo := newRepo(t)

				_, err := repo.Get(ctx, 999)
				assert.ErrorIs(t, err, store.ErrNotFound)

				_, err = repo.Update(ctx, 999, types.EmployeePatch{Name: strPtr("x")})
				assert.ErrorIs(t, err, store.ErrNotFound)

				assert.ErrorIs(t, repo.Delete(ctx, 999), store.ErrNotFound)
			})

			t.Run("deleted records are gone", func(t *testing.T) {
				repo := newRepo(t)

				created, err := repo.Create(ctx, types.Employee{Name: "Alice"})
				require.NoError(t, err)
				require.NoError(t, repo.Delete(ctx, created.ID))

				_, err = repo.Get(ctx, created.ID)
				assert.ErrorIs(t, err, store.ErrNotFound)
				assert.ErrorIs(t, repo.Delete(ctx, created.ID), store.ErrNotFound)
			})
		})
	}
}

func TestMemoryEmployeeRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryEmployeeRepository()

	_, err := repo.Create(ctx, types.Employee{Name: "Alice"})
	require.NoError(t, err)

	employees, err := repo.List(ctx)
	require.NoError(t, err)
	employees[0].Name = "Mallory"

	fetched, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", fetched.Name)
}
