package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjburns0/crwv-tracker/internal/models"
)

func TestUsers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	newUser := func(name, phone string) *models.User {
		return &models.User{
			Name:         name,
			PhoneNumber:  phone,
			PasswordHash: "$2a$10$fakehashfortests",
			IsActive:     true,
		}
	}

	t.Run("create and get by phone", func(t *testing.T) {
		testDB.TruncateAll(t)

		user := newUser("Alice", "+15551110001")
		require.NoError(t, testDB.CreateUser(user))
		assert.NotZero(t, user.ID)

		got, err := testDB.GetUserByPhone("+15551110001")
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Name)
		assert.True(t, got.IsActive)
	})

	t.Run("duplicate phone number is rejected", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateUser(newUser("Alice", "+15551110001")))
		err := testDB.CreateUser(newUser("Bob", "+15551110001"))
		assert.Error(t, err)
	})

	t.Run("unknown phone returns ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		_, err := testDB.GetUserByPhone("+15559990000")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("active users are ordered by id ascending", func(t *testing.T) {
		testDB.TruncateAll(t)

		alice := newUser("Alice", "+15551110001")
		bob := newUser("Bob", "+15551110002")
		carol := newUser("Carol", "+15551110003")
		require.NoError(t, testDB.CreateUser(alice))
		require.NoError(t, testDB.CreateUser(bob))
		require.NoError(t, testDB.CreateUser(carol))
		require.NoError(t, testDB.DeactivateUser(bob.ID))

		active, err := testDB.GetActiveUsers()
		require.NoError(t, err)
		require.Len(t, active, 2)
		assert.Equal(t, "Alice", active[0].Name)
		assert.Equal(t, "Carol", active[1].Name)

		all, err := testDB.GetAllUsers()
		require.NoError(t, err)
		assert.Len(t, all, 3, "deactivation keeps the row")
	})

	t.Run("deactivating an unknown user returns ErrNotFound", func(t *testing.T) {
		testDB.TruncateAll(t)

		err := testDB.DeactivateUser(12345)
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}
