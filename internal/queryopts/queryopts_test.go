package queryopts

import (
	"context"
	"errors"
	"testing"

	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/storage"
)

type failingStore struct {
	storage.Store
}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk gone")
}

func (failingStore) Set(context.Context, string, string) error {
	return errors.New("disk gone")
}

func (failingStore) Delete(context.Context, string) error {
	return errors.New("disk gone")
}

func TestLoadStatusMigration(t *testing.T) {
	tests := []struct {
		stored *string
		want   null.Int
	}{
		{ptr("0"), null.IntFrom(8)},
		{ptr("1"), null.IntFrom(8)},
		{ptr("2"), null.IntFrom(2)},
		{ptr("6"), null.IntFrom(6)},
		{ptr("7"), null.IntFrom(7)},
		{ptr("8"), null.IntFrom(8)},
		{ptr("23"), null.IntFrom(23)},
		{ptr(""), null.IntFrom(8)},
		{ptr("abc"), null.IntFrom(8)},
		{ptr("NaN"), null.IntFrom(8)},
		{ptr("Inf"), null.IntFrom(8)},
		{ptr("1e300"), null.IntFrom(8)},
		{ptr("-1e300"), null.IntFrom(8)},
		{ptr("2147483648"), null.IntFrom(8)},
		{nil, null.IntFrom(8)},
	}
	for _, tt := range tests {
		s := storage.NewMemoryStore()
		if tt.stored != nil {
			require.NoError(t, s.Set(context.Background(), KeyStatus, *tt.stored))
		}
		q := Load(context.Background(), s, zap.NewNop())
		assert.Equal(t, tt.want, q.Status, "stored %v", tt.stored)
	}
}

func TestLoadTypeMigration(t *testing.T) {
	for stored, want := range map[string]null.Int{
		"0":   {},
		"":    {},
		"x":   {},
		"4":   null.IntFrom(4),
		"5.0": null.IntFrom(5),
		"1e300": {},
	} {
		s := storage.NewMemoryStore()
		require.NoError(t, s.Set(context.Background(), KeyType, stored))
		assert.Equal(t, want, Load(context.Background(), s, zap.NewNop()).Type, "stored %q", stored)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := storage.NewMemoryStore()
	q := models.DefaultReportQueryOptions()
	q.Status = null.IntFrom(2)
	q.Type = null.IntFrom(4)
	q.TypeDayOfWeek = null.IntFrom(int64(models.Monday))
	q.User = null.IntFrom(44)
	q.Department = null.IntFrom(3)
	q.Database = "1272"
	q.Server = "sql01"
	q.SearchTerm = "sales"
	q.Skip = 30

	Save(context.Background(), s, q, zap.NewNop())

	v, found, err := s.Get(context.Background(), KeyTypeDayOfMonth)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "", v, "null is stored as empty string")

	assert.Equal(t, q, Load(context.Background(), s, zap.NewNop()))
}

func TestSkipAlignment(t *testing.T) {
	s := storage.NewMemoryStore()
	require.NoError(t, s.Set(context.Background(), KeySkip, "25"))
	assert.Equal(t, 20, Load(context.Background(), s, zap.NewNop()).Skip)

	require.NoError(t, s.Set(context.Background(), KeySkip, "-10"))
	assert.Equal(t, 0, Load(context.Background(), s, zap.NewNop()).Skip)

	require.NoError(t, s.Set(context.Background(), KeySkip, "1e300"))
	assert.Equal(t, 0, Load(context.Background(), s, zap.NewNop()).Skip)

	assert.Equal(t, 0, AlignSkip(7, 0))
	assert.Equal(t, 40, AlignSkip(49, 20))
}

func TestOutOfRangeIDsAreDropped(t *testing.T) {
	s := storage.NewMemoryStore()
	require.NoError(t, s.Set(context.Background(), KeyUser, "99999999999"))
	require.NoError(t, s.Set(context.Background(), KeyDepartment, "3"))
	q := Load(context.Background(), s, zap.NewNop())
	assert.False(t, q.User.Valid)
	assert.Equal(t, null.IntFrom(3), q.Department)
}

func TestReset(t *testing.T) {
	s := storage.NewMemoryStore()
	q := models.DefaultReportQueryOptions()
	q.Status = null.IntFrom(6)
	q.SearchTerm = "sales"
	Save(context.Background(), s, q, zap.NewNop())

	Reset(context.Background(), s, zap.NewNop())
	for _, key := range Keys {
		_, found, err := s.Get(context.Background(), key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
	assert.Equal(t, null.IntFrom(8), Load(context.Background(), s, zap.NewNop()).Status)
}

func TestStoreFailures(t *testing.T) {
	q := Load(context.Background(), failingStore{}, zap.NewNop())
	want := models.DefaultReportQueryOptions()
	want.Status = null.IntFrom(8)
	assert.Equal(t, want, q)

	assert.NotPanics(t, func() {
		Save(context.Background(), failingStore{}, q, zap.NewNop())
		Reset(context.Background(), failingStore{}, zap.NewNop())
	})
}

func ptr(s string) *string { return &s }
