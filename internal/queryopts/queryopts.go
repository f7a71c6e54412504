// Package queryopts persists the report list filters, one store key per field.
package queryopts

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v5"
	"go.uber.org/zap"

	"github.com/reportconsole/internal/models"
	"github.com/reportconsole/internal/storage"
)

// Store keys.
const (
	KeyStatus         = "Status"
	KeyType           = "Type"
	KeyTypeDayOfWeek  = "TypeDayOfWeek"
	KeyTypeDayOfMonth = "TypeDayOfMonth"
	KeyUser           = "User"
	KeyDepartment     = "Department"
	KeyDatabase       = "Database"
	KeyServer         = "Server"
	KeySearchTerm     = "SearchTerm"
	KeySkip           = "Skip"
)

// Keys lists every persisted field.
var Keys = []string{
	KeyStatus, KeyType, KeyTypeDayOfWeek, KeyTypeDayOfMonth, KeyUser,
	KeyDepartment, KeyDatabase, KeyServer, KeySearchTerm, KeySkip,
}

// Load restores the list state. It never fails: a store error yields the
// defaults with the scheduled-or-in-process status filter.
func Load(ctx context.Context, s storage.Store, log *zap.Logger) models.ReportQueryOptions {
	q := models.DefaultReportQueryOptions()
	raw := make(map[string]*string, len(Keys))
	for _, key := range Keys {
		v, found, err := s.Get(ctx, key)
		if err != nil {
			log.Warn("failed to load query options, using defaults", zap.String("key", key), zap.Error(err))
			q.Status = null.IntFrom(models.StatusScheduledOrInProcess)
			return q
		}
		if found {
			v := v
			raw[key] = &v
		}
	}

	q.Status = loadStatus(raw[KeyStatus])
	q.Type = loadType(raw[KeyType])
	q.TypeDayOfWeek = optionalInt(raw[KeyTypeDayOfWeek])
	q.TypeDayOfMonth = optionalInt(raw[KeyTypeDayOfMonth])
	q.User = optionalInt(raw[KeyUser])
	q.Department = optionalInt(raw[KeyDepartment])
	q.Database = stringOr(raw[KeyDatabase])
	q.Server = stringOr(raw[KeyServer])
	q.SearchTerm = stringOr(raw[KeySearchTerm])
	q.Skip = AlignSkip(skipValue(raw[KeySkip]), q.Take)
	return q
}

// Save writes every field as a string, "" for null. Failures are logged and dropped.
func Save(ctx context.Context, s storage.Store, q models.ReportQueryOptions, log *zap.Logger) {
	values := map[string]string{
		KeyStatus:         intString(q.Status),
		KeyType:           intString(q.Type),
		KeyTypeDayOfWeek:  intString(q.TypeDayOfWeek),
		KeyTypeDayOfMonth: intString(q.TypeDayOfMonth),
		KeyUser:           intString(q.User),
		KeyDepartment:     intString(q.Department),
		KeyDatabase:       q.Database,
		KeyServer:         q.Server,
		KeySearchTerm:     q.SearchTerm,
		KeySkip:           strconv.Itoa(max(q.Skip, 0)),
	}
	for _, key := range Keys {
		if err := s.Set(ctx, key, values[key]); err != nil {
			log.Warn("failed to save query option", zap.String("key", key), zap.Error(err))
		}
	}
}

// Reset deletes every persisted field, so the next Load returns the defaults.
// Failures are logged and dropped.
func Reset(ctx context.Context, s storage.Store, log *zap.Logger) {
	for _, key := range Keys {
		if err := s.Delete(ctx, key); err != nil {
			log.Warn("failed to reset query option", zap.String("key", key), zap.Error(err))
		}
	}
}

// AlignSkip rounds skip down to a non-negative multiple of take.
func AlignSkip(skip, take int) int {
	if skip <= 0 || take <= 0 {
		return 0
	}
	return skip / take * take
}

// number mirrors a lenient numeric read: "" reads as 0, garbage as not-a-number.
// Values outside the int32 range are unreadable.
func number(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return f, true
}

// loadStatus maps legacy 0 and 1 to 8; absent or unreadable also yields 8.
func loadStatus(raw *string) null.Int {
	fallback := null.IntFrom(models.StatusScheduledOrInProcess)
	if raw == nil {
		return fallback
	}
	f, ok := number(*raw)
	if !ok || f != math.Trunc(f) {
		return fallback
	}
	if f == models.StatusScheduled || f == models.StatusInProcess {
		return fallback
	}
	return null.IntFrom(int64(f))
}

// loadType treats 0, empty and unreadable as no type filter.
func loadType(raw *string) null.Int {
	if raw == nil {
		return null.Int{}
	}
	f, ok := number(*raw)
	if !ok || f == 0 || f != math.Trunc(f) {
		return null.Int{}
	}
	return null.IntFrom(int64(f))
}

func optionalInt(raw *string) null.Int {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return null.Int{}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(*raw), 10, 32)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(n)
}

func skipValue(raw *string) int {
	if raw == nil {
		return 0
	}
	f, ok := number(*raw)
	if !ok {
		return 0
	}
	return int(f)
}

func stringOr(raw *string) string {
	if raw == nil {
		return ""
	}
	return *raw
}

func intString(n null.Int) string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatInt(n.Int64, 10)
}
