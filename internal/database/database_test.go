package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/reportconsole/internal/models"
)

func TestOpenLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, err := Open(filepath.Join(t.TempDir(), "sub", "console.db"), zap.New(core))
	require.NoError(t, err)
	defer func() { assert.NoError(t, Close(db)) }()

	var entry models.KVEntry
	err = db.First(&entry, "1 = 0").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.NotZero(t, logs.FilterLoggerName("gorm").FilterMessage("sql").Len())
	assert.Zero(t, logs.FilterMessage("sql error").Len())
}

func TestGormLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newGormLogger(zap.New(core))
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), stmt, errors.New("disk I/O error"))
	l.Trace(context.Background(), time.Now(), stmt, gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now().Add(-time.Second), stmt, nil)
	l.Warn(context.Background(), "deprecated %s", "option")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "slow sql", entries[2].Message)
	assert.Equal(t, "deprecated option", entries[3].Message)
}
