package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"intervention_backend/internal/config"
	"intervention_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// queryErrors 记录 gorm 执行 SQL 时返回的错误
type queryErrors struct {
	mu   sync.Mutex
	errs []error
}

func (q *queryErrors) LogMode(gormlogger.LogLevel) gormlogger.Interface { return q }
func (q *queryErrors) Info(context.Context, string, ...interface{}) {}
func (q *queryErrors) Warn(context.Context, string, ...interface{}) {}
func (q *queryErrors) Error(context.Context, string, ...interface{}) {}
func (q *queryErrors) Trace(_ context.Context, _ time.Time, _ func() (string, int64), err error) {
	if err != nil {
		q.mu.Lock()
		q.errs = append(q.errs, err)
		q.mu.Unlock()
	}
}

func TestInitDB_SQLiteMigratesAndSeeds(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "seed.db"),
		SeedStudents: []string{"s1:Ada Lovelace", " s2 : Alan Turing "},
	}

	db, err := InitDB(cfg, false)
	require.NoError(t, err)

	var students []model.Student
	require.NoError(t, db.Order("id").Find(&students).Error)
	require.Len(t, students, 2)
	assert.Equal(t, "s2", students[1].ID)
	assert.Equal(t, "Alan Turing", students[1].Name)
	assert.Equal(t, model.StatusNormal, students[0].Status)

	// 重复初始化不修改已有数据
	require.NoError(t, db.Model(&model.Student{}).Where("id = ?", "s1").Update("status", model.StatusRemedial).Error)
	require.NoError(t, SeedStudents(db, cfg.SeedStudents))
	var s1 model.Student
	require.NoError(t, db.First(&s1, "id = ?", "s1").Error)
	assert.Equal(t, model.StatusRemedial, s1.Status)
}

func TestSeedStudents_RejectsMalformedEntry(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "bad.db")}, false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.Error(t, SeedStudents(db, []string{"no-name"}))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, false)
	assert.Error(t, err)
}

func TestSeedStudents_NewEntriesLogNoQueryErrors(t *testing.T) {
	db, err := Open(&config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "quiet.db")}, false)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	recorder := &queryErrors{}
	quiet := db.Session(&gorm.Session{Logger: recorder})
	require.NoError(t, SeedStudents(quiet, []string{"s1:Ada", "s2:Grace"}))
	require.NoError(t, SeedStudents(quiet, []string{"s1:Ada"}))

	assert.Empty(t, recorder.errs)
	var count int64
	require.NoError(t, db.Model(&model.Student{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}
