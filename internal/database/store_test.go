package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/database"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, redisURL string) *config.Config {
	t.Helper()
	return &config.Config{
		DatabaseDriver:     config.DriverSQLite,
		SQLitePath:         filepath.Join(t.TempDir(), "students.db"),
		RedisURL:           redisURL,
		StatsCacheTTL:      time.Minute,
		Subjects:           config.DefaultSubjects,
		MaxMarksPerSubject: 100,
	}
}

func openService(t *testing.T, cfg *config.Config) *service.StudentService {
	t.Helper()
	store, err := database.OpenStore(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	scheme := grading.NewScheme(cfg.Subjects, cfg.MaxMarksPerSubject)
	return service.NewStudentService(store.Students, scheme, store.StatisticsCache(), zerolog.Nop())
}

func TestOpenStoreWithoutRedis(t *testing.T) {
	store, err := database.OpenStore(context.Background(), testConfig(t, ""), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	assert.Nil(t, store.StatisticsCache())
	n, err := store.Students.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.DatabaseDriver = "oracle"
	_, err := database.OpenStore(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "oracle")
}

func TestOpenStoreRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := database.OpenStore(context.Background(), testConfig(t, "redis://"+addr), zerolog.Nop())
	assert.ErrorContains(t, err, "ping redis")
}

// The server and a command-line tool are separate processes over the same
// database; writes from either must drop the summary the other cached.
func TestWritersShareStatisticsCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, "redis://"+mr.Addr())
	ctx := context.Background()

	server := openService(t, cfg)
	tool := openService(t, cfg)

	_, err := server.Add(ctx, model.StudentInput{RollNo: 1, Name: "John Doe", Age: 20, Gender: "M", Marks: []float64{80, 90, 85, 75, 70}})
	require.NoError(t, err)

	stats, err := server.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalStudents)

	_, err = tool.Add(ctx, model.StudentInput{RollNo: 2, Name: "Jane Roe", Age: 19, Gender: "F", Marks: []float64{85, 95, 80, 80, 75}})
	require.NoError(t, err)

	stats, err = server.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)

	require.NoError(t, tool.Delete(ctx, 1))
	stats, err = server.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalStudents)
}
