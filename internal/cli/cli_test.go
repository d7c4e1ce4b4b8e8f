package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/attendance/internal/auth"
	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/persistence/sqlite"
)

func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			require.NoError(t, f.Value.Set(f.DefValue))
			f.Changed = false
		})
	}
	reset(rootCmd.PersistentFlags())
	for _, c := range rootCmd.Commands() {
		reset(c.Flags())
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func seedDatabase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attendance.db")

	repo, err := sqlite.Open(ctx, path)
	require.NoError(t, err)
	defer repo.Close()

	log, err := repo.LoadOrCreate(ctx, 42, "2026-10-12")
	require.NoError(t, err)
	log.OpenNew(domain.CategoryWork, "09:00:00")
	log.CloseOpen("09:30:00")
	log.OpenNew(domain.CategorySmoke, "09:30:00")
	log.CloseOpen("09:35:00")
	log.OpenNew(domain.CategoryWork, "09:35:00")
	require.NoError(t, repo.Save(ctx, log))
	return path
}

func TestSummaryCommand(t *testing.T) {
	// Given: a database with one session in progress
	path := seedDatabase(t)

	// When: I run "attendancectl summary"
	out, err := run(t, "summary", "--driver", "sqlite", "--sqlite-path", path, "--user", "42", "--date", "2026-10-12", "--name", "Ann")

	// Then: the plain-text summary is printed
	require.NoError(t, err)
	assert.Contains(t, out, "本次工作总结 / Session Summary")
	assert.Contains(t, out, "用户 / User: Ann")
	assert.Contains(t, out, "工作 / Work: 30分0秒")
	assert.Contains(t, out, "抽烟 / Smoke: 5分0秒 (1次)")
	assert.Contains(t, out, "实际工作时长 / Actual Working Hours: 30分0秒")
}

func TestSummaryCommandWithoutLog(t *testing.T) {
	path := seedDatabase(t)

	out, err := run(t, "summary", "--driver", "sqlite", "--sqlite-path", path, "--user", "7", "--date", "2026-10-12")

	require.NoError(t, err)
	assert.Contains(t, out, "暂无活动记录")
}

func TestLogCommand(t *testing.T) {
	path := seedDatabase(t)

	out, err := run(t, "log", "--driver", "sqlite", "--sqlite-path", path, "--user", "42", "--date", "2026-10-12")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "user 42  2026-10-12  (version 1)")
	assert.Contains(t, lines[1], "09:00:00 - 09:30:00 30分0秒")
	assert.Contains(t, lines[3], "(open)")
	assert.Contains(t, lines[4], "total 35分0秒, net work 30分0秒")
}

func TestLogCommandRejectsBadInput(t *testing.T) {
	path := seedDatabase(t)

	_, err := run(t, "log", "--driver", "sqlite", "--sqlite-path", path, "--user", "42", "--date", "yesterday")
	require.ErrorContains(t, err, "invalid date")

	_, err = run(t, "log", "--driver", "sqlite", "--sqlite-path", path)
	require.ErrorContains(t, err, "required flag")
}

func TestMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	out, err := run(t, "migrate", "--driver", "sqlite", "--sqlite-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite schema at version 1")

	out, err = run(t, "migrate", "--driver", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "memory driver has no schema")

	_, err = run(t, "migrate", "--driver", "mongo")
	require.ErrorContains(t, err, "unknown storage driver")
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("JWT_ISSUER", "attendance.cli")

	out, err := run(t, "token", "--subject", "ops", "--scopes", "attendance:read, extra")
	require.NoError(t, err)

	claims, err := auth.Parse(strings.TrimSpace(out), auth.Config{Secret: "cli-secret", Issuer: "attendance.cli"})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.HasScope(auth.ScopeAttendanceRead))
	assert.True(t, claims.HasScope("extra"))
}
