package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"app_port": 9000, "db_driver": "postgres", "alert_expiry_days": 14}`)
	envPath := writeFile(t, dir, ".env", "APP_PORT=9100\nMANAGER_EMAIL=boss@example.com\n")
	t.Setenv("ALERT_EXPIRY_DAYS", "7")
	t.Cleanup(func() { values = defaultValues() })

	require.NoError(t, loadFromFiles(jsonPath, envPath))

	assert.Equal(t, "9100", get("APP_PORT", ""), ".env beats app.json")
	assert.Equal(t, "postgres", get("DB_DRIVER", ""))
	assert.Equal(t, "7", get("ALERT_EXPIRY_DAYS", ""), "process env beats both files")
	assert.Equal(t, "boss@example.com", get("MANAGER_EMAIL", ""))
}

func TestLoadToleratesMissingFiles(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { values = defaultValues() })
	assert.NoError(t, loadFromFiles(filepath.Join(dir, "none.json"), filepath.Join(dir, ".env")))
	assert.Equal(t, defaultAppPort, get("APP_PORT", ""))
}

func TestLoadRejectsBrokenJSON(t *testing.T) {
	dir := t.TempDir()
	err := loadFromFiles(writeFile(t, dir, "app.json", `{`), filepath.Join(dir, ".env"))
	assert.ErrorContains(t, err, "decode")
}

func TestDatabaseDriverFallsBack(t *testing.T) {
	t.Cleanup(func() { Set("DB_DRIVER", defaultDatabaseDriver) })

	Set("DB_DRIVER", "MySQL")
	assert.Equal(t, "mysql", DatabaseDriver())
	assert.Equal(t, defaultMySQLDSN, DatabaseDSN())

	Set("DB_DRIVER", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())
}

func TestTypedAccessors(t *testing.T) {
	t.Cleanup(func() {
		Set("REPORT_CACHE_TTL", "")
		Set("QUEUE_WORKERS", "")
	})

	Set("REPORT_CACHE_TTL", "90s")
	assert.Equal(t, 90*time.Second, ReportCacheTTL())
	Set("REPORT_CACHE_TTL", "soon")
	assert.Equal(t, time.Minute, ReportCacheTTL())

	Set("QUEUE_WORKERS", "x")
	assert.Equal(t, 2, QueueWorkers())
}

func TestS3Settings(t *testing.T) {
	t.Setenv("S3_BUCKET", "shop")
	t.Setenv("S3_PREFIX", "stockroom")
	s := S3()
	assert.Equal(t, "shop", s.Bucket)
	assert.Equal(t, "us-east-1", s.Region)
	assert.Equal(t, "stockroom", s.Prefix)
}
