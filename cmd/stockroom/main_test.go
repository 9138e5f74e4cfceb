package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup points the CLI at a fresh sqlite file and a temporary storage disk.
func setup(t *testing.T) (dir string, outbox *testkit.MailRecorder) {
	t.Helper()
	dir = t.TempDir()
	config.Set("DB_DRIVER", "sqlite")
	config.Set("DATABASE_DSN", filepath.Join(dir, "stockroom.db"))
	config.Set("STORAGE_DISK", "local")
	config.Set("STORAGE_LOCAL_ROOT", filepath.Join(dir, "storage"))
	config.Set("MANAGER_EMAIL", "manager@example.com")

	outbox = &testkit.MailRecorder{}
	mail.SetDefault(outbox)
	t.Cleanup(func() { mail.SetDefault(nil) })
	return dir, outbox
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestImportExportAndAlerts(t *testing.T) {
	dir, outbox := setup(t)

	_, err := run(t, "migrate")
	require.NoError(t, err)

	csvPath := filepath.Join(dir, "products.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"Name,Description,Quantity,Category,Suppliers\n"+
			"Widget,Blue widget,2,Hardware,Acme\n"+
			"Gadget,,40,Hardware,\"Acme, Globex\"\n"+
			"Broken,,lots,,\n"), 0o644))

	out, err := run(t, "products:import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Created: 2  Updated: 0  Rejected: 1")
	assert.Contains(t, out, "line 4:")

	out, err = run(t, "products:export", "--format", "csv", "--output", "-", "--store=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Name,Description,Quantity,Category,Suppliers")
	assert.Contains(t, out, `Gadget,,40,Hardware,"Acme, Globex"`)

	out, err = run(t, "alerts:send", "--expiry-days", "30", "--force=false", "--queue=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Low stock alerts sent: 1")
	require.Len(t, outbox.Sent(), 1)
	assert.Equal(t, []string{"manager@example.com"}, outbox.Sent()[0].Recipients())

	// Debounced: the second run sends nothing.
	out, err = run(t, "alerts:send")
	require.NoError(t, err)
	assert.Contains(t, out, "Low stock alerts sent: 0")
	assert.Len(t, outbox.Sent(), 1)
}

func TestExportStoresOnDisk(t *testing.T) {
	dir, _ := setup(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	_, err = run(t, "products:export", "--format", "xlsx", "--output", "", "--store")
	require.NoError(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, "storage", "exports", "products-*.xlsx"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	_, err := run(t, "products:export", "--format", "pdf", "--store=false")
	assert.ErrorContains(t, err, `unknown format "pdf"`)
}

func TestRouteList(t *testing.T) {
	out, err := run(t, "route:list")
	require.NoError(t, err)
	assert.Contains(t, out, "/api/products/{id}")
	assert.Contains(t, out, "alerts.run")
	assert.Contains(t, out, "/metrics")
	assert.Regexp(t, `POST\s+/api/alerts/run\s+alerts.run\s+staff`, out)
	assert.Regexp(t, `GET\s+/api/stock/low\s+stock.low\s+user`, out)
}
