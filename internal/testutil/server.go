// A shared test server setup utility, which simplifies all API tests.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/sadmanHT/porakhela-sync/internal/api"
	"github.com/sadmanHT/porakhela-sync/internal/config"
	"github.com/sadmanHT/porakhela-sync/internal/core"
)

// SetupTestApp wires a core.App around an in-memory database. The content
// path points at a per-test temp directory so download tests can write
// real files.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	database := SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Content.Path = t.TempDir()
	cfg.Download.Workers = 2
	cfg.Cache.AssetTTLDays = 30

	return core.NewApp(cfg, database, "test")
}

// SetupTestServer initializes a full core.App and api.Server for integration testing.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t)
	server := api.NewServer(app)
	return server, app.DB()
}
