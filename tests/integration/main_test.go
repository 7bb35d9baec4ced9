//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bissquit/incident-tracker/api/openapi"
	"github.com/bissquit/incident-tracker/internal/app"
	"github.com/bissquit/incident-tracker/internal/config"
	"github.com/bissquit/incident-tracker/internal/testutil"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

const testAPIKey = "integration-secret"

var (
	testServer    *httptest.Server
	testValidator *testutil.OpenAPIValidator
	testDB        *pgxpool.Pool
)

// newTestClient returns a client that sends the API key and validates
// every response against the OpenAPI document.
func newTestClient(t *testing.T) *testutil.Client {
	t.Helper()
	client := testutil.NewClientWithValidator(testServer.URL, testAPIKey, testValidator)
	client.SetT(t)
	return client
}

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

// run owns every resource so deferred cleanup happens before os.Exit.
func run(m *testing.M) int {
	ctx := context.Background()

	pg, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Printf("start postgres: %v", err)
		return 1
	}
	defer func() {
		if err := pg.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	if err := migrateFromFiles(pg.ConnectionString); err != nil {
		log.Printf("run migrations: %v", err)
		return 1
	}

	application, err := app.New(testConfig(pg))
	if err != nil {
		log.Printf("create app: %v", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown app: %v", err)
		}
	}()

	testDB, err = pgxpool.New(ctx, pg.ConnectionString)
	if err != nil {
		log.Printf("create test db pool: %v", err)
		return 1
	}
	defer testDB.Close()

	testValidator, err = testutil.LoadOpenAPIValidator(openapi.Spec)
	if err != nil {
		log.Printf("load OpenAPI validator: %v", err)
		return 1
	}

	testServer = httptest.NewServer(application.Router())
	defer testServer.Close()

	return m.Run()
}

// migrateFromFiles applies the on-disk migrations, the same files the
// binary embeds.
func migrateFromFiles(dsn string) error {
	migrator, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func testConfig(pg *testutil.PostgresContainer) *config.Config {
	cfg := config.Default()
	cfg.App.APIKey = testAPIKey
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Server.MetricsPort = "0"
	cfg.Log = config.LogConfig{Level: "error", Format: "text"}

	cfg.Database.Name = testutil.PostgresDatabase
	cfg.Database.User = testutil.PostgresUser
	cfg.Database.Password = testutil.PostgresPassword
	cfg.Database.Host = pg.Host
	cfg.Database.Port = pg.Port
	cfg.Database.MaxOpenConns = 5
	cfg.Database.MaxIdleConns = 2
	cfg.Database.ConnectAttempts = 3
	// Schema is already current, so this is a no-op run of the embedded migrations.
	cfg.Database.Migrate = true

	return cfg
}
