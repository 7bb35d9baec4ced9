package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Credentials of the test database.
const (
	PostgresDatabase = "incidents"
	PostgresUser     = "tracker"
	PostgresPassword = "tracker"
)

// defaultPostgresImage is used unless POSTGRES_TEST_IMAGE overrides it.
const defaultPostgresImage = "postgres:16-alpine"

// PostgresContainer is a disposable PostgreSQL server. ConnectionString is a
// ready-to-use DSN; Host and Port are exposed for configs that build their own.
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnectionString string
	Host             string
	Port             int
}

// NewPostgresContainer starts PostgreSQL and waits until it accepts connections.
// The caller must Terminate it.
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	image := os.Getenv("POSTGRES_TEST_IMAGE")
	if image == "" {
		image = defaultPostgresImage
	}

	// The server logs readiness twice: once for the init run, once for real.
	ready := wait.ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(30 * time.Second)

	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase(PostgresDatabase),
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		testcontainers.WithWaitStrategy(ready),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}

	pc := &PostgresContainer{PostgresContainer: container}
	if err := pc.resolveEndpoints(ctx); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return pc, nil
}

func (c *PostgresContainer) resolveEndpoints(ctx context.Context) error {
	dsn, err := c.PostgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("get connection string: %w", err)
	}

	host, err := c.PostgresContainer.Host(ctx)
	if err != nil {
		return fmt.Errorf("get container host: %w", err)
	}

	port, err := c.PostgresContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return fmt.Errorf("get mapped port: %w", err)
	}

	c.ConnectionString = dsn
	c.Host = host
	c.Port = port.Int()
	return nil
}
