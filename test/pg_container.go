package test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jitsucom/sheetloader/logging"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcWait "github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgDefaultPort = "5432/tcp"
	pgUser        = "test"
	pgPassword    = "test"
	pgDatabase    = "test"
	pgSchema      = "public"

	envPostgresPortVariable = "PG_TEST_PORT"
	envTestContainers       = "TEST_CONTAINERS"
)

//PostgresContainer is a Postgres testcontainer
type PostgresContainer struct {
	datasource *sql.DB

	Container testcontainers.Container
	Context   context.Context
	Host      string
	Port      int
	Database  string
	Schema    string
	Username  string
	Password  string
}

//PostgresEnabled returns true if Postgres integration tests can be run:
//either PG_TEST_PORT points to a running Postgres or TEST_CONTAINERS allows starting docker containers
func PostgresEnabled() bool {
	return os.Getenv(envPostgresPortVariable) != "" || os.Getenv(envTestContainers) != ""
}

//NewPostgresContainer creates new Postgres test container if PG_TEST_PORT is not defined. Otherwise uses db at defined port. This logic is required
//for running test at CI environment
func NewPostgresContainer(ctx context.Context) (*PostgresContainer, error) {
	if os.Getenv(envPostgresPortVariable) != "" {
		port, err := strconv.Atoi(os.Getenv(envPostgresPortVariable))
		if err != nil {
			return nil, err
		}

		dataSource, err := openPostgres(ctx, "localhost", port)
		if err != nil {
			return nil, err
		}

		return &PostgresContainer{
			datasource: dataSource,
			Context:    ctx,
			Host:       "localhost",
			Port:       port,
			Schema:     pgSchema,
			Database:   pgDatabase,
			Username:   pgUser,
			Password:   pgPassword,
		}, nil
	}
	dbSettings := make(map[string]string, 0)
	dbSettings["POSTGRES_USER"] = pgUser
	dbSettings["POSTGRES_PASSWORD"] = pgPassword
	dbSettings["POSTGRES_DB"] = pgDatabase
	dbURL := func(port nat.Port) string {
		return fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable", pgUser, pgPassword, port.Port(), pgDatabase)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:12-alpine",
			ExposedPorts: []string{pgDefaultPort},
			Env:          dbSettings,
			WaitingFor:   tcWait.ForSQL(pgDefaultPort, "postgres", dbURL).Timeout(time.Second * 60),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	dataSource, err := openPostgres(ctx, host, port.Int())
	if err != nil {
		container.Terminate(ctx)
		return nil, err
	}

	return &PostgresContainer{
		datasource: dataSource,
		Container:  container,
		Context:    ctx,
		Host:       host,
		Port:       port.Int(),
		Schema:     pgSchema,
		Database:   pgDatabase,
		Username:   pgUser,
		Password:   pgPassword,
	}, nil
}

func openPostgres(ctx context.Context, host string, port int) (*sql.DB, error) {
	connectionString := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, pgDatabase, pgUser, pgPassword)
	dataSource, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}

	if err := dataSource.PingContext(ctx); err != nil {
		dataSource.Close()
		return nil, err
	}

	return dataSource, nil
}

//CountRows returns row count in DB table schema.table
func (pgc *PostgresContainer) CountRows(schema, table string) (int, error) {
	row := pgc.datasource.QueryRowContext(pgc.Context, fmt.Sprintf(`SELECT count(*) from "%s"."%s"`, schema, table))
	var count int
	err := row.Scan(&count)
	return count, err
}

//Close terminates underlying postgres docker container
func (pgc *PostgresContainer) Close() error {
	if pgc.Container != nil {
		if err := pgc.Container.Terminate(pgc.Context); err != nil {
			logging.Errorf("Failed to stop postgres container: %v", err)
		}
	}

	if pgc.datasource != nil {
		if err := pgc.datasource.Close(); err != nil {
			logging.Errorf("failed to close datasource in postgres container: %v", err)
		}
	}

	return nil
}
