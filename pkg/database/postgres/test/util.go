package test

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v4/stdlib" //nolint:revive

	"github.com/code-payments/pda-provisioner/pkg/retry"
	"github.com/code-payments/pda-provisioner/pkg/retry/backoff"
)

const (
	image    = "postgres"
	imageTag = "16-alpine"

	// Containers are killed after this long, even if the test binary dies
	// before cleaning up.
	containerTTL = 2 * time.Minute

	user     = "localtest"
	password = "localpassword"
	dbname   = "testdb"
)

// StartPostgresDB runs a disposable postgres container, waits for it to accept
// connections and applies the provided schema statements in order.
func StartPostgresDB(pool *dockertest.Pool, schema ...string) (*sql.DB, func(), error) {
	log := logrus.StandardLogger().WithField("type", "postgres/test")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        imageTag,
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbname,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, func() {}, errors.Wrap(err, "failed to start postgres container")
	}

	closeFunc := func() {
		if err := pool.Purge(resource); err != nil {
			log.WithError(err).Warn("failed to purge postgres container")
		}
	}

	// Expire never returns an error.
	_ = resource.Expire(uint(containerTTL.Seconds()))

	url := fmt.Sprintf(
		"postgres://%s:%s@%s/%s?sslmode=disable",
		user,
		password,
		resource.GetHostPort("5432/tcp"),
		dbname,
	)

	var db *sql.DB
	_, err = retry.Retry(
		func() error {
			db, err = sql.Open("pgx", url)
			if err != nil {
				return err
			}
			return db.Ping()
		},
		retry.Limit(60),
		retry.Backoff(backoff.Constant(500*time.Millisecond), time.Second),
	)
	if err != nil {
		closeFunc()
		return nil, func() {}, errors.Wrap(err, "timed out waiting for postgres container")
	}

	for _, statement := range schema {
		if _, err := db.Exec(statement); err != nil {
			db.Close()
			closeFunc()
			return nil, func() {}, errors.Wrap(err, "failed to apply schema")
		}
	}

	return db, closeFunc, nil
}

// ResetTables truncates the provided tables and restarts their id sequences.
func ResetTables(db *sql.DB, tables ...string) error {
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY", table)); err != nil {
			return errors.Wrapf(err, "failed to truncate %s", table)
		}
	}
	return nil
}
