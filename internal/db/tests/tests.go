package tests

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/scrolluniversity/certificate-node/internal/db"
	"github.com/scrolluniversity/certificate-node/internal/db/schema"
	"github.com/scrolluniversity/certificate-node/pkg/rand"
)

const setupTimeout = 40 * time.Second

// NewTestStorage creates a throwaway database next to serverURL, migrates it and connects to it.
// The returned teardown closes the connection and drops the database. It is never nil.
func NewTestStorage(serverURL string) (*db.Storage, func(), error) {
	noop := func() {}
	if serverURL == "" {
		return nil, noop, errors.New("testdb: no connection string")
	}

	suffix, err := rand.HexID("", 6)
	if err != nil {
		return nil, noop, err
	}
	name := "certificates_test_" + strings.ToLower(suffix)
	dbURL, err := url.Parse(strings.TrimSuffix(serverURL, "/") + "/" + name + "?sslmode=disable")
	if err != nil {
		return nil, noop, errors.Wrap(err, "testdb: invalid connection string")
	}

	admin, err := db.NewStorage(serverURL)
	if err != nil {
		return nil, noop, errors.Wrap(err, "testdb: connecting to server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	if _, err := admin.Pgx.Exec(ctx, fmt.Sprintf(`CREATE DATABASE "%s"`, name)); err != nil {
		_ = admin.Close()
		return nil, noop, errors.Wrapf(err, "testdb: creating %s", name)
	}

	drop := func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), setupTimeout)
		defer dropCancel()
		_, _ = admin.Pgx.Exec(dropCtx, fmt.Sprintf(`DROP DATABASE IF EXISTS "%s" WITH (FORCE)`, name))
		_ = admin.Close()
	}

	if _, err := schema.Migrate(dbURL.String()); err != nil {
		drop()
		return nil, noop, errors.Wrap(err, "testdb: migrating")
	}

	storage, err := db.NewStorage(dbURL.String())
	if err != nil {
		drop()
		return nil, noop, errors.Wrap(err, "testdb: connecting to test database")
	}

	return storage, func() {
		_ = storage.Close()
		drop()
	}, nil
}
