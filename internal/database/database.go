package database

import (
	"context"
	"errors"
	"fmt"
)

// Sentinels the repositories and the progression service branch on with
// errors.Is. Server messages are folded onto them by classify.
var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is a unique index hit: a replayed activity record id or a
	// second award_unique row for the same user and badge.
	ErrDuplicate = errors.New("duplicate record")

	// ErrConflict is raised by the THROW guards in a progression commit: the
	// stored version moved past the expected one, or a challenge being
	// written is no longer active. The service reloads and retries.
	ErrConflict = errors.New("version conflict")

	// ErrConnection means the store could not be reached. Handlers answer 503.
	ErrConnection = errors.New("database connection error")

	ErrQuery = errors.New("query error")
)

// Database is what the progression, activity, challenge and badge
// repositories need from the store. Query answers one {status, result} map
// per statement so a multi-statement commit or history read can be split by
// position.
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
	// QueryOne answers the first record of the first statement
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
	// Execute is Query for writes whose results nobody reads
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config locates the SurrealDB namespace holding progression state
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

// Endpoint is the websocket RPC address for Host and Port
func (c Config) Endpoint() string {
	return fmt.Sprintf("ws://%s:%s", c.Host, c.Port)
}
