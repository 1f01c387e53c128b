// Package storage defines the durable key/value store the session package
// writes through to. Implementations live in the filestore and redisstore
// subpackages; repofake provides an in-memory store for tests.
package storage

import (
	"context"
	"errors"
)

// Keys the session store persists. The two token keys hold raw token strings;
// the snapshot key holds the serialized identity record and derived flags.
const (
	AccessTokenKey  = "bizpilot.access_token"
	RefreshTokenKey = "bizpilot.refresh_token"
	SnapshotKey     = "bizpilot.session"
)

// ErrNotFound is returned by Get when the key has never been set or has been
// deleted.
var ErrNotFound = errors.New("storage: key not found")

type Repo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
