package repofake

import (
	"context"
	"sync"

	"github.com/bizpilot/go-auth-client/session/storage"
)

var _ storage.Repo = (*FakeStorageRepo)(nil)

// FakeStorageRepo is an in-memory storage.Repo for tests. SetErr and GetErr,
// when non-nil, are returned by every write or read respectively.
type FakeStorageRepo struct {
	values map[string]string
	lock   sync.RWMutex

	SetErr error
	GetErr error
}

func NewFakeStorageRepo() *FakeStorageRepo {
	return &FakeStorageRepo{
		values: make(map[string]string),
	}
}

func (sr *FakeStorageRepo) Get(_ context.Context, key string) (string, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	if sr.GetErr != nil {
		return "", sr.GetErr
	}
	value, ok := sr.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (sr *FakeStorageRepo) Set(_ context.Context, key, value string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.SetErr != nil {
		return sr.SetErr
	}
	sr.values[key] = value
	return nil
}

func (sr *FakeStorageRepo) Delete(_ context.Context, key string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.SetErr != nil {
		return sr.SetErr
	}
	delete(sr.values, key)
	return nil
}

// Len reports how many keys are currently stored.
func (sr *FakeStorageRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.values)
}
