// Package filestore persists session keys in a single sealed file on disk.
// The whole key/value map is encrypted with ChaCha20-Poly1305 so tokens never
// sit on disk in plaintext.
package filestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/bizpilot/go-auth-client/session/storage"
)

const fileName = "session.dat"

var _ storage.Repo = (*FileStore)(nil)

type FileStore struct {
	path   string
	aead   cipher.AEAD
	values map[string]string
	lock   sync.RWMutex
}

// New opens (or creates) the sealed store under folder. key must be a
// 256-bit ChaCha20-Poly1305 key. A snapshot that fails to unseal is treated
// as absent rather than surfaced: a corrupt or foreign-keyed file must not
// block startup, it just means the user re-authenticates.
func New(folder string, key []byte) (*FileStore, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.Errorf("[filestore.New] key must be %d bytes", chacha20poly1305.KeySize)
	}
	if err := os.MkdirAll(folder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] MkdirAll")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.New] chacha20poly1305.New")
	}

	fs := &FileStore{
		path:   filepath.Join(folder, fileName),
		aead:   aead,
		values: make(map[string]string),
	}
	fs.load()
	return fs, nil
}

func (fs *FileStore) load() {
	sealed, err := os.ReadFile(fs.path)
	if err != nil || len(sealed) < chacha20poly1305.NonceSize {
		return
	}

	nonce := sealed[:chacha20poly1305.NonceSize]
	plaintext, err := fs.aead.Open(nil, nonce, sealed[chacha20poly1305.NonceSize:], nil)
	if err != nil {
		return
	}

	var values map[string]string
	if err := json.Unmarshal(plaintext, &values); err != nil {
		return
	}
	fs.values = values
}

// flush seals the current map and writes it atomically (temp file + rename).
// Callers must hold the write lock.
func (fs *FileStore) flush() error {
	plaintext, err := json.Marshal(fs.values)
	if err != nil {
		return errors.Wrap(err, "[FileStore.flush] Marshal")
	}

	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "[FileStore.flush] rand.Read")
	}
	sealed := append(nonce, fs.aead.Seal(nil, nonce, plaintext, nil)...)

	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.flush] WriteFile")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "[FileStore.flush] Rename")
	}
	return nil
}

func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values[key] = value
	return fs.flush()
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, ok := fs.values[key]; !ok {
		return nil
	}
	delete(fs.values, key)
	return fs.flush()
}

// GenerateKey returns a fresh random 256-bit store key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "[filestore.GenerateKey] rand.Read")
	}
	return key, nil
}
