package config

type StorageConfig interface {
	GetStorageBackend() string
	GetDataFolder() string
	GetSnapshotKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Storage struct{}

var _ StorageConfig = Storage{}

// GetStorageBackend selects the durable session store: "file" or "redis".
func (Storage) GetStorageBackend() string {
	return GetEnv("STORAGE_BACKEND", "file")
}

func (Storage) GetDataFolder() string {
	return GetEnv("DATA_FOLDER", "./data")
}

// GetSnapshotKey returns the hex-encoded 256-bit key used to seal the on-disk
// session snapshot. Empty means the file store generates and persists one.
func (Storage) GetSnapshotKey() string {
	return GetEnv("SNAPSHOT_KEY", "")
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Storage) GetRedisDB() int {
	return 0
}
