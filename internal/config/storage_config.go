package config

import (
	"os"
	"path/filepath"
	"strings"
)

type TokenStoreType string

const (
	FileTokenStore   TokenStoreType = "file"
	RedisTokenStore  TokenStoreType = "redis"
	MemoryTokenStore TokenStoreType = "memory"
)

type StorageConfig interface {
	GetTokenStore() TokenStoreType
	GetTokenFile() string
	GetTokenEncryptionKey() string
	GetRedisURL() string
	GetRedisKeyPrefix() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetTokenStore() TokenStoreType {
	switch s := TokenStoreType(strings.ToLower(GetEnv("TOKEN_STORE", string(FileTokenStore)))); s {
	case FileTokenStore, RedisTokenStore, MemoryTokenStore:
		return s
	default:
		return FileTokenStore
	}
}

func (Storage) GetTokenFile() string {
	if f := os.Getenv("TOKEN_FILE"); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".medihelp", "tokens.json")
	}
	return filepath.Join(home, ".medihelp", "tokens.json")
}

// GetTokenEncryptionKey is a hex encoded 32 byte key. Empty means tokens are stored in plain text.
func (Storage) GetTokenEncryptionKey() string {
	return GetEnv("TOKEN_ENCRYPTION_KEY", "")
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

func (Storage) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "medihelp:")
}
