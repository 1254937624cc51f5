package main

import (
	"context"

	"github.com/jrsteele09/medihelp-client/internal/config"
	"github.com/jrsteele09/medihelp-client/token"
	"github.com/jrsteele09/medihelp-client/token/filestore"
	"github.com/jrsteele09/medihelp-client/token/memstore"
	"github.com/jrsteele09/medihelp-client/token/redisstore"
)

// newStore opens the configured token store. The returned func releases it.
func newStore(ctx context.Context, c config.StorageConfig) (token.Store, func(), error) {
	switch c.GetTokenStore() {
	case config.RedisTokenStore:
		s, err := redisstore.NewFromURL(ctx, c.GetRedisURL(), redisstore.WithPrefix(c.GetRedisKeyPrefix()))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.MemoryTokenStore:
		return memstore.New(), func() {}, nil
	default:
		s, err := filestore.New(c.GetTokenFile(), filestore.WithEncryptionKey(c.GetTokenEncryptionKey()))
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
