// Package filestore persists the token pair as a JSON file, optionally sealed
// with NaCl secretbox so the tokens are not readable at rest.
package filestore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/jrsteele09/medihelp-client/token"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var _ token.Store = (*FileStore)(nil)

type FileStore struct {
	path string
	key  *[keySize]byte
	lock sync.Mutex
}

type Option func(*FileStore) error

// WithEncryptionKey seals the file with a hex encoded 32 byte key
func WithEncryptionKey(hexKey string) Option {
	return func(fs *FileStore) error {
		if hexKey == "" {
			return nil
		}
		raw, err := hex.DecodeString(hexKey)
		if err != nil {
			return fmt.Errorf("[filestore.WithEncryptionKey] invalid key hex: %w", err)
		}
		if len(raw) != keySize {
			return fmt.Errorf("[filestore.WithEncryptionKey] key must be %d bytes, got %d", keySize, len(raw))
		}
		fs.key = new([keySize]byte)
		copy(fs.key[:], raw)
		return nil
	}
}

func New(path string, options ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("[filestore.New] path is required")
	}
	fs := &FileStore{path: path}
	for _, opt := range options {
		if err := opt(fs); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	items, err := fs.read()
	if err != nil {
		return "", err
	}
	return items[key], nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	items, err := fs.read()
	if err != nil {
		return err
	}
	items[key] = value
	return fs.write(items)
}

func (fs *FileStore) Remove(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	items, err := fs.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	if len(items) == 0 {
		if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
			return apperrors.Wrapf(err, "[FileStore.Remove] remove %s", fs.path)
		}
		return nil
	}
	return fs.write(items)
}

func (fs *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FileStore.read] %s", fs.path)
	}

	if fs.key != nil {
		if data, err = fs.open(data); err != nil {
			return nil, err
		}
	}

	items := map[string]string{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, apperrors.Wrapf(err, "[FileStore.read] decode %s", fs.path)
	}
	return items, nil
}

func (fs *FileStore) write(items map[string]string) error {
	data, err := json.Marshal(items)
	if err != nil {
		return apperrors.Wrapf(err, "[FileStore.write] encode")
	}
	if fs.key != nil {
		if data, err = fs.seal(data); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return apperrors.Wrapf(err, "[FileStore.write] mkdir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".tokens-*")
	if err != nil {
		return apperrors.Wrapf(err, "[FileStore.write] create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.Wrapf(err, "[FileStore.write] write temp file")
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Wrapf(err, "[FileStore.write] close temp file")
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return apperrors.Wrapf(err, "[FileStore.write] chmod")
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return apperrors.Wrapf(err, "[FileStore.write] rename")
	}
	return nil
}

// seal returns hex(nonce || secretbox(data))
func (fs *FileStore) seal(data []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, apperrors.Wrapf(err, "[FileStore.seal] generate nonce")
	}
	sealed := secretbox.Seal(nonce[:], data, &nonce, fs.key)
	out := make([]byte, hex.EncodedLen(len(sealed)))
	hex.Encode(out, sealed)
	return out, nil
}

func (fs *FileStore) open(data []byte) ([]byte, error) {
	raw := make([]byte, hex.DecodedLen(len(data)))
	n, err := hex.Decode(raw, data)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[FileStore.open] %s is not sealed", fs.path)
	}
	raw = raw[:n]
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("[FileStore.open] %s: ciphertext too short", fs.path)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, fs.key)
	if !ok {
		return nil, fmt.Errorf("[FileStore.open] %s: decryption failed", fs.path)
	}
	return plain, nil
}
