package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/renameio"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

const (
	saltFile     = "vault.salt"
	keyCheckFile = "vault.check"
	scopePrefix  = "field-"
	blobSuffix   = ".blob"
)

// keyCheckPlaintext is sealed into vault.check on first open. Reopening
// with another passphrase fails to authenticate it.
var keyCheckPlaintext = []byte("fuzzymatch vault v1")

// Vault is an encrypted, field-scoped blob store rooted at a directory.
// Each field gets its own scope directory; blobs are zstd-compressed and
// sealed with XChaCha20-Poly1305 under a key derived by Argon2id.
// A Vault is safe for concurrent use by multiple goroutines.
type Vault struct {
	mu     sync.RWMutex
	root   string
	aead   cipher.AEAD
	lock   *FileLock
	logger *slog.Logger
	closed bool
}

// VaultOption configures a Vault.
type VaultOption func(*Vault)

// WithVaultLogger sets the logger used for vault events.
func WithVaultLogger(l *slog.Logger) VaultOption {
	return func(v *Vault) {
		if l != nil {
			v.logger = l
		}
	}
}

// OpenVault opens (or initializes) the vault at root using passphrase.
// Returns ERR_105 when the passphrase is empty and ERR_207 when it does not
// match the one the vault was created with.
func OpenVault(root, passphrase string, opts ...VaultOption) (*Vault, error) {
	if passphrase == "" {
		return nil, fmerrors.New(fmerrors.ErrCodeEncryptionKeyMissing, "encryption key is required", nil).
			WithSuggestion("Set FUZZYMATCH_ENCRYPTION_KEY or storage.encryption_key")
	}

	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmerrors.IOError("failed to create storage root", err).WithDetail(fmerrors.DetailPath, root)
	}

	v := &Vault{
		root:   root,
		lock:   NewFileLock(root),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}

	salt, err := v.loadOrCreateSalt()
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(passphrase, salt)
	if err != nil {
		return nil, fmerrors.InternalError("failed to initialize cipher", err)
	}
	v.aead = aead

	if err := v.verifyKey(); err != nil {
		return nil, err
	}

	return v, nil
}

// VaultExists reports whether root holds an initialized vault.
func VaultExists(root string) bool {
	_, err := os.Stat(filepath.Join(root, keyCheckFile))
	return err == nil
}

// loadOrCreateSalt reads the per-vault salt, writing a fresh one on first use.
func (v *Vault) loadOrCreateSalt() ([]byte, error) {
	path := filepath.Join(v.root, saltFile)

	salt, err := os.ReadFile(path)
	if err == nil {
		if len(salt) != saltSize {
			return nil, fmerrors.New(fmerrors.ErrCodeCorruptIndex, "vault salt is corrupt", nil).
				WithDetail(fmerrors.DetailPath, path)
		}
		return salt, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmerrors.IOError("failed to read vault salt", err).WithDetail(fmerrors.DetailPath, path)
	}

	salt = make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmerrors.InternalError("failed to generate salt", err)
	}
	if err := renameio.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmerrors.IOError("failed to write vault salt", err).WithDetail(fmerrors.DetailPath, path)
	}
	return salt, nil
}

// verifyKey checks the sealed marker, creating it on first open.
func (v *Vault) verifyKey() error {
	path := filepath.Join(v.root, keyCheckFile)
	ad := []byte(keyCheckFile)

	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		sealed, err := seal(v.aead, keyCheckPlaintext, ad)
		if err != nil {
			return fmerrors.InternalError("failed to seal key check", err)
		}
		if err := renameio.WriteFile(path, sealed, 0o600); err != nil {
			return fmerrors.IOError("failed to write key check", err).WithDetail(fmerrors.DetailPath, path)
		}
		return nil
	}
	if err != nil {
		return fmerrors.IOError("failed to read key check", err).WithDetail(fmerrors.DetailPath, path)
	}

	plain, err := open(v.aead, blob, ad)
	if err != nil || string(plain) != string(keyCheckPlaintext) {
		return fmerrors.New(fmerrors.ErrCodeKeyMismatch, "encryption key does not open this storage", err).
			WithDetail(fmerrors.DetailPath, v.root).
			WithSuggestion("Use the key the indices were created with, or delete the storage directory")
	}
	return nil
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// ScopeDir returns the directory holding field's blobs. Field names are
// hashed so arbitrary column names map to safe, fixed-length directory names.
func (v *Vault) ScopeDir(field string) string {
	sum := sha256.Sum256([]byte(field))
	return filepath.Join(v.root, scopePrefix+hex.EncodeToString(sum[:])[:16])
}

func (v *Vault) blobPath(field, name string) string {
	return filepath.Join(v.ScopeDir(field), name+blobSuffix)
}

// blobAD binds a sealed blob to its field and name.
func blobAD(field, name string) []byte {
	return []byte(field + "\x00" + name)
}

// Put seals data and writes it atomically as blob name in field's scope,
// replacing any previous content. Returns the number of bytes written.
func (v *Vault) Put(ctx context.Context, field, name string, data []byte) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return 0, ErrClosed
	}

	sealed, err := seal(v.aead, data, blobAD(field, name))
	if err != nil {
		return 0, fmt.Errorf("seal %s: %w", name, err)
	}

	dir := v.ScopeDir(field)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return 0, fmt.Errorf("create scope: %w", err)
	}
	if err := renameio.WriteFile(v.blobPath(field, name), sealed, 0o600); err != nil {
		return 0, fmt.Errorf("write %s: %w", name, err)
	}

	v.logger.Debug("vault_put",
		slog.String("scope", filepath.Base(dir)),
		slog.String("blob", name),
		slog.Int("bytes", len(sealed)))

	return int64(len(sealed)), nil
}

// Get reads and opens blob name from field's scope.
// Returns ErrNotFound when the blob does not exist and an ERR_205 error when
// it exists but cannot be authenticated or decoded.
func (v *Vault) Get(ctx context.Context, field, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, ErrClosed
	}

	path := v.blobPath(field, name)
	blob, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	data, err := open(v.aead, blob, blobAD(field, name))
	if err != nil {
		return nil, fmerrors.New(fmerrors.ErrCodeCorruptIndex, "field index cannot be decoded", err).
			WithField(field).
			WithSuggestion("Run 'fuzzymatch create' to rebuild the indices")
	}
	return data, nil
}

// Remove deletes field's scope and every blob in it.
// Removing an absent scope is not an error.
func (v *Vault) Remove(ctx context.Context, field string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return ErrClosed
	}

	if err := os.RemoveAll(v.ScopeDir(field)); err != nil {
		return fmt.Errorf("remove scope: %w", err)
	}
	return nil
}

// Scopes returns the directory names of all field scopes present on disk.
func (v *Vault) Scopes() ([]string, error) {
	entries, err := os.ReadDir(v.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}

	var scopes []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), scopePrefix) {
			scopes = append(scopes, e.Name())
		}
	}
	return scopes, nil
}

// Lock takes the cross-process exclusive lock on the storage root, waiting
// until ctx is done. The returned func releases it.
func (v *Vault) Lock(ctx context.Context) (func(), error) {
	acquired, err := v.lock.LockContext(ctx)
	if err != nil {
		return nil, fmerrors.IOError("failed to lock storage", err).WithDetail(fmerrors.DetailPath, v.lock.Path())
	}
	if !acquired {
		return nil, fmerrors.New(fmerrors.ErrCodeStorageLocked, "storage is locked by another process", ctx.Err()).
			WithDetail(fmerrors.DetailPath, v.lock.Path()).
			WithSuggestion("Wait for the other create or delete to finish")
	}

	return func() {
		if err := v.lock.Unlock(); err != nil {
			v.logger.Warn("vault_unlock_failed", slog.String("error", err.Error()))
		}
	}, nil
}

// Close releases the vault. Further calls fail with ErrClosed.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil
	}
	v.closed = true
	return v.lock.Unlock()
}
