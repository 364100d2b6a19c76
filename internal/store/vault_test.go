package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fmerrors "github.com/Aman-CERP/fuzzymatch/internal/errors"
)

func openTestVault(t *testing.T, root string) *Vault {
	t.Helper()
	v, err := OpenVault(root, "correct horse battery staple")
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func TestVault_PutGet_RoundTrip(t *testing.T) {
	// Given: a fresh vault
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()
	payload := []byte("alice,bob,carol")

	// When: writing and reading a blob
	n, err := v.Put(ctx, "name", "index", payload)
	require.NoError(t, err)

	got, err := v.Get(ctx, "name", "index")

	// Then: the plaintext round-trips and the size is reported
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Greater(t, n, int64(0))
}

func TestVault_Put_ReplacesContent(t *testing.T) {
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()

	_, err := v.Put(ctx, "name", "index", []byte("first"))
	require.NoError(t, err)
	_, err = v.Put(ctx, "name", "index", []byte("second"))
	require.NoError(t, err)

	got, err := v.Get(ctx, "name", "index")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestVault_BlobsAreNotPlaintext(t *testing.T) {
	// Given: a blob containing a recognizable value
	v := openTestVault(t, t.TempDir())
	secret := []byte("jane.doe@example.com jane.doe@example.com")
	_, err := v.Put(context.Background(), "email", "index", secret)
	require.NoError(t, err)

	// When: reading the raw file
	raw, err := os.ReadFile(filepath.Join(v.ScopeDir("email"), "index"+blobSuffix))
	require.NoError(t, err)

	// Then: the value does not appear on disk
	assert.False(t, bytes.Contains(raw, []byte("jane.doe")))
	assert.True(t, bytes.HasPrefix(raw, blobMagic))
}

func TestVault_Get_Missing(t *testing.T) {
	v := openTestVault(t, t.TempDir())

	_, err := v.Get(context.Background(), "name", "index")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVault_ScopesAreDisjoint(t *testing.T) {
	// Given: two fields writing the same blob name
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()
	_, err := v.Put(ctx, "name", "index", []byte("names"))
	require.NoError(t, err)
	_, err = v.Put(ctx, "city", "index", []byte("cities"))
	require.NoError(t, err)

	// When: removing one scope
	require.NoError(t, v.Remove(ctx, "name"))

	// Then: the other is untouched
	_, err = v.Get(ctx, "name", "index")
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := v.Get(ctx, "city", "index")
	require.NoError(t, err)
	assert.Equal(t, []byte("cities"), got)
	assert.NotEqual(t, v.ScopeDir("name"), v.ScopeDir("city"))
}

func TestVault_Remove_AbsentScopeIsNoop(t *testing.T) {
	v := openTestVault(t, t.TempDir())

	assert.NoError(t, v.Remove(context.Background(), "never-built"))
}

func TestVault_Scopes_ListsFieldDirectories(t *testing.T) {
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()
	_, err := v.Put(ctx, "name", "index", []byte("x"))
	require.NoError(t, err)
	_, err = v.Put(ctx, "city", "index", []byte("y"))
	require.NoError(t, err)

	scopes, err := v.Scopes()

	require.NoError(t, err)
	assert.Len(t, scopes, 2)
}

func TestVault_WrongKeyRejected(t *testing.T) {
	// Given: a vault created with one key
	root := t.TempDir()
	v, err := OpenVault(root, "first key")
	require.NoError(t, err)
	require.NoError(t, v.Close())

	// When: reopening with another key
	_, err = OpenVault(root, "second key")

	// Then: the key check fails fast
	require.Error(t, err)
	assert.Equal(t, fmerrors.ErrCodeKeyMismatch, fmerrors.GetCode(err))
}

func TestVault_SameKeyReopens(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	v, err := OpenVault(root, "k")
	require.NoError(t, err)
	_, err = v.Put(ctx, "name", "index", []byte("persisted"))
	require.NoError(t, err)
	require.NoError(t, v.Close())

	v2, err := OpenVault(root, "k")
	require.NoError(t, err)
	defer v2.Close()

	got, err := v2.Get(ctx, "name", "index")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestVault_EmptyKeyRejected(t *testing.T) {
	_, err := OpenVault(t.TempDir(), "")

	require.Error(t, err)
	assert.Equal(t, fmerrors.ErrCodeEncryptionKeyMissing, fmerrors.GetCode(err))
}

func TestVault_Get_TamperedBlobIsCorrupt(t *testing.T) {
	// Given: a blob whose ciphertext is flipped on disk
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()
	_, err := v.Put(ctx, "name", "index", []byte("payload"))
	require.NoError(t, err)

	path := filepath.Join(v.ScopeDir("name"), "index"+blobSuffix)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	// When: reading it back
	_, err = v.Get(ctx, "name", "index")

	// Then: authentication fails with a corrupt-index error naming the field
	require.Error(t, err)
	assert.Equal(t, fmerrors.ErrCodeCorruptIndex, fmerrors.GetCode(err))
	assert.Equal(t, "name", fmerrors.GetField(err))
}

func TestVault_Get_BlobMovedBetweenFieldsFails(t *testing.T) {
	// Given: a blob copied from one field scope into another
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()
	_, err := v.Put(ctx, "name", "index", []byte("names"))
	require.NoError(t, err)
	_, err = v.Put(ctx, "city", "index", []byte("cities"))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(v.ScopeDir("name"), "index"+blobSuffix))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(v.ScopeDir("city"), "index"+blobSuffix), raw, 0o600))

	// Then: the associated data no longer matches
	_, err = v.Get(ctx, "city", "index")
	assert.Equal(t, fmerrors.ErrCodeCorruptIndex, fmerrors.GetCode(err))
}

func TestVault_ClosedHandleFails(t *testing.T) {
	v, err := OpenVault(t.TempDir(), "k")
	require.NoError(t, err)
	require.NoError(t, v.Close())
	require.NoError(t, v.Close())

	_, err = v.Put(context.Background(), "name", "index", nil)
	assert.True(t, errors.Is(err, ErrClosed))
	_, err = v.Get(context.Background(), "name", "index")
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestVault_ConcurrentPutGet(t *testing.T) {
	v := openTestVault(t, t.TempDir())
	ctx := context.Background()
	fields := []string{"a", "b", "c", "d", "e", "f"}

	var wg sync.WaitGroup
	for _, f := range fields {
		wg.Add(1)
		go func(field string) {
			defer wg.Done()
			_, err := v.Put(ctx, field, "index", []byte(field))
			assert.NoError(t, err)
			got, err := v.Get(ctx, field, "index")
			assert.NoError(t, err)
			assert.Equal(t, []byte(field), got)
		}(f)
	}
	wg.Wait()
}

func TestVault_Lock_SecondHolderTimesOut(t *testing.T) {
	// Given: one handle holding the storage lock
	root := t.TempDir()
	v1 := openTestVault(t, root)
	v2 := openTestVault(t, root)

	unlock, err := v1.Lock(context.Background())
	require.NoError(t, err)

	// When: another handle tries with a short deadline
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = v2.Lock(ctx)

	// Then: it reports the storage as locked
	require.Error(t, err)
	assert.Equal(t, fmerrors.ErrCodeStorageLocked, fmerrors.GetCode(err))

	// And: after release the lock can be taken
	unlock()
	unlock2, err := v2.Lock(context.Background())
	require.NoError(t, err)
	unlock2()
}

func TestVaultExists(t *testing.T) {
	root := filepath.Join(t.TempDir(), "storage")
	assert.False(t, VaultExists(root))

	openTestVault(t, root)

	assert.True(t, VaultExists(root))
}
