package jwtx_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/taskgrove/taskadmin/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, dir string) *jwtx.FileKeyProvider {
	t.Helper()
	return jwtx.NewFileKeyProvider(jwtx.FileKeyProviderOptions{
		Dir:  dir,
		Bits: 2048,
	})
}

func TestFileKeyProvider_GeneratesOnFirstUse(t *testing.T) {
	dir := t.TempDir()
	p := newTestProvider(t, dir)

	key, err := p.PrivateKey()
	require.NoError(t, err)
	require.NotNil(t, key)

	// Both artifacts must exist after generation
	_, err = os.Stat(filepath.Join(dir, "private.key"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "public.key"))
	require.NoError(t, err)

	pub, err := p.PublicKey()
	require.NoError(t, err)
	require.True(t, key.PublicKey.Equal(pub))
}

func TestFileKeyProvider_ReloadReturnsSameKey(t *testing.T) {
	dir := t.TempDir()

	p1 := newTestProvider(t, dir)
	key1, err := p1.PrivateKey()
	require.NoError(t, err)

	// A fresh provider over the same directory decodes byte-identical
	// material instead of generating.
	p2 := newTestProvider(t, dir)
	key2, err := p2.PrivateKey()
	require.NoError(t, err)

	require.True(t, key1.Equal(key2), "fresh artifacts must reload the same key")
}

func TestFileKeyProvider_RegeneratesWhenStale(t *testing.T) {
	dir := t.TempDir()

	p1 := newTestProvider(t, dir)
	key1, err := p1.PrivateKey()
	require.NoError(t, err)
	kid1, err := p1.KeyID()
	require.NoError(t, err)

	// Age the private artifact beyond the staleness threshold
	old := time.Now().Add(-31 * 24 * time.Hour)
	privPath := filepath.Join(dir, "private.key")
	require.NoError(t, os.Chtimes(privPath, old, old))

	p2 := newTestProvider(t, dir)
	key2, err := p2.PrivateKey()
	require.NoError(t, err)
	kid2, err := p2.KeyID()
	require.NoError(t, err)

	require.False(t, key1.Equal(key2), "stale artifact must rotate to a new key")
	require.NotEqual(t, kid1, kid2, "rotation must change the key id")
}

func TestFileKeyProvider_RegeneratesWhenPublicMissing(t *testing.T) {
	dir := t.TempDir()

	p1 := newTestProvider(t, dir)
	key1, err := p1.PrivateKey()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "public.key")))

	p2 := newTestProvider(t, dir)
	key2, err := p2.PrivateKey()
	require.NoError(t, err)

	require.False(t, key1.Equal(key2), "missing public artifact must regenerate the pair")
}

func TestFileKeyProvider_KeyIDTracksArtifactMtime(t *testing.T) {
	dir := t.TempDir()
	p := newTestProvider(t, dir)

	_, err := p.PrivateKey()
	require.NoError(t, err)

	kid, err := p.KeyID()
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dir, "private.key"))
	require.NoError(t, err)
	require.Equal(t, info.ModTime().UnixMilli(),
		mustParseInt64(t, kid), "key id must be the artifact mtime in millis")
}

func TestFileKeyProvider_LoadPicksUpRotation(t *testing.T) {
	dir := t.TempDir()
	p := newTestProvider(t, dir)

	key1, err := p.PrivateKey()
	require.NoError(t, err)

	// Rotate out-of-band by deleting the artifacts, then ask for a reload.
	require.NoError(t, os.Remove(filepath.Join(dir, "private.key")))
	require.NoError(t, os.Remove(filepath.Join(dir, "public.key")))
	require.NoError(t, p.Load())

	key2, err := p.PrivateKey()
	require.NoError(t, err)
	require.False(t, key1.Equal(key2))
}

func TestFileKeyProvider_ConcurrentFirstAccess(t *testing.T) {
	dir := t.TempDir()
	p := newTestProvider(t, dir)

	const workers = 8
	keys := make(chan string, workers)
	for range workers {
		go func() {
			kid, err := p.KeyID()
			require.NoError(t, err)
			keys <- kid
		}()
	}

	first := <-keys
	for range workers - 1 {
		require.Equal(t, first, <-keys, "all callers must observe the same key id")
	}
}

func mustParseInt64(t *testing.T, s string) int64 {
	t.Helper()
	v, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return v
}
