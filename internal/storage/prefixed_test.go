package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedNamespacesKeys(t *testing.T) {
	ctx := context.Background()
	inner := newTestFSDriver(t)
	p := NewPrefixed(inner, "clipboard-data/alice")

	require.NoError(t, p.Put(ctx, "ops/device-a/op1.json", []byte("x"), true))

	got, err := inner.Get(ctx, "clipboard-data/alice/ops/device-a/op1.json")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))

	got, err = p.Get(ctx, "ops/device-a/op1.json")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestPrefixedListStripsNamespace(t *testing.T) {
	ctx := context.Background()
	inner := newTestFSDriver(t)
	p := NewPrefixed(inner, "clipboard-data/alice")

	require.NoError(t, p.Put(ctx, "ops/device-a/op1.json", []byte("x"), true))
	require.NoError(t, p.Put(ctx, "ops/device-a/op2.json", []byte("y"), true))

	metas, err := p.List(ctx, "ops/device-a/")
	require.NoError(t, err)
	require.Len(t, metas, 2)
	for _, meta := range metas {
		assert.NotContains(t, meta.Key, "clipboard-data")
	}
}

func TestPrefixedIsolatesDifferentUsers(t *testing.T) {
	ctx := context.Background()
	inner := newTestFSDriver(t)
	alice := NewPrefixed(inner, "clipboard-data/alice")
	bob := NewPrefixed(inner, "clipboard-data/bob")

	require.NoError(t, alice.Put(ctx, "ops/device-a/op1.json", []byte("alice's"), true))

	metas, err := bob.List(ctx, "ops/")
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestPrefixedEmptyPrefixIsPassthrough(t *testing.T) {
	ctx := context.Background()
	inner := newTestFSDriver(t)
	p := NewPrefixed(inner, "")

	require.NoError(t, p.Put(ctx, "k", []byte("v"), true))
	got, err := inner.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}
