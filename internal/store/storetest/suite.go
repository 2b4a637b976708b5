// Package storetest holds the behavioral suite every store.KV implementation must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readingnook/readingnook-server/internal/store"
)

// Run exercises kv against the store.KV contract. newKV must return a fresh, empty store.
func Run(t *testing.T, newKV func(t *testing.T) store.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing key", func(t *testing.T) {
		kv := newKV(t)
		_, err := kv.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, "reading-nook-books-1", []byte(`[{"id":"a"}]`)))

		got, err := kv.Get(ctx, "reading-nook-books-1")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"a"}]`, string(got))
	})

	t.Run("set overwrites", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, "k", []byte("one")))
		require.NoError(t, kv.Set(ctx, "k", []byte("two")))

		got, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("empty value round trips", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, "k", []byte{}))

		got, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, "k", []byte("v")))
		require.NoError(t, kv.Delete(ctx, "k"))

		_, err := kv.Get(ctx, "k")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete missing key", func(t *testing.T) {
		kv := newKV(t)
		assert.NoError(t, kv.Delete(ctx, "never-written"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, "reading-nook-books-1", []byte("one")))
		require.NoError(t, kv.Set(ctx, "reading-nook-books-2", []byte("two")))
		require.NoError(t, kv.Delete(ctx, "reading-nook-books-1"))

		got, err := kv.Get(ctx, "reading-nook-books-2")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("returned bytes are a copy", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.Set(ctx, "k", []byte("abc")))

		got, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		got[0] = 'z'

		again, err := kv.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("cancelled context", func(t *testing.T) {
		kv := newKV(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		assert.Error(t, kv.Set(cctx, "k", []byte("v")))
	})

	t.Run("json helpers", func(t *testing.T) {
		kv := newKV(t)
		type blob struct {
			Name string `json:"name"`
		}
		require.NoError(t, store.SetJSON(ctx, kv, "k", blob{Name: "nook"}))

		var got blob
		require.NoError(t, store.GetJSON(ctx, kv, "k", &got))
		assert.Equal(t, "nook", got.Name)

		require.NoError(t, kv.Set(ctx, "bad", []byte("{not json")))
		err := store.GetJSON(ctx, kv, "bad", &got)
		assert.ErrorIs(t, err, store.ErrCorrupt)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		kv := newKV(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, kv.Set(ctx, fmt.Sprintf("k%d", i), []byte("v")))
			}(i)
		}
		wg.Wait()

		for i := 0; i < 20; i++ {
			_, err := kv.Get(ctx, fmt.Sprintf("k%d", i))
			assert.NoError(t, err)
		}
	})

	t.Run("ping", func(t *testing.T) {
		kv := newKV(t)
		assert.NoError(t, kv.Ping(ctx))
	})
}
