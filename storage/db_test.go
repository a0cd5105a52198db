package storage

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) Storage {
	t.Helper()

	db, err := NewWithPath(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func put(t *testing.T, db Storage, key, value string) {
	t.Helper()

	_, err := db.Update([]byte(key), func([]byte) ([]byte, error) { return []byte(value), nil })
	require.NoError(t, err)
}

func TestUpdateAndGetKey(t *testing.T) {
	db := newTestStorage(t)

	_, err := db.GetKey([]byte("session:1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	put(t, db, "session:1", "a")
	next, err := db.Update([]byte("session:1"), func(current []byte) ([]byte, error) {
		assert.Equal(t, []byte("a"), current)
		return append(current, 'b'), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), next)

	v, err := db.GetKey([]byte("session:1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ab"), v)
}

func TestPrefixQueries(t *testing.T) {
	db := newTestStorage(t)

	put(t, db, "session:1", "a")
	put(t, db, "session:2", "b")
	put(t, db, "other:1", "c")

	items, err := db.GetByPrefix([]byte("session:"))
	require.NoError(t, err)
	assert.Len(t, items, 2)

	total, err := db.CountKeysByPrefix([]byte("session:"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = db.CountKeysByPrefix(nil)
	assert.Error(t, err)
}

func TestUpdateIsAtomic(t *testing.T) {
	db := newTestStorage(t)
	key := []byte("counter")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := db.Update(key, func(current []byte) ([]byte, error) {
				n := 0
				if current != nil {
					n, _ = strconv.Atoi(string(current))
				}
				return []byte(strconv.Itoa(n + 1)), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := db.GetKey(key)
	require.NoError(t, err)
	assert.Equal(t, "10", string(v))
}

func TestInMemory(t *testing.T) {
	db, err := New(&Config{InMemory: true})
	require.NoError(t, err)
	defer db.Close()

	next, err := db.Update([]byte("k"), func(current []byte) ([]byte, error) {
		assert.Nil(t, current)
		return []byte("v"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), next)
	assert.NoError(t, db.Vacuum())
}

func TestBackupAndLoad(t *testing.T) {
	src := newTestStorage(t)
	put(t, src, "session:1", "a")
	put(t, src, "session:2", "b")

	var buf bytes.Buffer
	version, err := src.Backup(context.Background(), &buf, 0)
	require.NoError(t, err)
	assert.NotZero(t, version)

	dst := newTestStorage(t)
	require.NoError(t, dst.Load(context.Background(), &buf))

	total, err := dst.CountKeysByPrefix([]byte("session:"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
