package store

import (
	"bytes"
	"testing"

	"github.com/iov-one/pledge/errors"
)

// makeBase returns the base layer to test caching on top of
func makeBase() CacheableKVStore {
	return MemStore()
}

func assertValue(t *testing.T, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	if err != nil {
		t.Fatalf("cannot get %q: %+v", key, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("unexpected value for %q: want %q, got %q", key, want, got)
	}
	has, err := kv.Has(key)
	if err != nil {
		t.Fatalf("cannot check %q: %+v", key, err)
	}
	if has != (want != nil) {
		t.Fatalf("unexpected has for %q: %v", key, has)
	}
}

// readAll drains the iterator and releases it
func readAll(t *testing.T, iter Iterator) []Model {
	t.Helper()
	defer iter.Release()

	var out []Model
	for {
		key, value, err := iter.Next()
		if err != nil {
			if errors.ErrIteratorDone.Is(err) {
				return out
			}
			t.Fatalf("iteration failure: %+v", err)
		}
		out = append(out, Model{Key: key, Value: value})
	}
}

func TestBTreeCacheGetSet(t *testing.T) {
	base := makeBase()

	k, v := []byte("french"), []byte("fry")
	assertValue(t, base, k, nil)
	if err := base.Set(k, v); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	assertValue(t, base, k, v)

	// now layer another btree on top and make sure we can read
	cache := base.CacheWrap()
	assertValue(t, cache, k, v)

	// writing in cache is not visible in base until write
	k2, v2 := []byte("LA"), []byte("Dodgers")
	if err := cache.Set(k2, v2); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	assertValue(t, cache, k2, v2)
	assertValue(t, base, k2, nil)

	if err := cache.Write(); err != nil {
		t.Fatalf("cannot write cache: %+v", err)
	}
	assertValue(t, base, k2, v2)

	// deleting in a cache hides the value until write
	cache = base.CacheWrap()
	if err := cache.Delete(k); err != nil {
		t.Fatalf("cannot delete: %+v", err)
	}
	assertValue(t, cache, k, nil)
	assertValue(t, base, k, v)

	if err := cache.Write(); err != nil {
		t.Fatalf("cannot write cache: %+v", err)
	}
	assertValue(t, base, k, nil)
}

func TestBTreeCacheDiscard(t *testing.T) {
	base := makeBase()
	k, v := []byte("a"), []byte("1")
	if err := base.Set(k, v); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}

	cache := base.CacheWrap()
	if err := cache.Set([]byte("b"), []byte("2")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	if err := cache.Delete(k); err != nil {
		t.Fatalf("cannot delete: %+v", err)
	}
	cache.Discard()

	assertValue(t, base, k, v)
	assertValue(t, base, []byte("b"), nil)
}

func TestBTreeCacheIterator(t *testing.T) {
	base := makeBase()
	for _, m := range []Model{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("c"), Value: []byte("3")},
		{Key: []byte("e"), Value: []byte("5")},
	} {
		if err := base.Set(m.Key, m.Value); err != nil {
			t.Fatalf("cannot set: %+v", err)
		}
	}

	cache := base.CacheWrap()
	// overwrite, insert and delete in the cache layer
	if err := cache.Set([]byte("c"), []byte("33")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	if err := cache.Set([]byte("d"), []byte("4")); err != nil {
		t.Fatalf("cannot set: %+v", err)
	}
	if err := cache.Delete([]byte("a")); err != nil {
		t.Fatalf("cannot delete: %+v", err)
	}

	iter, err := cache.Iterator(nil, nil)
	if err != nil {
		t.Fatalf("cannot create iterator: %+v", err)
	}
	got := readAll(t, iter)
	want := []Model{
		{Key: []byte("c"), Value: []byte("33")},
		{Key: []byte("d"), Value: []byte("4")},
		{Key: []byte("e"), Value: []byte("5")},
	}
	assertModels(t, want, got)

	riter, err := cache.ReverseIterator(nil, nil)
	if err != nil {
		t.Fatalf("cannot create reverse iterator: %+v", err)
	}
	got = readAll(t, riter)
	want = []Model{
		{Key: []byte("e"), Value: []byte("5")},
		{Key: []byte("d"), Value: []byte("4")},
		{Key: []byte("c"), Value: []byte("33")},
	}
	assertModels(t, want, got)
}

func TestBTreeCacheIteratorRange(t *testing.T) {
	base := makeBase()
	for _, m := range []Model{
		{Key: []byte("ab"), Value: []byte("1")},
		{Key: []byte("ac"), Value: []byte("2")},
		{Key: []byte("ba"), Value: []byte("3")},
	} {
		if err := base.Set(m.Key, m.Value); err != nil {
			t.Fatalf("cannot set: %+v", err)
		}
	}

	iter, err := base.Iterator([]byte("ab"), []byte("b"))
	if err != nil {
		t.Fatalf("cannot create iterator: %+v", err)
	}
	got := readAll(t, iter)
	want := []Model{
		{Key: []byte("ab"), Value: []byte("1")},
		{Key: []byte("ac"), Value: []byte("2")},
	}
	assertModels(t, want, got)
}

func assertModels(t *testing.T, want, got []Model) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("want %d models, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !bytes.Equal(want[i].Key, got[i].Key) {
			t.Errorf("model %d: want key %q, got %q", i, want[i].Key, got[i].Key)
		}
		if !bytes.Equal(want[i].Value, got[i].Value) {
			t.Errorf("model %d: want value %q, got %q", i, want[i].Value, got[i].Value)
		}
	}
}
