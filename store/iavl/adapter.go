package iavl

import (
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/iov-one/pledge/store"
)

// default cache size for the iavl tree, in nodes
const cacheSize = 10000

// CommitStore manages an iavl committed state
type CommitStore struct {
	tree *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store with disk backing.
// The data is stored under dir in a leveldb named after name.
func NewCommitStore(dir, name string) CommitStore {
	db := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	tree := iavl.NewMutableTree(db, cacheSize)
	return CommitStore{tree: tree}
}

// MockCommitStore returns a db backed by memory.
// Used for testing, data is lost on exit.
func MockCommitStore() CommitStore {
	db := dbm.NewMemDB()
	tree := iavl.NewMutableTree(db, cacheSize)
	return CommitStore{tree: tree}
}

// Get returns the value at the last committed state.
// Returns nil iff key doesn't exist.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	version := s.tree.Version()
	_, value := s.tree.GetVersioned(key, version)
	return value, nil
}

// Commit the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, err
	}
	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	_, err := s.tree.Load()
	return err
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// CacheWrap gives us a savepoint to perform actions on the working
// tree. Data only hits disk on the next Commit call.
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	ts := treeStore{tree: s.tree}
	return store.NewBTreeCacheWrap(ts, ts.NewBatch(), nil)
}

// treeStore adapts the mutable working tree to the KVStore interface,
// so it can serve as the backing layer of a btree cache wrap.
type treeStore struct {
	tree *iavl.MutableTree
}

var _ store.KVStore = treeStore{}

// Get returns nil iff key doesn't exist. Panics on nil key.
func (s treeStore) Get(key []byte) ([]byte, error) {
	_, value := s.tree.Get(key)
	return value, nil
}

// Has checks if a key exists. Panics on nil key.
func (s treeStore) Has(key []byte) (bool, error) {
	return s.tree.Has(key), nil
}

// Set adds a new value to the working tree
func (s treeStore) Set(key, value []byte) error {
	s.tree.Set(key, value)
	return nil
}

// Delete removes from the working tree
func (s treeStore) Delete(key []byte) error {
	s.tree.Remove(key)
	return nil
}

// NewBatch returns a batch that writes to the working tree on Write
func (s treeStore) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(s)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (s treeStore) Iterator(start, end []byte) (store.Iterator, error) {
	iter := newLazyIterator()
	go func() {
		s.tree.IterateRange(start, end, true, iter.add)
		iter.finish()
	}()
	return iter, nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (s treeStore) ReverseIterator(start, end []byte) (store.Iterator, error) {
	iter := newLazyIterator()
	go func() {
		s.tree.IterateRange(start, end, false, iter.add)
		iter.finish()
	}()
	return iter, nil
}
