//nolint
package store

import "github.com/iov-one/pledge"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = pledge.ReadOnlyKVStore
type KVStore = pledge.KVStore
type SetDeleter = pledge.SetDeleter
type Batch = pledge.Batch
type Iterator = pledge.Iterator
type CacheableKVStore = pledge.CacheableKVStore
type KVCacheWrap = pledge.KVCacheWrap
type CommitKVStore = pledge.CommitKVStore
type CommitID = pledge.CommitID
type Model = pledge.Model
