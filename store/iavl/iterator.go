package iavl

import (
	"sync"

	"github.com/iov-one/pledge/errors"
	"github.com/iov-one/pledge/store"
)

// lazyIterator pulls models from the tree iteration callback on demand.
// The producing goroutine blocks until the consumer asks for the next
// item or releases the iterator.
type lazyIterator struct {
	read chan store.Model
	stop chan struct{}
	once sync.Once
}

var _ store.Iterator = (*lazyIterator)(nil)

func newLazyIterator() *lazyIterator {
	return &lazyIterator{
		read: make(chan store.Model),
		stop: make(chan struct{}),
	}
}

// add is the IterateRange callback. Returning true aborts iteration.
func (i *lazyIterator) add(key, value []byte) bool {
	m := store.Model{Key: key, Value: value}
	select {
	case i.read <- m:
		return false
	case <-i.stop:
		return true
	}
}

// finish signals the consumer that there are no more items.
func (i *lazyIterator) finish() {
	close(i.read)
}

func (i *lazyIterator) Next() ([]byte, []byte, error) {
	select {
	case data, hasMore := <-i.read:
		if !hasMore {
			return nil, nil, errors.Wrap(errors.ErrIteratorDone, "lazy iterator")
		}
		return data.Key, data.Value, nil
	case <-i.stop:
		return nil, nil, errors.Wrap(errors.ErrIteratorDone, "iterator released")
	}
}

func (i *lazyIterator) Release() {
	i.once.Do(func() {
		close(i.stop)
	})
}
