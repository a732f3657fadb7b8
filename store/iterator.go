package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/iov-one/pledge/errors"
)

///////////////////////////////////////////////////////
// From Items to Iterator

// btreeIter draws items from the btree in an iteration order via a
// background goroutine. It keeps a one item lookahead so merging with
// the parent iterator can peek at the next key.
type btreeIter struct {
	data       btree.Item
	hasMore    bool
	read       <-chan btree.Item
	stop       chan<- struct{}
	once       sync.Once
	descending bool
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

func ascendBtree(bt *btree.BTree, start, end []byte) *btreeIter {
	read := make(chan btree.Item)
	// ensure we never block when we call close()
	stop := make(chan struct{}, 1)
	iter := &btreeIter{
		read: read,
		stop: stop,
	}

	insert := func(item btree.Item) bool {
		select {
		case read <- item:
			return true
		case <-stop:
			close(read)
			return false
		}
	}

	go func() {
		if start == nil && end == nil {
			bt.Ascend(insert)
		} else if start == nil { // end != nil
			bt.AscendLessThan(bkey{end}, insert)
		} else if end == nil { // start != nil
			bt.AscendGreaterOrEqual(bkey{start}, insert)
		} else { // both != nil
			bt.AscendRange(bkey{start}, bkey{end}, insert)
		}
		close(read)
	}()

	iter.next()
	return iter
}

func descendBtree(bt *btree.BTree, start, end []byte) *btreeIter {
	read := make(chan btree.Item)
	// ensure we never block when we call close()
	stop := make(chan struct{}, 1)
	iter := &btreeIter{
		read:       read,
		stop:       stop,
		descending: true,
	}

	insert := func(item btree.Item) bool {
		select {
		case read <- item:
			return true
		case <-stop:
			close(read)
			return false
		}
	}

	go func() {
		if start == nil && end == nil {
			bt.Descend(insert)
		} else if start == nil { // end != nil
			bt.DescendLessOrEqual(bkeyLess{end}, insert)
		} else if end == nil { // start != nil
			bt.DescendGreaterThan(bkeyLess{start}, insert)
		} else { // both != nil
			bt.DescendRange(bkeyLess{end}, bkeyLess{start}, insert)
		}
		close(read)
	}()

	iter.next()
	return iter
}

func (b *btreeIter) wrap(parent Iterator) *itemIter {
	return &itemIter{
		wrap:   b,
		parent: parent,
	}
}

func (b *btreeIter) next() {
	b.data, b.hasMore = <-b.read
}

func (b *btreeIter) close() {
	b.once.Do(func() {
		b.stop <- struct{}{}
	})
}

// get requires this is valid, gets what we are pointing at
func (b *btreeIter) get() keyer {
	return b.data.(keyer)
}

func (b *btreeIter) valid() bool {
	return b.hasMore
}

// itemIter combines the cache btree with the parent iterator. Deleted
// items shadow the parent, set items overwrite it.
type itemIter struct {
	wrap *btreeIter
	// if we are iterating in a cache-wrap (and who isn't),
	// we need to combine this iterator with the parent
	parent Iterator

	// one item lookahead over the parent iterator
	parentKey    []byte
	parentValue  []byte
	parentLoaded bool
	parentDone   bool
}

var _ Iterator = (*itemIter)(nil)

// Next returns the next key/value pair in the iteration order, skipping
// over all items deleted in the cache layer.
func (i *itemIter) Next() ([]byte, []byte, error) {
	for {
		if err := i.loadParent(); err != nil {
			return nil, nil, err
		}
		switch i.firstKey() {
		case none:
			return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache")
		case us:
			item := i.wrap.get()
			i.wrap.next()
			if set, ok := item.(setItem); ok {
				return set.key, set.value, nil
			}
			// deleted in cache and absent from parent, skip
		case both:
			item := i.wrap.get()
			i.wrap.next()
			i.consumeParent()
			if set, ok := item.(setItem); ok {
				return set.key, set.value, nil
			}
			// deleted in cache, shadows the parent item
		case parent:
			key, value := i.parentKey, i.parentValue
			i.consumeParent()
			return key, value, nil
		}
	}
}

// Release releases the Iterator.
func (i *itemIter) Release() {
	if i.parent != nil {
		i.parent.Release()
	}
	i.wrap.close()
}

// loadParent ensures the parent lookahead holds the next parent item,
// unless the parent is exhausted.
func (i *itemIter) loadParent() error {
	if i.parentLoaded {
		return nil
	}
	i.parentLoaded = true
	if i.parent == nil {
		i.parentDone = true
		return nil
	}
	key, value, err := i.parent.Next()
	switch {
	case err == nil:
		i.parentKey, i.parentValue = key, value
	case errors.ErrIteratorDone.Is(err):
		i.parentDone = true
	default:
		return err
	}
	return nil
}

// consumeParent marks the lookahead item as used so that the next
// loadParent call advances the parent iterator.
func (i *itemIter) consumeParent() {
	if !i.parentDone {
		i.parentLoaded = false
	}
}

// firstKey selects the iterator with the lowest key if any
func (i *itemIter) firstKey() source {
	// if only one or none is valid, it is clear which to use
	if i.parentDone {
		if !i.wrap.valid() {
			return none
		}
		return us
	} else if !i.wrap.valid() {
		return parent
	}

	// both are valid... compare keys....
	cmp := bytes.Compare(i.parentKey, i.wrap.get().Key())
	if i.wrap.descending {
		cmp = -cmp
	}
	if cmp < 0 {
		return parent
	} else if cmp > 0 {
		return us
	}
	return both
}
