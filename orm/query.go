package orm

// prefixRange turns a prefix into (start, end) to create
// and iterator over all items with this prefix.
//
// Basically limits is the prefix plus one on the last byte:
//
//   prefixRange([]byte{1, 3, 4}) == ([]byte{1, 3, 4}, []byte{1, 3, 5})
//   prefixRange([]byte{255, 255}) == ([]byte{255, 255}, nil)
//
// In case of an overflow the end is set to nil.
// nil prefix is allowed and means an unbounded iteration.
func prefixRange(prefix []byte) ([]byte, []byte) {
	if prefix == nil {
		return nil, nil
	}

	// special case: no limit
	if len(prefix) == 0 {
		return prefix, nil
	}

	// copy the prefix and update last byte
	end := make([]byte, len(prefix))
	copy(end, prefix)
	l := len(end) - 1
	end[l]++

	// wait, what if that overflowed the byte??
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}

	// okay, funny guy, you gave us FFF, no end to this range...
	if l == 0 && end[0] == 0 {
		end = nil
	}
	return prefix, end
}
