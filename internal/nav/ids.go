package nav

import "sync/atomic"

// IDAllocator hands out monotonically increasing ids. Ids are unique across
// every controller sharing an allocator.
type IDAllocator struct {
	next atomic.Int64
}

// Next returns a fresh id. The first id is 1.
func (a *IDAllocator) Next() int {
	return int(a.next.Add(1))
}

var (
	entryIDs   IDAllocator
	requestIDs IDAllocator
	viewIDs    IDAllocator
)
