/*
DESCRIPTION
  id.go provides IDAllocator, the source of region identifiers for a session.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package roi

import "sync"

// IDAllocator hands out strictly increasing region ids starting at 1. Ids are
// never reused, including ids of regions that failed to register.
type IDAllocator struct {
	mu   sync.Mutex
	next int
}

// NewIDAllocator returns a new IDAllocator.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Next returns the next id.
func (a *IDAllocator) Next() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next == 0 {
		a.next = 1
	}
	id := a.next
	a.next++
	return id
}
