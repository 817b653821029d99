// Package cache provides a generic, thread-safe LRU cache.
//
// The cache is bounded: once capacity is reached, the least recently used
// entry is evicted to make room. Both Get and Put refresh an entry's
// recency. This makes it suitable for lookaside state where entries may be
// silently dropped, such as request idempotency records or memoized lookups.
//
// # Usage
//
//	replays := cache.NewLRUCache[string, Receipt](1024)
//
//	if receipt, ok := replays.Get(requestID); ok {
//	    return receipt, nil
//	}
//	// ... perform the work ...
//	replays.Put(requestID, receipt)
//
// All operations are safe for concurrent use. The zero value is not usable;
// construct instances with NewLRUCache.
package cache
