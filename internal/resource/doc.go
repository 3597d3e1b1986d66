// Package resource bounds the work an engine does on behalf of concurrent
// searches.
//
// A Controller hands out two kinds of capacity:
//
//   - cache bytes, claimed with Reserve and returned with Free. Reserve
//     never blocks; the term cache simply skips storing an entry it cannot
//     pay for.
//   - term slots, claimed with Term. Term blocks on a semaphore and then on
//     a token bucket, so a search cannot flood the matcher's datastore.
//
// Merging is pure computation on a request-owned state map and is not
// governed.
//
// Every method is a no-op on a nil Controller.
package resource
