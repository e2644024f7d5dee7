// Package lazymodel holds the process-wide embedding model and the request
// path in front of it.
//
// A Slot starts empty. The first GetEmbedding call that finds it empty
// constructs the model while holding exclusive access, installs it, and runs
// its own inference before releasing. Concurrent first callers wait and then
// find the model ready, so only one model is ever built. A failed construction
// leaves the slot empty and the next request tries again.
//
// Once the model is ready, requests run inference under shared access. The
// slot capacity (embedding.max_concurrent_inference) bounds how many run at
// once; with the default of 1 every request is serialized.
//
// A panic while access is held poisons the slot: that request and every later
// one fail with an access error until the process restarts.
package lazymodel
