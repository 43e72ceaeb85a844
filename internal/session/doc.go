// Package session holds the in-memory state of the portal: an append-only
// ordered sequence of prompt sessions, each owning the generated artifacts
// for the four fixed sections, plus a pointer to the currently viewed
// session.
//
// State lives for the process lifetime only; there is no persistence and no
// deletion. Concurrent section tasks mutate disjoint artifacts, and the
// Store serializes every mutation behind one lock while applying updates
// copy-on-write, so readers always observe a consistent snapshot and
// interleaved writers cannot lose updates.
package session
