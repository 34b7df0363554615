// Package registry persists the identities assigned to detected objects.
//
// A registry is an append-only ordered list of entries. Each entry pairs a
// non-negative integer id with the position where the object was first seen,
// plus the size and bounding box captured at that time. Entries are never
// removed or rewritten; a detection pass loads the snapshot once, appends the
// identities it minted, and saves the result.
//
// Two backends implement Store: JSONStore keeps the snapshot in the plain JSON
// array format consumed by downstream tooling, and SQLiteStore keeps it in a
// database that also records the history of detection passes. Update wraps a
// read-modify-write cycle in an advisory file lock so only one pass can write
// a given registry at a time.
package registry
