// Package kv implements the durable key-value storage the pending alarm lives in.
//
// Storage mirrors a mobile async key-value store (get/set/remove of string
// values) and adds CompareAndRemove so that clearing a fired alarm never
// erases one set concurrently. Backends: a protojson document on an afero
// filesystem, a modernc sqlite table and redis through rueidis.
package kv
