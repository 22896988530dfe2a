// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration and stats surface of the dispatch core.
//
// Provides concurrent-safe state handling primitives including:
//   - Snapshot config reads and atomic updates with reload observers
//   - Typed accessors for dispatch tunables
//   - Probe registration aggregating component stats maps
package control
