// Package sequence computes sequence ids and volume numbers from the record
// log itself. It keeps no state of its own, so it cannot drift from the
// store after a crash the way a separate counter file could.
package sequence
