// Package store provides durable persistence for generated question and
// answer records. It is the single source of truth for sequence numbers
// and used-state; all other components are stateless computations over it.
package store
