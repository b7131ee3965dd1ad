// Package cycle orchestrates one generation cycle end to end: pick a
// theme, generate candidate questions, filter duplicates, persist the
// question and its answer, then mark the question used. It is the only
// component that calls the external generation capabilities.
package cycle
