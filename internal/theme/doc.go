// Package theme holds the built-in theme catalog and the selection
// policies a caller can hand to the cycle coordinator. Which policy to use
// is configuration, not engine logic.
package theme
