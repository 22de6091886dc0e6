// Package poll runs a fetch on a fixed interval with at most one fetch in
// flight. A new tick cancels the previous fetch and its result is discarded.
package poll
