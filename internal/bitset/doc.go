// Package bitset provides a fixed-size dense bitset.
//
// It backs the arena consistency checker, which marks every block reached
// from a file chain and needs O(1) duplicate detection.
package bitset
