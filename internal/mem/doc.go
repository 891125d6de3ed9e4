// Package mem provides aligned heap allocation for file store regions.
package mem
