// Package storage defines persistence contracts for runner state: the manual
// priority list, the cursor of each progress track, and the progress journal.
package storage
