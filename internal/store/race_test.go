//go:build race

package store

// boltdb/bolt fails checkptr validation under the race detector.
const raceEnabled = true
