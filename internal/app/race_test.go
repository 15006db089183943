//go:build race

package app

// boltdb/bolt fails checkptr validation under the race detector.
const raceEnabled = true
