//go:build race

package ledger

// boltdb/bolt fails checkptr validation under the race detector.
const raceEnabled = true
