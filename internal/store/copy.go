package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// CopyResult reports what Copy did.
type CopyResult struct {
	Copied   int
	Checksum string // of the source, hex sha256 over keys and values
}

// Checksum hashes every key and value of kv in key order. Two stores with
// the same content have the same checksum.
func Checksum(ctx context.Context, kv KV) (string, error) {
	keys, err := kv.List(ctx, "")
	if err != nil {
		return "", fmt.Errorf("Checksum: %w", err)
	}
	h := sha256.New()
	for _, k := range keys {
		v, err := kv.Get(ctx, k)
		if err != nil {
			return "", fmt.Errorf("Checksum: %s: %w", k, err)
		}
		fmt.Fprintf(h, "%d:%s%d:", len(k), k, len(v))
		h.Write(v)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Copy writes every key of src into dst, overwriting existing keys, and then
// verifies that dst holds the same content. With dryRun nothing is written.
func Copy(ctx context.Context, src, dst KV, dryRun bool) (CopyResult, error) {
	keys, err := src.List(ctx, "")
	if err != nil {
		return CopyResult{}, fmt.Errorf("Copy: list source: %w", err)
	}
	sum, err := Checksum(ctx, src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("Copy: %w", err)
	}
	res := CopyResult{Checksum: sum}
	if dryRun {
		res.Copied = len(keys)
		return res, nil
	}

	for _, k := range keys {
		v, err := src.Get(ctx, k)
		if err != nil {
			return res, fmt.Errorf("Copy: read %s: %w", k, err)
		}
		if err := dst.Set(ctx, k, v); err != nil {
			return res, fmt.Errorf("Copy: write %s: %w", k, err)
		}
		res.Copied++
	}

	got, err := Checksum(ctx, dst)
	if err != nil {
		return res, fmt.Errorf("Copy: verify: %w", err)
	}
	if got != sum {
		return res, fmt.Errorf("Copy: checksum mismatch: destination holds keys the source does not")
	}
	return res, nil
}
