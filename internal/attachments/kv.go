package attachments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/expense-analyzer/internal/domain"
	"github.com/dvloznov/expense-analyzer/internal/store"
)

// KVBlobStore keeps each attachment as one JSON record under
// "attachment_<id>" in a KV store.
type KVBlobStore struct {
	kv store.KV
}

// NewKVBlobStore creates a blob store over kv.
func NewKVBlobStore(kv store.KV) *KVBlobStore {
	return &KVBlobStore{kv: kv}
}

func (s *KVBlobStore) Save(ctx context.Context, meta domain.Attachment, data []byte) (domain.Attachment, error) {
	meta = newMeta(meta, data)
	raw, err := json.Marshal(Blob{Attachment: meta, Data: data})
	if err != nil {
		return domain.Attachment{}, fmt.Errorf("KVBlobStore.Save: encode: %w", err)
	}
	if err := s.kv.Set(ctx, KeyPrefix+meta.ID, raw); err != nil {
		return domain.Attachment{}, fmt.Errorf("KVBlobStore.Save: %w", err)
	}
	return meta, nil
}

func (s *KVBlobStore) Get(ctx context.Context, id string) (*Blob, error) {
	raw, err := s.kv.Get(ctx, KeyPrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("KVBlobStore.Get: %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("KVBlobStore.Get: %w", err)
	}
	var b Blob
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("KVBlobStore.Get: decode %s: %w", id, err)
	}
	return &b, nil
}

func (s *KVBlobStore) Delete(ctx context.Context, id string) error {
	if err := s.kv.Delete(ctx, KeyPrefix+id); err != nil {
		return fmt.Errorf("KVBlobStore.Delete: %w", err)
	}
	return nil
}

// List returns attachment IDs without the key prefix.
func (s *KVBlobStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.kv.List(ctx, KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("KVBlobStore.List: %w", err)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = strings.TrimPrefix(k, KeyPrefix)
	}
	return ids, nil
}
