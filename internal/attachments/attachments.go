// Package attachments stores bill and receipt files for reimbursable
// transactions. Bytes live in a BlobStore keyed by a generated ID; the
// transaction only keeps the ID.
package attachments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// KeyPrefix namespaces attachment keys in a KV store.
const KeyPrefix = "attachment_"

// ErrNotFound is returned when no blob has the requested ID.
var ErrNotFound = errors.New("attachment not found")

// Blob is an attachment with its bytes.
type Blob struct {
	domain.Attachment
	Data []byte `json:"data"`
}

// BlobStore persists attachment bytes and metadata.
type BlobStore interface {
	Save(ctx context.Context, meta domain.Attachment, data []byte) (domain.Attachment, error)
	Get(ctx context.Context, id string) (*Blob, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

// newMeta fills the generated fields of an attachment record.
func newMeta(meta domain.Attachment, data []byte) domain.Attachment {
	if meta.ID == "" {
		meta.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}
	if meta.FileType == "" {
		meta.FileType = "application/octet-stream"
	}
	meta.Size = int64(len(data))
	meta.CreatedAt = time.Now().UTC()
	return meta
}

// ExtFromMIME guesses a file extension from a MIME type: the part after the
// slash, or "bin" when there is none.
func ExtFromMIME(mime string) string {
	mime = strings.TrimSpace(mime)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if i := strings.IndexByte(mime, '/'); i >= 0 && i < len(mime)-1 {
		return mime[i+1:]
	}
	return "bin"
}
