package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// ObjectPrefix is the folder attachments are written under in the bucket.
const ObjectPrefix = "attachments/"

// GCSBlobStore keeps attachments as objects in a Cloud Storage bucket. The
// MIME type becomes the object content type; the rest of the metadata rides
// in object metadata.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
}

// NewGCSBlobStore creates a client using Application Default Credentials.
func NewGCSBlobStore(ctx context.Context, bucket string) (*GCSBlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSBlobStore: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSBlobStore: create storage client: %w", err)
	}
	return &GCSBlobStore{client: client, bucket: bucket}, nil
}

// Close releases the storage client.
func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

func objectName(id string) string {
	return ObjectPrefix + id
}

func (s *GCSBlobStore) Save(ctx context.Context, meta domain.Attachment, data []byte) (domain.Attachment, error) {
	meta = newMeta(meta, data)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName(meta.ID)).NewWriter(ctx)
	w.ContentType = meta.FileType
	w.Metadata = map[string]string{
		"fileName":      meta.FileName,
		"transactionId": meta.TransactionID,
		"createdAt":     meta.CreatedAt.Format(time.RFC3339),
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return domain.Attachment{}, fmt.Errorf("GCSBlobStore.Save: write object: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return domain.Attachment{}, fmt.Errorf("GCSBlobStore.Save: finalize upload: %w", err)
	}
	return meta, nil
}

func (s *GCSBlobStore) Get(ctx context.Context, id string) (*Blob, error) {
	obj := s.client.Bucket(s.bucket).Object(objectName(id))

	attrs, err := obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("GCSBlobStore.Get: %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GCSBlobStore.Get: attrs: %w", err)
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("GCSBlobStore.Get: open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("GCSBlobStore.Get: read GCS object: %w", err)
	}

	return &Blob{Attachment: metaFromAttrs(id, attrs), Data: data}, nil
}

func metaFromAttrs(id string, attrs *storage.ObjectAttrs) domain.Attachment {
	meta := domain.Attachment{
		ID:            id,
		TransactionID: attrs.Metadata["transactionId"],
		FileName:      attrs.Metadata["fileName"],
		FileType:      attrs.ContentType,
		Size:          attrs.Size,
		CreatedAt:     attrs.Created,
	}
	if ts, err := time.Parse(time.RFC3339, attrs.Metadata["createdAt"]); err == nil {
		meta.CreatedAt = ts
	}
	return meta
}

func (s *GCSBlobStore) Delete(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucket).Object(objectName(id)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("GCSBlobStore.Delete: %w", err)
	}
	return nil
}

func (s *GCSBlobStore) List(ctx context.Context) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: ObjectPrefix})
	ids := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("GCSBlobStore.List: %w", err)
		}
		ids = append(ids, strings.TrimPrefix(attrs.Name, ObjectPrefix))
	}
	return ids, nil
}

// ParseGCSURI splits gs://bucket/path/to/object into bucket and object.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// FetchFromGCS downloads the object at a gs:// URI, for example a statement
// export to analyze.
func FetchFromGCS(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("FetchFromGCS: reading bytes: %w", err)
	}
	return data, nil
}

// ArchiveName is the file name an attachment gets inside a reimbursement
// bundle: {date}_{first 4 of transaction id}_{attachment id}.{ext}.
func ArchiveName(tx domain.Transaction, att domain.Attachment) string {
	short := tx.ID
	if len(short) > 4 {
		short = short[:4]
	}
	return path.Clean(tx.Date + "_" + short + "_" + att.ID + "." + ExtFromMIME(att.FileType))
}

// HumanSize formats a byte count for CLI listings.
func HumanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return strconv.FormatFloat(float64(n)/(1<<20), 'f', 1, 64) + " MB"
	case n >= 1<<10:
		return strconv.FormatFloat(float64(n)/(1<<10), 'f', 1, 64) + " KB"
	default:
		return strconv.FormatInt(n, 10) + " B"
	}
}
