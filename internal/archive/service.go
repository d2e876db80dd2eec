// Package archive keeps an immutable object-storage snapshot of every
// accepted dashboard revision, one JSON object per revision, so state can
// be inspected or restored independently of the live row and the git
// history.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Service struct {
	client *minio.Client
	bucket string
}

// New connects to the object store and makes sure the snapshot bucket
// exists.
func New(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Service, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	return &Service{client: client, bucket: bucket}, nil
}

func objectName(userID string, revision int64) string {
	return fmt.Sprintf("users/%s/rev-%d.json", pathSafeID(userID), revision)
}

// pathSafeID flattens a caller-supplied user id into one key segment.
// Percent-encoding everything outside [a-zA-Z0-9-_], '%' included, keeps
// distinct ids distinct and keeps separators out of object keys.
func pathSafeID(userID string) string {
	if userID == "" {
		return "_"
	}
	var b strings.Builder
	for _, c := range []byte(userID) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02x", c)
		}
	}
	return b.String()
}

// StoreSnapshot writes the accepted document for one revision. Revisions
// never repeat, so each object is written exactly once.
func (s *Service) StoreSnapshot(ctx context.Context, userID string, revision int64, document map[string]any) error {
	payload, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, objectName(userID, revision),
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the archived document for one revision.
func (s *Service) LoadSnapshot(ctx context.Context, userID string, revision int64) (map[string]any, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectName(userID, revision), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer object.Close()

	payload, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var document map[string]any
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return document, nil
}
