package blob

import (
	"context"
	"fmt"
	"net/url"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const downloadURLFormat = "https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s"

// FirebaseStorage stores objects in a Firebase Storage bucket and returns
// token download URLs, the same links the Firebase client SDKs produce.
type FirebaseStorage struct {
	bucket *gcs.BucketHandle
	name   string
}

func NewFirebaseStorage(bucket *gcs.BucketHandle, bucketName string) *FirebaseStorage {
	return &FirebaseStorage{bucket: bucket, name: bucketName}
}

func (s *FirebaseStorage) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	token := uuid.NewString()

	w := s.bucket.Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", path, err)
	}

	return fmt.Sprintf(downloadURLFormat, s.name, url.PathEscape(path), token), nil
}

func (s *FirebaseStorage) Delete(ctx context.Context, path string) error {
	if err := s.bucket.Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}
