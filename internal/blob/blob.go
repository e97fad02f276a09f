package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for uploads that are not a supported image.
var ErrUnsupportedType = errors.New("UNSUPPORTED_FILE_TYPE")

// Store keeps uploaded files and hands out public URLs for them.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}

var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a decoded upload ready for a Store.
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// DecodeImage accepts a base64 payload, with or without a data URL prefix,
// and checks the bytes are an image type the API accepts. The declared type
// in the prefix is ignored in favour of the detected one.
func DecodeImage(payload string) (Image, error) {
	raw := payload
	if strings.HasPrefix(raw, "data:") {
		_, after, ok := strings.Cut(raw, ",")
		if !ok {
			return Image{}, fmt.Errorf("malformed data URL")
		}
		raw = after
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return Image{}, fmt.Errorf("invalid base64 image: %w", err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image")
	}

	mt := mimetype.Detect(data)
	for ct, ext := range allowedImages {
		if mt.Is(ct) {
			return Image{Data: data, ContentType: ct, Extension: ext}, nil
		}
	}
	return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

// ObjectPath builds a unique object name under prefix, e.g.
// "journal_covers/<journalID>/<uuid>.jpg".
func ObjectPath(prefix, owner, extension string) string {
	return fmt.Sprintf("%s/%s/%s%s", prefix, owner, uuid.NewString(), extension)
}

// PathFromURL recovers the object path from a URL handed out by Upload.
func PathFromURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	_, obj, ok := strings.Cut(u.EscapedPath(), "/o/")
	if !ok || obj == "" {
		return "", false
	}
	p, err := url.PathUnescape(obj)
	if err != nil {
		return "", false
	}
	return p, true
}

// Memory is an in-process Store for tests and local runs.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]Object
}

type Object struct {
	Data        []byte
	ContentType string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]Object)}
}

func (m *Memory) Upload(_ context.Context, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return m.baseURL + "/o/" + url.PathEscape(path) + "?alt=media", nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[path]; !ok {
		return fmt.Errorf("object %q not found", path)
	}
	delete(m.objects, path)
	return nil
}

// Object returns a stored object, for assertions.
func (m *Memory) Object(path string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[path]
	return o, ok
}
