package blob

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	gifBytes  = []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	webpBytes = []byte("RIFF\x1a\x00\x00\x00WEBPVP8 \x0e\x00\x00\x00")
	pdfBytes  = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
)

func TestDecodeImage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantCT  string
		wantExt string
	}{
		{"png data url", "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes), "image/png", ".png"},
		{"bare base64 jpeg", base64.StdEncoding.EncodeToString(jpegBytes), "image/jpeg", ".jpg"},
		{"gif", "data:image/gif;base64," + base64.StdEncoding.EncodeToString(gifBytes), "image/gif", ".gif"},
		{"webp", base64.StdEncoding.EncodeToString(webpBytes), "image/webp", ".webp"},
		{"declared type ignored", "data:image/gif;base64," + base64.StdEncoding.EncodeToString(pngBytes), "image/png", ".png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCT, img.ContentType)
			assert.Equal(t, tt.wantExt, img.Extension)
			assert.NotEmpty(t, img.Data)
		})
	}
}

func TestDecodeImageRejects(t *testing.T) {
	_, err := DecodeImage("data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdfBytes))
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = DecodeImage("data:image/png;base64,***")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnsupportedType))

	_, err = DecodeImage("data:image/png;base64")
	assert.Error(t, err)

	_, err = DecodeImage("")
	assert.Error(t, err)
}

func TestObjectPath(t *testing.T) {
	p := ObjectPath("journal_covers", "j1", ".png")
	assert.True(t, strings.HasPrefix(p, "journal_covers/j1/"))
	assert.True(t, strings.HasSuffix(p, ".png"))
	assert.NotEqual(t, p, ObjectPath("journal_covers", "j1", ".png"))
}

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{
			"firebase download url",
			"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/journal_covers%2Fj1%2Fcover.jpg?alt=media&token=abc",
			"journal_covers/j1/cover.jpg",
			true,
		},
		{"placeholder", "https://via.placeholder.com/200x150", "", false},
		{"garbage", "://", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PathFromURL(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("memory://blobs/")

	u, err := m.Upload(ctx, "avatars/u1/a.png", pngBytes, "image/png")
	require.NoError(t, err)

	path, ok := PathFromURL(u)
	require.True(t, ok)
	assert.Equal(t, "avatars/u1/a.png", path)

	obj, ok := m.Object(path)
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, pngBytes, obj.Data)

	require.NoError(t, m.Delete(ctx, path))
	_, ok = m.Object(path)
	assert.False(t, ok)
	assert.Error(t, m.Delete(ctx, path))
}
