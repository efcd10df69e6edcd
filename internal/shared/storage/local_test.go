package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "/uploads/")
	ctx := context.Background()

	p, err := s.Upload(ctx, "/orders/o1/techpack.pdf", strings.NewReader("pdf"), 3, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "orders/o1/techpack.pdf", p)
	assert.Equal(t, "/uploads/orders/o1/techpack.pdf", s.PublicURL(p))

	u, err := s.CreateSignedURL(ctx, p, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "/uploads/orders/o1/techpack.pdf?expires="))

	require.NoError(t, s.Delete(ctx, p))
	_, err = s.CreateSignedURL(ctx, p, time.Minute)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "/uploads")
	_, err := s.Upload(context.Background(), "../etc/passwd", strings.NewReader("x"), 1, "text/plain")
	assert.ErrorIs(t, err, ErrInvalidPath)
	assert.Equal(t, "", s.PublicURL(""))
}

func TestObjectPath(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	p := ObjectPath("/chat/q1/", `C:\docs\fabric.png`, now)
	assert.True(t, strings.HasPrefix(p, "chat/q1/2026/03/09/"), p)
	assert.True(t, strings.HasSuffix(p, "_fabric.png"), p)
}
