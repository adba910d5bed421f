package writer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/exiftool"
)

type recordWriter struct {
	name  string
	err   error
	calls []string
}

func (w *recordWriter) Write(_ context.Context, path string, _ domain.Metadata) error {
	w.calls = append(w.calls, path)
	return w.err
}

func TestDispatcher_RoutesByExtension(t *testing.T) {
	doc := &recordWriter{name: "doc"}
	media := &recordWriter{name: "media"}
	d := NewDispatcher(doc, media)

	for _, p := range []string{"/a/x.docx", "/a/Y.DOCX"} {
		require.NoError(t, d.Write(context.Background(), p, domain.Metadata{}))
	}
	for _, p := range []string{"/a/x.JPG", "/a/x.mkv", "/a/x.flac"} {
		require.NoError(t, d.Write(context.Background(), p, domain.Metadata{}))
	}

	assert.Equal(t, []string{"/a/x.docx", "/a/Y.DOCX"}, doc.calls)
	assert.Equal(t, []string{"/a/x.JPG", "/a/x.mkv", "/a/x.flac"}, media.calls)
}

func TestDispatcher_UnsupportedInvokesNothing(t *testing.T) {
	doc := &recordWriter{}
	media := &recordWriter{}
	d := NewDispatcher(doc, media)

	err := d.Write(context.Background(), "/a/notes.pdf", domain.Metadata{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeUnsupportedType, Code(err))
	assert.Contains(t, err.Error(), ".pdf")
	assert.Empty(t, doc.calls)
	assert.Empty(t, media.calls)

	err = d.Write(context.Background(), "/a/README", domain.Metadata{})
	assert.Equal(t, domain.ErrCodeUnsupportedType, Code(err))
}

func TestDispatcher_ErrorCodes(t *testing.T) {
	boom := errors.New("zip: not a valid zip file")
	d := NewDispatcher(
		&recordWriter{err: boom},
		&recordWriter{err: fmt.Errorf("wrap: %w", exiftool.ErrNotInstalled)},
	)

	err := d.Write(context.Background(), "a.docx", domain.Metadata{})
	assert.Equal(t, domain.ErrCodeWriteFailed, Code(err))
	assert.ErrorIs(t, err, boom)

	err = d.Write(context.Background(), "a.mp3", domain.Metadata{})
	assert.Equal(t, domain.ErrCodeWriterUnavailable, Code(err))
	assert.Contains(t, err.Error(), exiftool.InstallHint)
}

func TestDispatcher_NilWriterIsUnsupported(t *testing.T) {
	d := NewDispatcher(nil, &recordWriter{})
	assert.False(t, d.Handles(domain.ClassDocument))
	assert.Equal(t, domain.ErrCodeUnsupportedType, Code(d.Write(context.Background(), "a.docx", domain.Metadata{})))
}

func TestCode_NonWriterError(t *testing.T) {
	assert.Equal(t, "", Code(errors.New("x")))
	assert.Equal(t, "", Code(nil))
}
