package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/filetagger/internal/domain"
)

func sampleReport() domain.RunReport {
	rr := domain.RunReport{
		RunID:      "0b7f3c1e-1111-4222-8333-444455556666",
		Path:       "/archive",
		StartedAt:  time.Date(2026, 10, 19, 8, 30, 0, 0, time.Local),
		FinishedAt: time.Date(2026, 10, 19, 8, 30, 2, 0, time.Local),
		Items: []domain.ItemResult{
			{
				File:     "0-An-Introduction-to-Calvinism.docx",
				Class:    domain.ClassDocument,
				Title:    "Introduction Calvinism",
				Keywords: "Introduction Calvinism",
				Category: "Calvinism",
				Status:   domain.StatusSucceeded,
			},
			{
				File:      "notes.pdf",
				Class:     domain.ClassUnknown,
				Title:     "notes",
				Keywords:  "notes",
				Category:  "General Theology",
				Status:    domain.StatusFailed,
				ErrorCode: domain.ErrCodeUnsupportedType,
				ErrorMsg:  "不支持的文件类型：.pdf",
			},
		},
	}
	rr.Finalize()
	return rr
}

func TestRender(t *testing.T) {
	out := string(Render(sampleReport()))

	assert.True(t, strings.HasPrefix(out, "Metadata Addition Log - 2026-10-19 08:30:00\n"), out)
	assert.Contains(t, out, "Run ID: 0b7f3c1e-1111-4222-8333-444455556666\n")
	assert.Contains(t, out, "Found 2 files to process\n")
	assert.Contains(t, out, "[1/2] Processing: 0-An-Introduction-to-Calvinism.docx\n  Title: Introduction Calvinism\n  Category: Calvinism\n  Keywords: Introduction Calvinism\n  ✓ Metadata added successfully\n")
	assert.Contains(t, out, "[2/2] Processing: notes.pdf\n")
	assert.Contains(t, out, "  ✗ Failed to add metadata: unsupported_type: 不支持的文件类型：.pdf\n")
	assert.True(t, strings.HasSuffix(out, "Total files: 2\nSuccessful: 1\nFailed: 1\n"), out)
}

func TestRender_EmptyRun(t *testing.T) {
	rr := domain.RunReport{Path: "/empty", StartedAt: time.Now()}
	rr.Finalize()

	out := string(Render(rr))
	assert.Contains(t, out, "Found 0 files to process\n")
	assert.NotContains(t, out, "Processing:")
	assert.Contains(t, out, "Total files: 0\n")
}

func TestWrite_NeverOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	rr := sampleReport()

	p1, err := Write(dir, rr)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata-log-20261019-083000.txt"), p1)

	p2, err := Write(dir, rr)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "metadata-log-20261019-083000-2.txt"), p2)

	b, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, Render(rr), b)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "不应残留临时文件")
}
