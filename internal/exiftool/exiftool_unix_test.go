//go:build unix

package exiftool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/filetagger/internal/domain"
)

// fakeTool 在临时目录放一个假的 exiftool 脚本。
func fakeTool(t *testing.T, script string) Tool {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "exiftool")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return Tool{Bin: bin, Timeout: 5 * time.Second}
}

func TestWrite_PassesArgsOnce(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	t.Setenv("FAKE_EXIFTOOL_ARGS", argsFile)
	tool := fakeTool(t, `for a in "$@"; do printf '%s\n' "$a" >> "$FAKE_EXIFTOOL_ARGS"; done`)

	err := tool.Write(context.Background(), "/media/IMG_01.jpg", domain.Metadata{Title: "IMG 01", Description: "Image: IMG 01"})
	require.NoError(t, err)

	b, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	got := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, []string{
		"-overwrite_original",
		"-Title=IMG 01",
		"-Description=Image: IMG 01",
		"-Comment=Image: IMG 01",
		"/media/IMG_01.jpg",
	}, got)
}

func TestWrite_NonZeroExitCarriesStderr(t *testing.T) {
	tool := fakeTool(t, `echo "Error: File not found - x.jpg" >&2; exit 1`)

	err := tool.Write(context.Background(), "x.jpg", domain.Metadata{Title: "x"})
	var ee *ExitError
	require.True(t, errors.As(err, &ee), "err=%v", err)
	assert.Equal(t, 1, ee.Code)
	assert.Equal(t, "Error: File not found - x.jpg", ee.Stderr)
}

func TestWrite_Timeout(t *testing.T) {
	// 不用 exec：sleep 作为子进程继续持有输出管道。
	tool := fakeTool(t, `sleep 10`)
	tool.Timeout = 100 * time.Millisecond

	started := time.Now()
	err := tool.Write(context.Background(), "x.mp4", domain.Metadata{Title: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "err=%v", err)
	assert.Less(t, time.Since(started), 4*time.Second)
}

func TestRead_ParsesJSON(t *testing.T) {
	tool := fakeTool(t, `printf '[{"SourceFile":"x.mp3","Title":"Hymn","Keywords":["a","b"],"Category":"Theology"}]'`)

	got, err := tool.Read(context.Background(), "x.mp3")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Title": "Hymn", "Keywords": "a, b", "Category": "Theology"}, got)
}
