package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/filetagger/internal/domain"
)

func TestFiles_DefaultExtensionsTopLevelOnly(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "0-An-Introduction-to-Calvinism.docx"))
	touch(t, filepath.Join(root, "IMG_01.JPG"))
	touch(t, filepath.Join(root, "Sermon.Mp3"))
	touch(t, filepath.Join(root, "notes.pdf"))
	touch(t, filepath.Join(root, "ignore.txt"))
	touch(t, filepath.Join(root, ".hidden.docx"))
	touch(t, filepath.Join(root, "sub", "deep.docx"))

	got, err := Files(root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"0-An-Introduction-to-Calvinism.docx", "IMG_01.JPG", "Sermon.Mp3"}, relPaths(got))
	assert.Equal(t, ".jpg", got[1].Ext)
	assert.Equal(t, "IMG_01.JPG", got[1].Name)
	assert.True(t, filepath.IsAbs(got[0].AbsPath))
}

func TestFiles_CallerExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.docx"))
	touch(t, filepath.Join(root, "b.PDF"))
	touch(t, filepath.Join(root, "c.jpg"))

	got, err := Files(root, Options{Extensions: []string{"pdf", ".DOCX", ".docx"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.docx", "b.PDF"}, relPaths(got))
}

func TestFiles_RecursiveWithExclude(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.docx"))
	touch(t, filepath.Join(root, "sermons", "2024", "b.mp3"))
	touch(t, filepath.Join(root, "drafts", "c.docx"))
	touch(t, filepath.Join(root, ".git", "d.docx"))
	touch(t, filepath.Join(root, "sermons", "e.bak.mp3"))

	got, err := Files(root, Options{Recursive: true, Exclude: []string{"drafts/**", "**/*.bak.*"}})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"a.docx",
		filepath.Join("sermons", "2024", "b.mp3"),
	}, relPaths(got))
}

func TestFiles_InvalidExclude(t *testing.T) {
	_, err := Files(t.TempDir(), Options{Exclude: []string{"[unclosed"}})
	assert.Error(t, err)
}

func TestFiles_MissingRoot(t *testing.T) {
	_, err := Files(filepath.Join(t.TempDir(), "nope"), Options{})
	assert.Error(t, err)
}

func TestSingle(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "X.DOCX")
	touch(t, p)

	f, err := Single(p)
	require.NoError(t, err)
	assert.Equal(t, "X.DOCX", f.RelPath)
	assert.Equal(t, ".docx", f.Ext)

	_, err = Single(root)
	assert.Error(t, err)
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".docx", ".jpg"}, NormalizeExtensions([]string{"DOCX", " .jpg", ".docx", ""}))
}

func relPaths(files []domain.MediaFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
