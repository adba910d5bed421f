package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/filetagger/internal/domain"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCLI_Version(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "filetagger version "+Version+"\n", out)
}

func TestCLI_Run_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// 锁定对外契约：stdout 非 TTY 时只能输出一个 RunReport JSON（进度/配置走 stderr 或直接禁用）。
	root := t.TempDir()
	logDir := t.TempDir()
	writeMinimalDocx(t, filepath.Join(root, "0-An-Introduction-to-Calvinism.docx"))

	code, out, errOut := runCLI(t, "run", root, "--log-dir", logDir)
	require.Equal(t, 0, code, "stderr=%s", errOut)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &rr), "stdout=%q", out)
	assert.Equal(t, domain.ReportSummary{Total: 1, Successful: 1}, rr.Summary)
	assert.Equal(t, "Calvinism", rr.Items[0].Category)
	assert.NotContains(t, out, "配置（生效）")
	assert.Contains(t, errOut, "完成：total=1 successful=1 failed=0")

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "metadata-log-"))
	b, err := os.ReadFile(filepath.Join(logDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(b), "✓ Metadata added successfully")
	assert.Contains(t, string(b), "Run ID: "+rr.RunID)
}

func TestCLI_Run_PDFFailsWithExitCode1(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Grace.pdf"), "x")

	code, out, _ := runCLI(t, "run", root, "--extensions", ".pdf", "--log-dir", t.TempDir())
	assert.Equal(t, 1, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &rr))
	assert.Equal(t, domain.ReportSummary{Total: 1, Failed: 1}, rr.Summary)
	assert.Equal(t, domain.ErrCodeUnsupportedType, rr.Items[0].ErrorCode)
}

func TestCLI_Run_MissingPathIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")

	code, out, errOut := runCLI(t, "run", missing, "--log-dir", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "路径不可用")
}

func TestCLI_Run_ConfigNotFound(t *testing.T) {
	// 包目录下没有 tagger.yaml：无参运行必须失败并输出 config_not_found。
	code, out, _ := runCLI(t, "run")
	assert.Equal(t, 1, code)

	var rr domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &rr))
	require.Len(t, rr.Items, 1)
	assert.Equal(t, domain.ErrCodeConfigNotFound, rr.Items[0].ErrorCode)
}

func TestCLI_UsageErrors(t *testing.T) {
	cases := [][]string{
		{"run", "--no-such-flag"},
		{"bogus"},
		{"inspect"},
		{"run", "--log-level", "loud", t.TempDir()},
	}
	for _, args := range cases {
		code, _, errOut := runCLI(t, args...)
		assert.Equal(t, 2, code, "args=%v stderr=%s", args, errOut)
	}
}

func TestCLI_Preview_DoesNotWrite(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Holy-Spirit-and-the-Church.mp3")
	writeFile(t, path, "x")

	code, out, errOut := runCLI(t, "preview", root)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Holy-Spirit-and-the-Church.mp3\tclass=audio writer=exiftool")
	assert.Contains(t, out, `category="Church Practices"`)
	assert.Contains(t, out, `keywords="Holy Spirit Church"`)
	assert.Contains(t, out, "matches=Church Practices,Theology")
	assert.Contains(t, errOut, "  Church Practices: 1\n")

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))
}

func TestCLI_Inspect_Docx(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "12_Trinity-Explained.docx")
	writeMinimalDocx(t, path)

	code, _, errOut := runCLI(t, "run", path, "--author", "Tester", "--log-dir", t.TempDir())
	require.Equal(t, 0, code, errOut)

	code, out, errOut := runCLI(t, "inspect", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Title:")
	assert.Contains(t, out, "Trinity Explained")
	assert.Contains(t, out, "Tester")
	assert.Contains(t, out, "Document: Trinity Explained")
}

func TestCLI_Inspect_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.pdf")
	writeFile(t, path, "x")

	code, _, errOut := runCLI(t, "inspect", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, domain.ErrCodeUnsupportedType)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}

// writeMinimalDocx 写一个没有 docProps/core.xml 的最小 docx。
func writeMinimalDocx(t *testing.T, path string) {
	t.Helper()
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`},
		{"_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`},
		{"word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>x</w:t></w:r></w:p></w:body></w:document>`},
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, p := range parts {
		fw, err := zw.Create(p.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, p.body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
