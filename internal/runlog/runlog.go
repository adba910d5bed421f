// Package runlog 把一次运行的 RunReport 渲染为人类可读的纯文本日志并落盘。
package runlog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/infra/fsx"
)

const (
	filePrefix = "metadata-log-"
	fileLayout = "20060102-150405"
	timeLayout = "2006-01-02 15:04:05"
)

var rule = strings.Repeat("=", 50)

// FileName 返回 t（本地时区）对应的日志文件名：metadata-log-YYYYMMDD-HHMMSS.txt。
func FileName(t time.Time) string {
	return filePrefix + t.Local().Format(fileLayout) + ".txt"
}

// Render 按处理顺序输出每个文件的结果块，末尾附汇总。
func Render(rr domain.RunReport) []byte {
	var b bytes.Buffer
	total := rr.Summary.Total

	fmt.Fprintf(&b, "Metadata Addition Log - %s\n", rr.StartedAt.Local().Format(timeLayout))
	fmt.Fprintf(&b, "Run ID: %s\n", rr.RunID)
	fmt.Fprintf(&b, "Path: %s\n", rr.Path)
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "Found %d files to process\n\n", total)

	for i, it := range rr.Items {
		name := it.File
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(&b, "[%d/%d] Processing: %s\n", i+1, total, name)
		if it.File != "" {
			fmt.Fprintf(&b, "  Title: %s\n", it.Title)
			fmt.Fprintf(&b, "  Category: %s\n", it.Category)
			fmt.Fprintf(&b, "  Keywords: %s\n", it.Keywords)
		}
		if it.Succeeded() {
			b.WriteString("  ✓ Metadata added successfully\n")
		} else {
			fmt.Fprintf(&b, "  ✗ Failed to add metadata: %s: %s\n", it.ErrorCode, oneLine(it.ErrorMsg))
		}
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString("Processing complete!\n")
	fmt.Fprintf(&b, "Total files: %d\n", total)
	fmt.Fprintf(&b, "Successful: %d\n", rr.Summary.Successful)
	fmt.Fprintf(&b, "Failed: %d\n", rr.Summary.Failed)
	return b.Bytes()
}

// Write 把 Render 的结果原子写入 dir，返回日志文件的完整路径。
//
// 同名文件已存在（同一秒内多次运行）时追加 -2、-3… 后缀，从不覆盖已有日志。
func Write(dir string, rr domain.RunReport) (string, error) {
	data := Render(rr)
	base := strings.TrimSuffix(FileName(rr.StartedAt), ".txt")

	for n := 1; n < 100; n++ {
		name := base + ".txt"
		if n > 1 {
			name = fmt.Sprintf("%s-%d.txt", base, n)
		}
		err := fsx.WriteFileAtomicNoOverwrite(dir, name, data)
		if err == nil {
			return filepath.Join(dir, name), nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("日志文件名冲突过多：%s", base)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
