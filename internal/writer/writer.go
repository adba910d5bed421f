// Package writer 按文件类别把元数据分派给对应的外部写入器。
package writer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/exiftool"
)

// Writer 把一条元数据原地写进 path 对应的文件。nil 表示成功。
type Writer interface {
	Write(ctx context.Context, path string, md domain.Metadata) error
}

// Error 是分派/写入阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Dispatcher 持有 类别 → 写入器 的表；新增类别只需改表。
type Dispatcher struct {
	table map[domain.FileClass]Writer
}

// NewDispatcher 把 document 交给 doc，把 image/video/audio 交给 media。
func NewDispatcher(doc, media Writer) *Dispatcher {
	return &Dispatcher{table: map[domain.FileClass]Writer{
		domain.ClassDocument: doc,
		domain.ClassImage:    media,
		domain.ClassVideo:    media,
		domain.ClassAudio:    media,
	}}
}

// Handles 报告该类别是否有写入器。
func (d *Dispatcher) Handles(class domain.FileClass) bool {
	w, ok := d.table[class]
	return ok && w != nil
}

// Write 按 path 的扩展名（大小写不敏感）选择写入器。
//
// 失败统一为 *Error：
// - unsupported_type：扩展名不在表内，不调用任何写入器
// - writer_unavailable：写入器依赖的外部工具不存在
// - write_failed：其余写入失败
func (d *Dispatcher) Write(ctx context.Context, path string, md domain.Metadata) error {
	ext := domain.NormalizeExt(filepath.Ext(path))
	class := domain.ClassifyExt(ext)
	if !d.Handles(class) {
		if ext == "" {
			ext = "(无扩展名)"
		}
		return &Error{Code: domain.ErrCodeUnsupportedType, Path: path, Err: fmt.Errorf("不支持的文件类型：%s", ext)}
	}

	if err := d.table[class].Write(ctx, path, md); err != nil {
		code := domain.ErrCodeWriteFailed
		if errors.Is(err, exiftool.ErrNotInstalled) {
			code = domain.ErrCodeWriterUnavailable
		}
		return &Error{Code: code, Path: path, Err: err}
	}
	return nil
}
