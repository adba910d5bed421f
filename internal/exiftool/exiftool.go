// Package exiftool 通过外部 exiftool 命令读写图片/音频/视频的标签。
package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/John-Robertt/filetagger/internal/domain"
)

// DefaultTimeout 是单次 exiftool 调用的默认超时。
const DefaultTimeout = 60 * time.Second

// waitDelay 是超时杀掉 exiftool 后等待其子进程释放输出管道的上限。
const waitDelay = time.Second

// InstallHint 是找不到 exiftool 时给用户的安装提示。
const InstallHint = "sudo apt install libimage-exiftool-perl"

// ErrNotInstalled 表示宿主机上找不到 exiftool。
var ErrNotInstalled = errors.New("exiftool 未安装（安装方法：" + InstallHint + "）")

// 通过可替换的函数指针，让测试不依赖宿主机 PATH。
var lookPath = exec.LookPath

// ExitError 表示 exiftool 以非零状态退出。
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exiftool 退出码 %d", e.Code)
	}
	return fmt.Sprintf("exiftool 退出码 %d：%s", e.Code, e.Stderr)
}

// Tool 是一次性调用 exiftool 的写入器/读取器。
//
// 约束：每个文件只调用一次，不重试；失败对该文件是终局。
type Tool struct {
	// Bin 是 exiftool 可执行文件路径或命令名；空串时使用 "exiftool"。
	Bin string
	// Timeout 是单次调用的超时；<=0 时使用 DefaultTimeout。
	Timeout time.Duration
}

// Available 报告 exiftool 是否可用。
func (t Tool) Available() bool {
	_, err := t.resolve()
	return err == nil
}

// Write 以覆盖原文件（不保留 _original 备份）的方式写入标签。
func (t Tool) Write(ctx context.Context, path string, md domain.Metadata) error {
	args := append([]string{"-overwrite_original"}, WriteArgs(md)...)
	args = append(args, path)
	_, err := t.run(ctx, args)
	return err
}

// WriteArgs 把元数据映射为 exiftool 的标签参数；空字段不写。
//
// author 同时写入 Artist/Author，description 同时写入 Description/Comment，
// 以覆盖不同容器格式各自读取的标签名。
func WriteArgs(md domain.Metadata) []string {
	var args []string
	add := func(tag, v string) {
		if v == "" {
			return
		}
		args = append(args, "-"+tag+"="+v)
	}
	add("Title", md.Title)
	add("Keywords", md.Keywords)
	add("Subject", md.Subject)
	add("Artist", md.Author)
	add("Author", md.Author)
	add("Description", md.Description)
	add("Comment", md.Description)
	add("Category", md.Category)
	return args
}

var readTags = []string{"Title", "Keywords", "Subject", "Artist", "Author", "Description", "Comment", "Category"}

// Read 读取 path 上与 Write 对应的标签（exiftool -json）。
// 返回值的 key 是标签名；缺失的标签不出现在结果中。
func (t Tool) Read(ctx context.Context, path string) (map[string]string, error) {
	args := []string{"-json"}
	for _, tag := range readTags {
		args = append(args, "-"+tag)
	}
	args = append(args, path)

	out, err := t.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, fmt.Errorf("解析 exiftool JSON 输出失败：%w", err)
	}
	res := map[string]string{}
	if len(rows) == 0 {
		return res, nil
	}
	for _, tag := range readTags {
		v, ok := rows[0][tag]
		if !ok {
			continue
		}
		res[tag] = stringify(v)
	}
	return res, nil
}

func (t Tool) resolve() (string, error) {
	bin := strings.TrimSpace(t.Bin)
	if bin == "" {
		bin = "exiftool"
	}
	p, err := lookPath(bin)
	if err != nil {
		return "", ErrNotInstalled
	}
	return p, nil
}

func (t Tool) run(ctx context.Context, args []string) ([]byte, error) {
	bin, err := t.resolve()
	if err != nil {
		return nil, err
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// exiftool 可能是包装脚本；子进程继续持有管道时 Run 不能无限等待。
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("exiftool 调用超时或被取消（%s）：%w", timeout, ctxErr)
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return nil, &ExitError{Code: ee.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
		}
		return nil, fmt.Errorf("启动 exiftool 失败：%w", err)
	}
	return stdout.Bytes(), nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, stringify(p))
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
