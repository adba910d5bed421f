package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/filetagger/internal/config"
	"github.com/John-Robertt/filetagger/internal/domain"
)

const (
	Version = "0.1.0"
	appName = "filetagger"
)

// exitError 把子命令的结果映射为进程退出码；err 为空时不再额外打印。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute 运行命令树并返回退出码：0 全部成功；1 有失败或致命错误；2 用法错误。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := rootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "错误：%v\n", ee.err)
		}
		return ee.code
	}

	// 其余都来自 cobra 的参数解析（未知命令/未知 flag/参数个数不对）。
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	fmt.Fprintf(stderr, "使用 \"%s --help\" 查看用法。\n", appName)
	return 2
}

// globalFlags 是所有子命令共享的 persistent flags。
type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "根据文件名为文档与媒体文件写入元数据",
		Long: `filetagger 从文件名推导关键词与类别，并写入文件自带的元数据容器：
- .docx 写入 docProps/core.xml
- 图片/音频/视频通过 exiftool 写入

配置文件为 tagger.yaml（可选；无参运行时必选）。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "配置文件路径（默认查找 tagger.yaml）")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "日志级别（debug, info, warn, error）")

	cmd.AddCommand(
		runCmd(g, stdout, stderr),
		previewCmd(g, stdout, stderr),
		inspectCmd(g, stdout, stderr),
		&cobra.Command{
			Use:   "version",
			Short: "打印版本信息",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// newLogger 构造写往 stderr 的 slog logger，并设为默认 logger。
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = slog.LevelDebug
	case "info":
		lv = slog.LevelInfo
	case "", "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		return nil, fmt.Errorf("--log-level 只能是 debug/info/warn/error，实际是 %q", level)
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
	slog.SetDefault(logger)
	return logger, nil
}

// emitReport 按 stdout 是否为 TTY 决定输出形态。
//
// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
func emitReport(stdout, stderr io.Writer, rr domain.RunReport) {
	summary := fmt.Sprintf("完成：total=%d successful=%d failed=%d\n",
		rr.Summary.Total, rr.Summary.Successful, rr.Summary.Failed,
	)

	if isTTY(stdout) {
		fmt.Fprint(stdout, summary)
		for _, it := range rr.Items {
			if it.Succeeded() {
				continue
			}
			key := it.File
			if key == "" {
				key = "<none>"
			}
			fmt.Fprintf(stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	enc := json.NewEncoder(stdout)
	_ = enc.Encode(rr)
	fmt.Fprint(stderr, summary)
}

// reportForConfigError 让配置错误同样以 RunReport 形式输出，便于脚本统一处理。
func reportForConfigError(cwdAbs string, err error) domain.RunReport {
	now := time.Now().UTC()
	code := config.Code(err)
	if code == "" {
		code = domain.ErrCodeConfigInvalid
	}
	rr := domain.RunReport{
		Path:       cwdAbs,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: code,
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(stdout, stderr io.Writer) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(stderr) {
		return stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(stdout) {
		return stdout, true
	}
	return nil, false
}
