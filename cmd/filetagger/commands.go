package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/filetagger/internal/app"
	"github.com/John-Robertt/filetagger/internal/app/planner"
	"github.com/John-Robertt/filetagger/internal/app/run"
	"github.com/John-Robertt/filetagger/internal/category"
	"github.com/John-Robertt/filetagger/internal/compose"
	"github.com/John-Robertt/filetagger/internal/config"
	"github.com/John-Robertt/filetagger/internal/docx"
	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/exiftool"
	"github.com/John-Robertt/filetagger/internal/keyword"
	"github.com/John-Robertt/filetagger/internal/runlog"
	"github.com/John-Robertt/filetagger/internal/stopword"
	"github.com/John-Robertt/filetagger/internal/writer"
)

// scanFlags 是 run/preview 共享的扫描相关参数。
type scanFlags struct {
	extensions []string
	recursive  bool
	author     string
	logDir     string
}

func (f *scanFlags) bind(cmd *cobra.Command, withLogDir bool) {
	cmd.Flags().StringSliceVar(&f.extensions, "extensions", nil, "只处理这些扩展名（例如 .docx,.jpg；默认全部受支持类型）")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "递归处理子目录")
	cmd.Flags().StringVar(&f.author, "author", "", "写入的作者名（默认 "+config.DefaultAuthor+"）")
	if withLogDir {
		cmd.Flags().StringVar(&f.logDir, "log-dir", "", "运行日志目录（默认当前目录）")
	}
}

// cliArgs 只把显式指定的 flag 标记为 Set，保证 --recursive=false 能覆盖配置文件。
func (f *scanFlags) cliArgs(cmd *cobra.Command, g *globalFlags, path string) config.CLIArgs {
	fl := cmd.Flags()
	return config.CLIArgs{
		Path:          path,
		ConfigPath:    g.configPath,
		Author:        f.author,
		AuthorSet:     fl.Changed("author"),
		Extensions:    f.extensions,
		ExtensionsSet: fl.Changed("extensions"),
		Recursive:     f.recursive,
		RecursiveSet:  fl.Changed("recursive"),
		LogDir:        f.logDir,
		LogDirSet:     fl.Changed("log-dir"),
	}
}

func runCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "run [path]",
		Short: "为文件或目录中的文件写入元数据",
		Long: `path 为文件时只处理该文件；为目录时处理其中扩展名命中的文件。
未给出 path 时从 ./tagger.yaml 的 path 字段读取。

stdout 为终端时打印摘要；否则 stdout 只输出一个 RunReport JSON。
每次运行都会写入 metadata-log-YYYYMMDD-HHMMSS.txt。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(stderr, g.logLevel)
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("读取当前目录失败：%w", err)}
			}

			eff, err := config.LoadEffective(cwd, f.cliArgs(cmd, g, firstArg(args)))
			if err != nil {
				cwdAbs, _ := filepath.Abs(cwd)
				emitReport(stdout, stderr, reportForConfigError(cwdAbs, err))
				return &exitError{code: 1}
			}

			deps := buildDeps(eff, logger)

			progressW, interactive := pickProgressWriter(stdout, stderr)
			var obs run.Observer
			if interactive {
				ui := newProgressUI(progressW)
				defer ui.Stop()
				obs = ui
			}

			rr, err := run.ProcessPath(cmd.Context(), eff, deps, obs)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			logPath, err := runlog.Write(eff.LogDir, rr)
			if err != nil {
				logger.Error("写入运行日志失败", "dir", eff.LogDir, "err", err)
			}

			emitReport(stdout, stderr, rr)
			if interactive && logPath != "" {
				fmt.Fprintf(progressW, "log: %s\n", logPath)
			}
			if rr.Summary.Failed > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	f.bind(cmd, true)
	return cmd
}

func previewCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "preview [path]",
		Short: "只显示将要写入的关键词与类别，不修改任何文件",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(stderr, g.logLevel)
			if err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			eff, err := config.LoadEffective(cwd, f.cliArgs(cmd, g, firstArg(args)))
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			pd := plannerDeps(eff, logger)
			plans, err := run.PlanPath(eff, pd)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			d := writer.NewDispatcher(docx.Writer{}, exiftool.Tool{})
			for _, p := range plans {
				fmt.Fprintln(stdout, formatPlan(p, pd.Classifier.Matches(p.File.Name), d.Handles(p.Class)))
			}
			fmt.Fprintf(stderr, "共 %d 个文件\n", len(plans))
			for _, grp := range app.GroupByCategory(plans) {
				fmt.Fprintf(stderr, "  %s: %d\n", grp.Category, len(grp.PlanIdx))
			}
			return nil
		},
	}
	f.bind(cmd, false)
	return cmd
}

func inspectCmd(g *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "读取文件中已嵌入的元数据（用于核对写入结果）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := newLogger(stderr, g.logLevel); err != nil {
				return err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			eff, err := config.LoadEffective(cwd, config.CLIArgs{Path: args[0], ConfigPath: g.configPath})
			if err != nil {
				return &exitError{code: 1, err: err}
			}
			if _, err := os.Stat(eff.Path); err != nil {
				return &exitError{code: 1, err: &run.PathError{Path: eff.Path, Err: err}}
			}

			switch domain.ClassifyExt(filepath.Ext(eff.Path)) {
			case domain.ClassDocument:
				props, err := docx.ReadProperties(eff.Path)
				if err != nil {
					return &exitError{code: 1, err: err}
				}
				printFields(stdout, [][2]string{
					{"Title", props.Title},
					{"Subject", props.Subject},
					{"Author", props.Creator},
					{"Keywords", props.Keywords},
					{"Category", props.Category},
					{"Description", props.Description},
					{"LastModifiedBy", props.LastModifiedBy},
					{"Revision", props.Revision},
					{"Created", props.Created},
					{"Modified", props.Modified},
				})
			case domain.ClassUnknown:
				return &exitError{code: 1, err: fmt.Errorf("%s：不支持的文件类型 %q", domain.ErrCodeUnsupportedType, filepath.Ext(eff.Path))}
			default:
				tool := exiftool.Tool{Bin: eff.ExifToolPath, Timeout: eff.ExifToolTimeout}
				tags, err := tool.Read(cmd.Context(), eff.Path)
				if err != nil {
					return &exitError{code: 1, err: err}
				}
				keys := make([]string, 0, len(tags))
				for k := range tags {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fields := make([][2]string, 0, len(keys))
				for _, k := range keys {
					fields = append(fields, [2]string{k, tags[k]})
				}
				printFields(stdout, fields)
			}
			return nil
		},
	}
}

// buildDeps 按生效配置组装一次 run 的全部组件。
func buildDeps(eff config.EffectiveConfig, logger *slog.Logger) run.Deps {
	tool := exiftool.Tool{Bin: eff.ExifToolPath, Timeout: eff.ExifToolTimeout}
	if !tool.Available() {
		// 不致命：只有图片/音视频文件会因此失败（writer_unavailable）。
		logger.Warn("未找到 exiftool，图片/音频/视频文件将无法写入", "hint", exiftool.InstallHint)
	}
	return run.Deps{
		Planner: plannerDeps(eff, logger),
		Writer:  writer.NewDispatcher(docx.Writer{}, tool),
		Logger:  logger,
	}
}

func plannerDeps(eff config.EffectiveConfig, logger *slog.Logger) planner.Deps {
	sw := stopword.LoadOrDefault(eff.StopwordsPath, logger)
	logger.Debug("停用词已加载", "path", eff.StopwordsPath, "count", sw.Len())
	return planner.Deps{
		Extractor:  keyword.New(sw),
		Classifier: category.New(),
		Composer:   compose.Composer{Author: eff.Author},
	}
}

func formatPlan(p domain.ItemPlan, matches []string, writable bool) string {
	w := "none"
	if writable {
		w = "exiftool"
		if p.Class == domain.ClassDocument {
			w = "docx"
		}
	}
	m := "-"
	if len(matches) > 0 {
		m = strings.Join(matches, ",")
	}
	return fmt.Sprintf("%s\tclass=%s writer=%s category=%q keywords=%q matches=%s",
		p.File.RelPath, p.Class, w, p.Category, p.Keywords, m,
	)
}

func printFields(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		if len(f[0]) > width {
			width = len(f[0])
		}
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%-*s  %s\n", width+1, f[0]+":", f[1])
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
