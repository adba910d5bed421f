package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/filetagger/internal/app/planner"
	"github.com/John-Robertt/filetagger/internal/config"
	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/scan"
	"github.com/John-Robertt/filetagger/internal/writer"
)

// Deps 是一次 run 所需的组件，由上层（CLI/测试）组装。
type Deps struct {
	Planner planner.Deps
	// Writer 通常是 *writer.Dispatcher；失败需返回 *writer.Error 才能带上 error_code。
	Writer writer.Writer
	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// PathError 表示目标路径不存在或不可访问（致命错误，整个 run 不执行）。
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("路径不可用 %q：%v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// IsPathError 报告 err 是否为 *PathError。
func IsPathError(err error) bool {
	var pe *PathError
	return errors.As(err, &pe)
}

// ProcessPath 处理 eff.Path：文件 → 单条报告；目录 → Execute；不存在 → *PathError。
func ProcessPath(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) (domain.RunReport, error) {
	st, err := os.Stat(eff.Path)
	if err != nil {
		return domain.RunReport{}, &PathError{Path: eff.Path, Err: err}
	}
	if st.IsDir() {
		return Execute(ctx, eff, deps, obs)
	}

	f, err := scan.Single(eff.Path)
	if err != nil {
		return domain.RunReport{}, &PathError{Path: eff.Path, Err: err}
	}

	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
		obs.OnPhaseDone("scan", map[string]any{"files": 1}, 0)
	}
	rr := newReport(eff, started)
	return executeFiles(ctx, rr, []domain.MediaFile{f}, deps, obs), nil
}

// Execute 扫描目录 eff.Path 并逐个文件处理，返回对外稳定的 RunReport。
//
// 单个文件失败不影响其他文件；ctx 取消后在文件之间停止，剩余文件不计入报告。
// 扫描失败是致命错误：返回 *PathError，不产生任何条目。
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) (domain.RunReport, error) {
	started := time.Now().UTC()
	if obs != nil {
		obs.OnStart(eff)
	}
	rr := newReport(eff, started)

	scanStarted := time.Now()
	files, err := scan.Files(eff.Path, scanOptions(eff))
	if err != nil {
		deps.logger().Error("扫描失败", "path", eff.Path, "err", err)
		return domain.RunReport{}, &PathError{Path: eff.Path, Err: fmt.Errorf("扫描失败：%w", err)}
	}
	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{"files": len(files)}, time.Since(scanStarted))
	}

	return executeFiles(ctx, rr, files, deps, obs), nil
}

// PlanPath 只做扫描与规划，不写入任何文件（preview 使用）。
func PlanPath(eff config.EffectiveConfig, deps planner.Deps) ([]domain.ItemPlan, error) {
	st, err := os.Stat(eff.Path)
	if err != nil {
		return nil, &PathError{Path: eff.Path, Err: err}
	}
	if !st.IsDir() {
		f, err := scan.Single(eff.Path)
		if err != nil {
			return nil, &PathError{Path: eff.Path, Err: err}
		}
		return []domain.ItemPlan{planner.PlanFile(f, deps)}, nil
	}
	files, err := scan.Files(eff.Path, scanOptions(eff))
	if err != nil {
		return nil, &PathError{Path: eff.Path, Err: fmt.Errorf("扫描失败：%w", err)}
	}
	return planner.PlanAll(files, deps), nil
}

func executeFiles(ctx context.Context, rr domain.RunReport, files []domain.MediaFile, deps Deps, obs Observer) domain.RunReport {
	log := deps.logger()

	planStarted := time.Now()
	plans := planner.PlanAll(files, deps.Planner)
	if obs != nil {
		unsupported := 0
		for i := range plans {
			if plans[i].Class == domain.ClassUnknown {
				unsupported++
			}
		}
		obs.OnPhaseDone("plan", map[string]any{
			"items":       len(plans),
			"unsupported": unsupported,
		}, time.Since(planStarted))
		obs.OnPhaseDone("exec", map[string]any{"total_items": len(plans)}, 0)
	}

	// 执行阶段：单 goroutine 顺序处理；顺序即扫描顺序。
	for i, p := range plans {
		if err := ctx.Err(); err != nil {
			log.Warn("运行被取消，剩余文件不再处理", "done", i, "total", len(plans), "err", err)
			break
		}

		oneStarted := time.Now()
		res := execOne(ctx, deps, p)
		if !res.Succeeded() {
			log.Warn("写入元数据失败", "file", p.File.RelPath, "code", res.ErrorCode, "err", res.ErrorMsg)
		} else {
			log.Debug("写入元数据成功", "file", p.File.RelPath, "category", res.Category)
		}

		rr.Items = append(rr.Items, res)
		if obs != nil {
			obs.OnItemDone(i+1, len(plans), p.File.RelPath, res, time.Since(oneStarted))
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

func execOne(ctx context.Context, deps Deps, p domain.ItemPlan) domain.ItemResult {
	item := domain.ItemResult{
		File:     p.File.RelPath,
		Class:    p.Class,
		Title:    p.Meta.Title,
		Keywords: p.Keywords,
		Category: p.Category,
		Status:   domain.StatusSucceeded, // 失败时覆盖
	}

	if deps.Writer == nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeWriterUnavailable
		item.ErrorMsg = "未配置写入器"
		return item
	}

	if err := deps.Writer.Write(ctx, p.File.AbsPath, p.Meta); err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = writer.Code(err)
		if item.ErrorCode == "" {
			item.ErrorCode = domain.ErrCodeWriteFailed
		}
		item.ErrorMsg = errorMessage(err)
	}
	return item
}

// errorMessage 去掉 *writer.Error 的 code 前缀，报告中 code 与 msg 分开存放。
func errorMessage(err error) string {
	var we *writer.Error
	if errors.As(err, &we) && we.Err != nil {
		return we.Err.Error()
	}
	return err.Error()
}

func newReport(eff config.EffectiveConfig, started time.Time) domain.RunReport {
	return domain.RunReport{
		RunID:     uuid.NewString(),
		Path:      eff.Path,
		StartedAt: started,
		Items:     make([]domain.ItemResult, 0, 64),
	}
}

func scanOptions(eff config.EffectiveConfig) scan.Options {
	return scan.Options{
		Extensions: eff.Extensions,
		Recursive:  eff.Recursive,
		Exclude:    eff.Exclude,
	}
}
