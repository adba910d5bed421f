package planner

import (
	"path/filepath"
	"sort"

	"github.com/John-Robertt/filetagger/internal/category"
	"github.com/John-Robertt/filetagger/internal/compose"
	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/keyword"
)

// Deps 是生成计划所需的纯函数组件。零值可用：不过滤停用词、使用内置规则表、作者为空。
type Deps struct {
	Extractor  keyword.Extractor
	Classifier category.Classifier
	Composer   compose.Composer
}

// PlanFile 基于文件名生成确定性的处理计划（不读文件内容，不做任何写入）。
//
// 流程：抽取关键词 → 分类 → 组装元数据。Class 由扩展名决定；未知扩展名同样生成计划，
// 由写入阶段判定为 unsupported_type。
func PlanFile(file domain.MediaFile, deps Deps) domain.ItemPlan {
	name := file.Name
	ext := file.Ext
	if ext == "" {
		ext = domain.NormalizeExt(filepath.Ext(name))
	}
	class := domain.ClassifyExt(ext)

	kw := deps.Extractor.Extract(name)
	cat := deps.Classifier.Classify(name)

	return domain.ItemPlan{
		File:     file,
		Class:    class,
		Keywords: kw,
		Category: cat,
		Meta:     deps.Composer.Compose(name, kw, cat, class),
	}
}

// PlanAll 按输入顺序为每个文件生成计划。
func PlanAll(files []domain.MediaFile, deps Deps) []domain.ItemPlan {
	out := make([]domain.ItemPlan, 0, len(files))
	for _, f := range files {
		out = append(out, PlanFile(f, deps))
	}
	return out
}

// SortPlans 让上层在需要时可显式保证稳定顺序（按相对路径）。
func SortPlans(plans []domain.ItemPlan) {
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].File.RelPath < plans[j].File.RelPath })
}
