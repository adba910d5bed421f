package app

import (
	"sort"

	"github.com/John-Robertt/filetagger/internal/domain"
)

// CategoryGroup 是同一类别下的计划集合（只存 plan index）。
type CategoryGroup struct {
	Category string
	PlanIdx  []int
}

// GroupByCategory 把计划按类别分组，用于 preview 的类别统计。
//
// - 组按文件数降序，数量相同时按类别字典序
// - 组内 PlanIdx 稳定排序：按 RelPath 字典序
func GroupByCategory(plans []domain.ItemPlan) []CategoryGroup {
	index := make(map[string]int, 16)
	groups := make([]CategoryGroup, 0, 16)

	for i := range plans {
		c := plans[i].Category
		if idx, ok := index[c]; ok {
			groups[idx].PlanIdx = append(groups[idx].PlanIdx, i)
			continue
		}
		index[c] = len(groups)
		groups = append(groups, CategoryGroup{
			Category: c,
			PlanIdx:  []int{i},
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].PlanIdx) != len(groups[j].PlanIdx) {
			return len(groups[i].PlanIdx) > len(groups[j].PlanIdx)
		}
		return groups[i].Category < groups[j].Category
	})
	for i := range groups {
		sort.Slice(groups[i].PlanIdx, func(a, b int) bool {
			ia := groups[i].PlanIdx[a]
			ib := groups[i].PlanIdx[b]
			return plans[ia].File.RelPath < plans[ib].File.RelPath
		})
	}
	return groups
}
