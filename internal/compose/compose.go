// Package compose 把抽取结果组装成要写入的元数据记录。
package compose

import (
	"strings"

	"github.com/John-Robertt/filetagger/internal/domain"
)

// DefaultAuthor 是未配置作者时使用的作者名。
const DefaultAuthor = "Raymond Clements"

// Composer 是纯函数式的元数据组装器：相同输入永远得到相同记录。
type Composer struct {
	Author string
}

// Compose 组装元数据记录。
//
// 字段映射：
// - title / keywords = 关键词短语
// - subject / category = 类别
// - description = "<类别展示名>: <关键词>"（Document/Image/Video/Audio，未知为 File）
func (c Composer) Compose(_, keywords, category string, class domain.FileClass) domain.Metadata {
	keywords = strings.TrimSpace(keywords)
	category = strings.TrimSpace(category)
	return domain.Metadata{
		Title:       keywords,
		Subject:     category,
		Author:      strings.TrimSpace(c.Author),
		Keywords:    keywords,
		Category:    category,
		Description: class.Label() + ": " + keywords,
	}
}
