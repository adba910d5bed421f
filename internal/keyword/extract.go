// Package keyword 从文件名推导人类可读的关键词短语。
package keyword

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/filetagger/internal/stopword"
)

// 只剥离开头的排序号：数字 + 紧随的一个 '-' 或 '_'。文件名中间的数字不动。
var orderPrefixRE = regexp.MustCompile(`^\d+[-_]`)

var separators = strings.NewReplacer("-", " ", "_", " ")

// Extractor 按停用词集合抽取关键词。零值可用（不过滤任何词）。
type Extractor struct {
	Stopwords stopword.Set
}

func New(sw stopword.Set) Extractor { return Extractor{Stopwords: sw} }

// Extract 从文件名得到关键词短语（单空格连接，保持出现顺序）。
//
// 规则：
// - 去扩展名 → 去开头排序号 → '-'/'_' 变空格 → 按空白切词 → 过滤停用词
// - 过滤后为空时回退为未过滤的词序列（只要去前缀后的名字非空，结果就非空）
// - 名字本身为空（例如 "12-.docx"）时返回空串
func (e Extractor) Extract(filename string) string {
	words := Words(filename)
	if len(words) == 0 {
		return ""
	}

	kept := make([]string, 0, len(words))
	for _, w := range words {
		if e.Stopwords.Contains(w) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return strings.Join(words, " ")
	}
	return strings.Join(kept, " ")
}

// Words 返回过滤停用词之前的词序列。
func Words(filename string) []string {
	base := Stem(filename)
	base = orderPrefixRE.ReplaceAllString(base, "")
	return strings.Fields(separators.Replace(base))
}

// Stem 返回去掉目录与扩展名后的文件名；".hidden" 这种只有前导点的名字原样保留。
func Stem(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(name)
	if ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}
