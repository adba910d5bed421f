// Package stopword 提供关键词抽取时使用的停用词集合。
package stopword

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmpty 表示停用词资源可以读取，但没有任何有效词条（按格式错误处理）。
var ErrEmpty = errors.New("stopword: 列表为空")

// Set 是不可变的小写停用词集合。零值可用（视为空集合）。
//
// 约束：构造后不再修改；可被多个抽取调用只读共享。
type Set struct {
	words map[string]struct{}
}

var defaultWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "will", "with", "or", "but", "not", "this", "these",
	"they", "their", "what", "when", "where", "who", "why", "how",
	"we", "our", "us",
}

// Default 返回内置的兜底停用词集合。
func Default() Set { return New(defaultWords) }

// New 用给定词表构造集合（去空白、转小写、去重）。
func New(words []string) Set {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		m[w] = struct{}{}
	}
	return Set{words: m}
}

// Contains 大小写不敏感地判断 word 是否为停用词。
func (s Set) Contains(word string) bool {
	if len(s.words) == 0 {
		return false
	}
	_, ok := s.words[strings.ToLower(word)]
	return ok
}

func (s Set) Len() int { return len(s.words) }

// Words 返回排序后的词表副本。
func (s Set) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

type yamlFile struct {
	Stopwords []string `yaml:"stopwords"`
}

// Load 读取停用词资源。
//
// 格式由扩展名决定：
// - .yml/.yaml：顶层 stopwords 列表（其他键忽略）
// - 其他：每行一个词；空行与 # 注释跳过；去掉 UTF-8 BOM
func Load(path string) (Set, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Set{}, err
	}

	var words []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		var f yamlFile
		if err := yaml.Unmarshal(b, &f); err != nil {
			return Set{}, fmt.Errorf("解析 YAML 失败：%w", err)
		}
		words = f.Stopwords
	default:
		words, err = readLines(b)
		if err != nil {
			return Set{}, err
		}
	}

	s := New(words)
	if s.Len() == 0 {
		return Set{}, ErrEmpty
	}
	return s, nil
}

// LoadOrDefault 与 Load 相同，但任何失败都降级为 Default() 并记录一条 warning；永不失败。
func LoadOrDefault(path string, logger *slog.Logger) Set {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(path) == "" {
		logger.Warn("未配置停用词文件，使用内置停用词", "count", len(defaultWords))
		return Default()
	}
	s, err := Load(path)
	if err != nil {
		logger.Warn("无法加载停用词文件，使用内置停用词", "path", path, "error", err)
		return Default()
	}
	logger.Debug("已加载停用词", "path", path, "count", s.Len())
	return s
}

func readLines(b []byte) ([]string, error) {
	b = bytes.TrimPrefix(b, []byte("\ufeff"))

	var out []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
