package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/John-Robertt/filetagger/internal/domain"
)

// Options 控制扫描范围。
type Options struct {
	// Extensions 为空时使用 domain.DefaultExtensions()。
	Extensions []string
	// Recursive 为 false 时只看 root 的直接子文件。
	Recursive bool
	// Exclude 是相对 root 的 doublestar 模式（例如 "drafts/**"、"**/*.tmp.*"）。
	Exclude []string
}

// Files 扫描 root 下扩展名命中的普通文件。
//
// 规则：
// - 扩展名大小写不敏感（.docx/.DOCX/.Docx 都命中，且同一文件只出现一次）
// - 隐藏文件与隐藏目录（'.' 开头）跳过：原子写入的临时文件也以 '.' 开头
// - 输出按 RelPath 字典序稳定排序
//
// 注意：扫描阶段只做 stat（DirEntry.Info），不读文件内容。
func Files(root string, opts Options) ([]domain.MediaFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	patterns := buildPatterns(opts)
	for _, x := range opts.Exclude {
		if !doublestar.ValidatePattern(filepath.ToSlash(x)) {
			return nil, fmt.Errorf("非法 exclude 模式：%q", x)
		}
	}

	files := make([]domain.MediaFile, 0, 128)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(rel)

		if d.IsDir() {
			if !opts.Recursive || isHidden(d.Name()) || isExcluded(slashRel, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(d.Name()) || !d.Type().IsRegular() {
			return nil
		}
		if !matchesAny(strings.ToLower(slashRel), patterns) || isExcluded(slashRel, opts.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		name := d.Name()
		files = append(files, domain.MediaFile{
			AbsPath: path,
			RelPath: rel,
			Name:    name,
			Ext:     domain.NormalizeExt(filepath.Ext(name)),
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

// Single 把单个文件描述为 MediaFile（RelPath 为文件名）。不做扩展名过滤。
func Single(path string) (domain.MediaFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.MediaFile{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return domain.MediaFile{}, err
	}
	if info.IsDir() {
		return domain.MediaFile{}, fmt.Errorf("%q 是目录", abs)
	}
	name := filepath.Base(abs)
	return domain.MediaFile{
		AbsPath: abs,
		RelPath: name,
		Name:    name,
		Ext:     domain.NormalizeExt(filepath.Ext(name)),
		Size:    info.Size(),
		ModUnix: info.ModTime().Unix(),
	}, nil
}

// NormalizeExtensions 规范化并去重扩展名列表（保持首次出现的顺序）。
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = domain.NormalizeExt(e)
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// buildPatterns 为每个扩展名生成小写 doublestar 模式；匹配时路径同样转小写。
func buildPatterns(opts Options) []string {
	exts := NormalizeExtensions(opts.Extensions)
	if len(exts) == 0 {
		exts = domain.DefaultExtensions()
	}
	prefix := "*"
	if opts.Recursive {
		prefix = "**/*"
	}
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		out = append(out, prefix+e)
	}
	return out
}

func matchesAny(slashRel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, slashRel); ok {
			return true
		}
	}
	return false
}

func isExcluded(slashRel string, exclude []string) bool {
	for _, x := range exclude {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if ok, _ := doublestar.Match(filepath.ToSlash(x), slashRel); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
