package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/filetagger/internal/domain"
)

const (
	// ErrCodeNotFound 表示配置文件必选但不存在（无参运行时的 <cwd>/tagger.yaml，或显式 --config）。
	ErrCodeNotFound = domain.ErrCodeConfigNotFound
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeMissingPath 表示无参运行但配置文件缺少 path 字段。
	ErrCodeMissingPath = domain.ErrCodeConfigMissingPath
)

const (
	// FileName 是配置文件的固定文件名。
	FileName = "tagger.yaml"
	// DefaultAuthor 是作者的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultAuthor = "Raymond Clements"
	// DefaultStopwordsFile 是停用词资源的默认文件名（相对配置文件目录；无配置文件时相对 cwd）。
	DefaultStopwordsFile = "stopwords.yml"
	// DefaultExifToolTimeout 是单次 exiftool 调用的默认超时。
	DefaultExifToolTimeout = 60 * time.Second
)

// CLIArgs 保留“是否显式指定”的信息，保证 --recursive=false 能覆盖 recursive: true。
type CLIArgs struct {
	Path string
	// ConfigPath 为 --config；非空时该文件必须存在。
	ConfigPath string

	Author    string
	AuthorSet bool

	Extensions    []string
	ExtensionsSet bool

	Recursive    bool
	RecursiveSet bool

	LogDir    string
	LogDirSet bool
}

// FileConfig 对应 tagger.yaml 的解析结构。未知字段忽略。
type FileConfig struct {
	Path       string          `yaml:"path"`
	Author     string          `yaml:"author"`
	Extensions []string        `yaml:"extensions"`
	Recursive  *bool           `yaml:"recursive"`
	Exclude    []string        `yaml:"exclude"`
	Stopwords  string          `yaml:"stopwords"`
	LogDir     string          `yaml:"log_dir"`
	ExifTool   *ExifToolConfig `yaml:"exiftool"`
}

type ExifToolConfig struct {
	Path    string `yaml:"path"`
	Timeout string `yaml:"timeout"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Path 是要处理的文件或目录（绝对路径）。
	Path string
	// ConfigFile 是实际读到的配置文件；没有读到时为空。
	ConfigFile string

	Author     string
	Extensions []string
	Recursive  bool
	Exclude    []string

	StopwordsPath string
	LogDir        string

	ExifToolPath    string
	ExifToolTimeout time.Duration
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：配置文件 %q 缺少必填字段 path", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 按固定规则发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：读取该文件（必选）
// 2) CLI 提供 path：尝试读取 <dir>/tagger.yaml（可选；path 是文件时 dir 为其父目录）
// 3) 都没有：必须读取 <cwd>/tagger.yaml（必选）
// CLI 未提供 path 时，配置文件中必须包含 path。
//
// 配置文件中的相对路径以配置文件所在目录为基准；CLI 的相对路径以 cwd 为基准。
//
// 覆盖优先级（固定）：CLI（仅显式指定时）> config > 默认。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cliPath := ""
	if strings.TrimSpace(cli.Path) != "" {
		cliPath = absCleanFrom(cwdAbs, cli.Path)
	}

	var (
		cfgPath  string
		required bool
	)
	switch {
	case strings.TrimSpace(cli.ConfigPath) != "":
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	case cliPath != "":
		dir := cliPath
		if st, e := os.Stat(cliPath); e == nil && !st.IsDir() {
			dir = filepath.Dir(cliPath)
		}
		cfgPath = filepath.Join(dir, FileName)
	default:
		cfgPath = filepath.Join(cwdAbs, FileName)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists && required {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
	}

	// 配置文件中的相对路径以其所在目录为基准；没有配置文件时退回 cwd。
	base := cwdAbs
	if exists {
		base = filepath.Dir(cfgPath)
	} else {
		cfgPath = ""
	}

	absPath := cliPath
	if absPath == "" {
		if strings.TrimSpace(fc.Path) == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath}
		}
		absPath = absCleanFrom(base, fc.Path)
	}

	return merge(absPath, cwdAbs, base, cli, fc, cfgPath)
}

func merge(absPath, cwdAbs, base string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) error { return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err} }

	// author：CLI > config > 默认
	author := DefaultAuthor
	if cli.AuthorSet {
		author = strings.TrimSpace(cli.Author)
	} else if strings.TrimSpace(fc.Author) != "" {
		author = strings.TrimSpace(fc.Author)
	}

	// extensions：CLI > config > 空（由 scan 使用内置默认集合）
	exts := normalizeExtensions(fc.Extensions)
	if cli.ExtensionsSet {
		exts = normalizeExtensions(cli.Extensions)
	}

	// recursive：CLI --recursive/--recursive=false > config > 默认 false
	recursive := false
	if cli.RecursiveSet {
		recursive = cli.Recursive
	} else if fc.Recursive != nil {
		recursive = *fc.Recursive
	}

	exclude := make([]string, 0, len(fc.Exclude))
	for _, x := range fc.Exclude {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(x)) {
			return EffectiveConfig{}, invalid(fmt.Errorf("exclude 模式非法：%q", x))
		}
		exclude = append(exclude, x)
	}

	stopwords := filepath.Join(base, DefaultStopwordsFile)
	if strings.TrimSpace(fc.Stopwords) != "" {
		stopwords = absCleanFrom(base, fc.Stopwords)
	}

	// log_dir：CLI > config > cwd
	logDir := cwdAbs
	if cli.LogDirSet && strings.TrimSpace(cli.LogDir) != "" {
		logDir = absCleanFrom(cwdAbs, cli.LogDir)
	} else if strings.TrimSpace(fc.LogDir) != "" {
		logDir = absCleanFrom(base, fc.LogDir)
	}

	exifPath := ""
	timeout := DefaultExifToolTimeout
	if fc.ExifTool != nil {
		if p := strings.TrimSpace(fc.ExifTool.Path); p != "" {
			// 只有带路径分隔符时才按路径解析；裸名字交给 PATH 查找。
			if strings.ContainsRune(p, '/') || strings.ContainsRune(p, filepath.Separator) {
				p = absCleanFrom(base, p)
			}
			exifPath = p
		}
		if s := strings.TrimSpace(fc.ExifTool.Timeout); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return EffectiveConfig{}, invalid(fmt.Errorf("exiftool.timeout 无效：%w", err))
			}
			if d <= 0 {
				return EffectiveConfig{}, invalid(fmt.Errorf("exiftool.timeout 必须为正数：%q", s))
			}
			timeout = d
		}
	}

	return EffectiveConfig{
		Path:            absPath,
		ConfigFile:      cfgPath,
		Author:          author,
		Extensions:      exts,
		Recursive:       recursive,
		Exclude:         exclude,
		StopwordsPath:   stopwords,
		LogDir:          logDir,
		ExifToolPath:    exifPath,
		ExifToolTimeout: timeout,
	}, nil
}

// normalizeExtensions 接受 ".docx"、"DOCX"、".jpg,.png" 等写法，输出小写带点、去重、保序。
func normalizeExtensions(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, item := range in {
		for _, e := range strings.Split(item, ",") {
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
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
