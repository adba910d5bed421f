package domain

import "strings"

// MediaFile 描述一次扫描得到的待打标文件（只做 stat，不读内容）。
//
// 不变量：
// - AbsPath 必须是 clean + absolute
// - Ext 已小写（".docx"）；Name 保留原始大小写
type MediaFile struct {
	AbsPath string
	RelPath string
	Name    string // 含扩展名的文件名
	Ext     string
	Size    int64
	ModUnix int64
}

// FileClass 是写入器分派用的文件类别（tagged variant）。
type FileClass int

const (
	ClassUnknown FileClass = iota
	ClassDocument
	ClassImage
	ClassVideo
	ClassAudio
)

func (c FileClass) String() string {
	switch c {
	case ClassDocument:
		return "document"
	case ClassImage:
		return "image"
	case ClassVideo:
		return "video"
	case ClassAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Label 是写进 description 模板的展示名。
func (c FileClass) Label() string {
	switch c {
	case ClassDocument:
		return "Document"
	case ClassImage:
		return "Image"
	case ClassVideo:
		return "Video"
	case ClassAudio:
		return "Audio"
	default:
		return "File"
	}
}

func (c FileClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *FileClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "document":
		*c = ClassDocument
	case "image":
		*c = ClassImage
	case "video":
		*c = ClassVideo
	case "audio":
		*c = ClassAudio
	default:
		*c = ClassUnknown
	}
	return nil
}

// classExts 的顺序即 DefaultExtensions 的顺序；新增类别只需改这张表。
var classExts = []struct {
	class FileClass
	exts  []string
}{
	{ClassDocument, []string{".docx"}},
	{ClassImage, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"}},
	{ClassVideo, []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}},
	{ClassAudio, []string{".mp3", ".wav", ".flac", ".ogg", ".m4a", ".wma", ".aac"}},
}

var extIndex = func() map[string]FileClass {
	m := make(map[string]FileClass, 32)
	for _, ce := range classExts {
		for _, e := range ce.exts {
			m[e] = ce.class
		}
	}
	return m
}()

// ClassifyExt 按扩展名（大小写不敏感，可不带前导点）返回文件类别；未知扩展名返回 ClassUnknown。
func ClassifyExt(ext string) FileClass {
	return extIndex[NormalizeExt(ext)]
}

// DefaultExtensions 返回内置的全部受支持扩展名（小写，带前导点）。
func DefaultExtensions() []string {
	out := make([]string, 0, len(extIndex))
	for _, ce := range classExts {
		out = append(out, ce.exts...)
	}
	return out
}

// NormalizeExt 把 "DOCX" / ".Docx" / " .docx " 统一为 ".docx"。空串保持为空。
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
