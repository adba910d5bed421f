package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/John-Robertt/filetagger/internal/domain"
	"github.com/John-Robertt/filetagger/internal/infra/fsx"
)

// Writer 把元数据写进 DOCX 的核心属性，并原地替换原文件。
//
// 约束：
// - 除 core.xml（以及缺失时需要补登记的 [Content_Types].xml / _rels/.rels）外，其余部件按原顺序原样拷贝
// - core.xml 只改写 title/subject/creator/keywords/description/category/modified，其余元素逐字节保留
// - created 已存在时保留原值，缺失时补为 modified
// - 任一步失败都不改动原文件
type Writer struct {
	// Now 用于生成 modified 时间；nil 时使用 time.Now。
	Now func() time.Time
}

func (w Writer) Write(ctx context.Context, path string, md domain.Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("%w：%v", ErrNotDocx, err)
	}
	defer r.Close()

	pkg, err := inspectPackage(&r.Reader)
	if err != nil {
		return err
	}

	src := []byte(emptyCore)
	if pkg.core != nil {
		if src, err = readEntry(pkg.core); err != nil {
			return err
		}
	}

	modified := w.now().UTC().Format("2006-01-02T15:04:05Z")
	core, err := patchCore(src, []coreValue{
		{field: fieldTitle, value: md.Title},
		{field: fieldSubject, value: md.Subject},
		{field: fieldCreator, value: md.Author},
		{field: fieldKeywords, value: md.Keywords},
		{field: fieldDescription, value: md.Description},
		{field: fieldCreated, value: modified, keep: true},
		{field: fieldModified, value: modified},
		{field: fieldCategory, value: md.Category},
	})
	if err != nil {
		return fmt.Errorf("生成 core.xml 失败：%w", err)
	}

	// core.xml 缺失时需要同时补登记内容类型与包关系，否则 Word 不会读取它。
	patched := map[string][]byte{}
	if pkg.core == nil {
		ct, err := readEntry(pkg.contentTypes)
		if err != nil {
			return err
		}
		patched[contentTypesPart] = ensureContentTypeOverride(ct)

		if pkg.rels != nil {
			rels, err := readEntry(pkg.rels)
			if err != nil {
				return err
			}
			patched[packageRelsPart] = ensureCoreRelationship(rels)
		}
	}

	return fsx.ReplaceFile(path, func(out io.Writer) error {
		zw := zip.NewWriter(out)
		for _, f := range r.File {
			if err := ctx.Err(); err != nil {
				return err
			}
			var (
				body []byte
				ok   bool
			)
			switch f.Name {
			case corePart:
				body, ok = core, true
			default:
				body, ok = patched[f.Name]
			}
			if !ok {
				if err := zw.Copy(f); err != nil {
					return fmt.Errorf("拷贝 %s 失败：%w", f.Name, err)
				}
				continue
			}
			if err := writeEntry(zw, f.FileHeader, body); err != nil {
				return err
			}
		}
		if pkg.core == nil {
			hdr := zip.FileHeader{Name: corePart, Method: zip.Deflate}
			hdr.Modified = w.now()
			if err := writeEntry(zw, hdr, core); err != nil {
				return err
			}
		}
		return zw.Close()
	})
}

func (w Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func writeEntry(zw *zip.Writer, hdr zip.FileHeader, body []byte) error {
	// 内容变了：沿用名称/压缩方式/时间，但大小与校验值必须由 zip.Writer 重新计算。
	h := zip.FileHeader{
		Name:     hdr.Name,
		Method:   hdr.Method,
		Modified: hdr.Modified,
	}
	fw, err := zw.CreateHeader(&h)
	if err != nil {
		return fmt.Errorf("写入 %s 失败：%w", hdr.Name, err)
	}
	if _, err := fw.Write(body); err != nil {
		return fmt.Errorf("写入 %s 失败：%w", hdr.Name, err)
	}
	return nil
}

func ensureContentTypeOverride(ct []byte) []byte {
	if bytes.Contains(ct, []byte(`"/`+corePart+`"`)) {
		return ct
	}
	override := `<Override PartName="/` + corePart + `" ContentType="` + coreContentType + `"/>`
	return insertBeforeClosing(ct, "</Types>", override)
}

func ensureCoreRelationship(rels []byte) []byte {
	if bytes.Contains(rels, []byte(coreRelType)) {
		return rels
	}
	rel := `<Relationship Id="rIdCoreProps" Type="` + coreRelType + `" Target="` + corePart + `"/>`
	return insertBeforeClosing(rels, "</Relationships>", rel)
}

func insertBeforeClosing(doc []byte, closing, elem string) []byte {
	i := bytes.LastIndex(doc, []byte(closing))
	if i < 0 {
		return doc
	}
	out := make([]byte, 0, len(doc)+len(elem))
	out = append(out, doc[:i]...)
	out = append(out, elem...)
	out = append(out, doc[i:]...)
	return out
}
