// Package docx 读写 DOCX（OPC zip 容器）的核心文档属性 docProps/core.xml。
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	corePart         = "docProps/core.xml"
	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"

	coreContentType = "application/vnd.openxmlformats-package.core-properties+xml"
	coreRelType     = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
)

// ErrNotDocx 表示文件不是合法的 OPC 包（打不开 zip 或缺少 [Content_Types].xml）。
var ErrNotDocx = errors.New("docx: 不是有效的 DOCX 文件")

// Properties 是 core.xml 中本工具关心的字段。
//
// Created/Modified 保持 W3CDTF 原文（例如 "2024-01-02T03:04:05Z"），不做解析。
type Properties struct {
	Title          string `json:"title"`
	Subject        string `json:"subject"`
	Creator        string `json:"author"`
	Keywords       string `json:"keywords"`
	Category       string `json:"category"`
	Description    string `json:"comments"`
	LastModifiedBy string `json:"last_modified_by"`
	Revision       string `json:"revision"`
	Created        string `json:"created"`
	Modified       string `json:"modified"`
}

// ReadProperties 打开 path 并读取其核心属性；没有 core.xml 时返回零值。
func ReadProperties(path string) (Properties, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Properties{}, fmt.Errorf("%w：%v", ErrNotDocx, err)
	}
	defer r.Close()

	pkg, err := inspectPackage(&r.Reader)
	if err != nil {
		return Properties{}, err
	}
	if pkg.core == nil {
		return Properties{}, nil
	}
	b, err := readEntry(pkg.core)
	if err != nil {
		return Properties{}, err
	}
	return parseCore(b)
}

// parseCore 逐 token 读取 core.xml：
// - 只看根元素直接子元素的本地名，不依赖命名空间前缀（dc:/cp:/dcterms:、默认命名空间或其他生成器的写法）
// - 容忍 <cp:keywords/> 这类自闭合空元素（只取元素自身的直接文本）
// - 同名元素只认第一个非空值
func parseCore(b []byte) (Properties, error) {
	d := xml.NewDecoder(bytes.NewReader(b))

	var (
		p     Properties
		depth int
		dst   *string
		text  strings.Builder
	)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Properties{}, fmt.Errorf("解析 core.xml 失败：%w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 {
				dst = p.field(t.Name.Local)
				text.Reset()
			}
		case xml.CharData:
			if depth == 2 && dst != nil {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 2 && dst != nil {
				if *dst == "" {
					*dst = strings.TrimSpace(text.String())
				}
				dst = nil
			}
			depth--
		}
	}
	return p, nil
}

func (p *Properties) field(local string) *string {
	switch strings.ToLower(local) {
	case "title":
		return &p.Title
	case "subject":
		return &p.Subject
	case "creator":
		return &p.Creator
	case "keywords":
		return &p.Keywords
	case "category":
		return &p.Category
	case "description":
		return &p.Description
	case "lastmodifiedby":
		return &p.LastModifiedBy
	case "revision":
		return &p.Revision
	case "created":
		return &p.Created
	case "modified":
		return &p.Modified
	}
	return nil
}

const (
	nsCP      = "http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsDCTerms = "http://purl.org/dc/terms/"
	nsXSI     = "http://www.w3.org/2001/XMLSchema-instance"
)

// emptyCore 是 core.xml 缺失时的起点（带 standalone="yes" 头，与 Word 产物一致）。
const emptyCore = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<cp:coreProperties xmlns:cp="` + nsCP + `" xmlns:dc="` + nsDC + `" xmlns:dcterms="` + nsDCTerms +
	`" xmlns:dcmitype="http://purl.org/dc/dcmitype/" xmlns:xsi="` + nsXSI + `"></cp:coreProperties>`

// coreField 描述 core.xml 中的一个属性元素；prefix 只在根元素没有声明该命名空间时使用。
type coreField struct {
	local  string
	space  string
	prefix string
	dated  bool
}

var (
	fieldTitle       = coreField{local: "title", space: nsDC, prefix: "dc"}
	fieldSubject     = coreField{local: "subject", space: nsDC, prefix: "dc"}
	fieldCreator     = coreField{local: "creator", space: nsDC, prefix: "dc"}
	fieldKeywords    = coreField{local: "keywords", space: nsCP, prefix: "cp"}
	fieldDescription = coreField{local: "description", space: nsDC, prefix: "dc"}
	fieldCreated     = coreField{local: "created", space: nsDCTerms, prefix: "dcterms", dated: true}
	fieldModified    = coreField{local: "modified", space: nsDCTerms, prefix: "dcterms", dated: true}
	fieldCategory    = coreField{local: "category", space: nsCP, prefix: "cp"}
)

// coreValue 是一次写入中某个属性的目标值。
type coreValue struct {
	field coreField
	value string
	// keep 为 true 时已有元素原样保留，只在缺失时插入。
	keep bool
}

type elemSpan struct {
	local       string
	name        string
	start       int64
	startTagEnd int64
	end         int64
}

// patchCore 在原 core.xml 上就地改写 vals 涉及的元素，其余字节原样保留：
// - 已存在的目标元素：保留开始标签（含属性），只替换内容；同名元素全部更新
// - 缺失的目标元素：按 vals 顺序插入到根元素结束标签之前
func patchCore(b []byte, vals []coreValue) ([]byte, error) {
	want := map[string]coreValue{}
	for _, v := range vals {
		want[v.field.local] = v
	}

	d := xml.NewDecoder(bytes.NewReader(b))
	var (
		depth    int
		rootName string
		spans    []elemSpan
		cur      *elemSpan
	)
	rootTagEnd, rootEnd := int64(-1), int64(-1)
	prefixes := map[string]string{}
	found := map[string]bool{}
	for {
		off := d.InputOffset()
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("解析 core.xml 失败：%w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch depth {
			case 1:
				rootName = qualified(t.Name)
				rootTagEnd = d.InputOffset()
				for _, a := range t.Attr {
					uri, prefix := "", ""
					switch {
					case a.Name.Space == "xmlns":
						uri, prefix = a.Value, a.Name.Local
					case a.Name.Space == "" && a.Name.Local == "xmlns":
						uri = a.Value
					default:
						continue
					}
					if _, ok := prefixes[uri]; !ok {
						prefixes[uri] = prefix
					}
				}
			case 2:
				local := strings.ToLower(t.Name.Local)
				v, ok := want[local]
				if !ok {
					continue
				}
				found[local] = true
				if !v.keep {
					cur = &elemSpan{local: local, name: qualified(t.Name), start: off, startTagEnd: d.InputOffset()}
				}
			}
		case xml.EndElement:
			switch depth {
			case 1:
				rootEnd = off
			case 2:
				if cur != nil {
					cur.end = d.InputOffset()
					spans = append(spans, *cur)
					cur = nil
				}
			}
			depth--
		}
	}
	if rootTagEnd < 0 || rootEnd < 0 {
		return nil, errors.New("解析 core.xml 失败：缺少根元素")
	}

	var out bytes.Buffer
	last := int64(0)
	for _, s := range spans {
		out.Write(b[last:s.start])
		if selfClosing(b, s.startTagEnd) {
			out.Write(b[s.start : s.startTagEnd-2])
			out.WriteByte('>')
		} else {
			out.Write(b[s.start:s.startTagEnd])
		}
		if err := xml.EscapeText(&out, []byte(want[s.local].value)); err != nil {
			return nil, err
		}
		out.WriteString("</" + s.name + ">")
		last = s.end
	}

	var added bytes.Buffer
	for _, v := range vals {
		if found[v.field.local] {
			continue
		}
		if err := writeElement(&added, v, prefixes); err != nil {
			return nil, err
		}
	}

	// 根元素自闭合（<cp:coreProperties/>）时先把它展开成成对标签。
	if rootEnd == rootTagEnd && selfClosing(b, rootTagEnd) {
		out.Write(b[last : rootTagEnd-2])
		out.WriteByte('>')
		out.Write(added.Bytes())
		out.WriteString("</" + rootName + ">")
		out.Write(b[rootTagEnd:])
		return out.Bytes(), nil
	}
	out.Write(b[last:rootEnd])
	out.Write(added.Bytes())
	out.Write(b[rootEnd:])
	return out.Bytes(), nil
}

func writeElement(buf *bytes.Buffer, v coreValue, prefixes map[string]string) error {
	f := v.field
	var decls []string
	prefix, ok := prefixes[f.space]
	if !ok {
		prefix = f.prefix
		decls = append(decls, `xmlns:`+prefix+`="`+f.space+`"`)
	}
	name := f.local
	if prefix != "" {
		name = prefix + ":" + f.local
	}

	buf.WriteString("<" + name)
	for _, d := range decls {
		buf.WriteString(" " + d)
	}
	if f.dated {
		xsi, ok := prefixes[nsXSI]
		if !ok || xsi == "" {
			xsi = "xsi"
			buf.WriteString(` xmlns:xsi="` + nsXSI + `"`)
		}
		typ := "W3CDTF"
		if prefix != "" {
			typ = prefix + ":W3CDTF"
		}
		buf.WriteString(" " + xsi + `:type="` + typ + `"`)
	}
	buf.WriteByte('>')
	if err := xml.EscapeText(buf, []byte(v.value)); err != nil {
		return err
	}
	buf.WriteString("</" + name + ">")
	return nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func selfClosing(b []byte, tagEnd int64) bool {
	return tagEnd >= 2 && b[tagEnd-2] == '/' && b[tagEnd-1] == '>'
}

type opcPackage struct {
	core         *zip.File
	contentTypes *zip.File
	rels         *zip.File
}

func inspectPackage(r *zip.Reader) (opcPackage, error) {
	var pkg opcPackage
	for _, f := range r.File {
		switch f.Name {
		case corePart:
			pkg.core = f
		case contentTypesPart:
			pkg.contentTypes = f
		case packageRelsPart:
			pkg.rels = f
		}
	}
	if pkg.contentTypes == nil {
		return opcPackage{}, fmt.Errorf("%w：缺少 %s", ErrNotDocx, contentTypesPart)
	}
	return pkg, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败：%w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败：%w", f.Name, err)
	}
	return b, nil
}
