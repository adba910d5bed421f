// Package category 根据文件名中的触发子串把文件归入一个固定类别。
//
// 匹配是字面子串包含而非整词匹配：触发词 "son" 也会命中 "reason"。
// 这是既有的粗粒度行为，保持原样。
package category

import "strings"

// DefaultLabel 是没有任何规则命中时的类别。
const DefaultLabel = "General Theology"

// Rule 是一条 类别 → 触发子串 规则。触发子串必须是小写。
type Rule struct {
	Label    string
	Triggers []string
}

// Table 是有序规则表：先声明的规则优先。
type Table []Rule

// DefaultTable 返回内置规则表（每次返回新副本，调用方可自由修改）。
//
// 顺序即优先级：例如 "prophecy" 同时出现在 Eschatology 与 Prophecy 中，总是先命中 Eschatology。
func DefaultTable() Table {
	return Table{
		{"Calvinism", []string{"calvinism", "tulip", "predestination", "election"}},
		{"Eschatology", []string{"revelation", "rapture", "tribulation", "end-time", "eschatology", "second-coming", "millennium", "prophecy"}},
		{"Church Practices", []string{"baptism", "communion", "church", "assembly", "worship"}},
		{"Theology", []string{"trinity", "god", "jesus", "christ", "holy-spirit", "father", "son"}},
		{"Biblical Languages", []string{"hebrew", "greek", "translation", "septuagint", "aramaic"}},
		{"Health and Healing", []string{"healing", "health", "vitamin", "covid", "vaccine", "sickness"}},
		{"Family and Relationships", []string{"marriage", "women", "gender", "sexuality", "family"}},
		{"Apologetics", []string{"gnosticism", "false", "heresy", "cult", "error"}},
		{"Prophecy", []string{"prophecy", "daniel", "prophetic", "ezekiel", "isaiah"}},
		{"Biblical Studies", []string{"bible", "scripture", "study", "exegesis", "hermeneutics"}},
		{"Salvation", []string{"salvation", "saved", "grace", "faith", "works"}},
		{"Death and Resurrection", []string{"death", "resurrection", "soul", "immortality", "sheol", "hades"}},
	}
}

// Classifier 在有序规则表上做首个命中分类。
type Classifier struct {
	Table   Table
	Default string
}

// New 返回使用内置规则表与默认类别的 Classifier。
func New() Classifier {
	return Classifier{Table: DefaultTable(), Default: DefaultLabel}
}

// Classify 把整个文件名（含扩展名）转小写，返回首个有任一触发子串命中的类别。
func (c Classifier) Classify(filename string) string {
	lower := strings.ToLower(filename)
	for _, r := range c.Table {
		if r.matches(lower) {
			return r.Label
		}
	}
	return c.defaultLabel()
}

// Matches 返回所有命中的类别（按表顺序），用于排查“为什么归到这个类”。
func (c Classifier) Matches(filename string) []string {
	lower := strings.ToLower(filename)
	var out []string
	for _, r := range c.Table {
		if r.matches(lower) {
			out = append(out, r.Label)
		}
	}
	return out
}

func (c Classifier) defaultLabel() string {
	if c.Default == "" {
		return DefaultLabel
	}
	return c.Default
}

func (r Rule) matches(lower string) bool {
	for _, t := range r.Triggers {
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
