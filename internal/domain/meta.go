package domain

// Metadata 是写入文件元数据容器的一组描述字段。
//
// 约束：每个文件构造一次，构造后不再修改，由写入器消费一次。
type Metadata struct {
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	Author      string `json:"author"`
	Keywords    string `json:"keywords"`
	Category    string `json:"category"`
	Description string `json:"description"`
}
