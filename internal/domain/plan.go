package domain

// ItemPlan 是对单个文件的确定性处理计划（只描述要写什么，不做任何写入）。
type ItemPlan struct {
	File     MediaFile
	Class    FileClass
	Keywords string
	Category string
	Meta     Metadata
}
