package model

// AllModels 所有需要迁移的模型
var AllModels = []interface{}{
	&User{},
	&ChatRecord{},
	&AuthToken{},
}
