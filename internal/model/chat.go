package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChatRecord 一次问答交换（持久化单位，追加写入）
// 每条记录包含用户消息与助手回复；排序键为 Timestamp。
type ChatRecord struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"index;size:255;not null" json:"user_id"`
	Message   string         `gorm:"type:text" json:"message"`
	Response  string         `gorm:"type:text" json:"response"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
	Analysis  datatypes.JSON `json:"analysis,omitempty"`
}

// TableName 指定表名
func (ChatRecord) TableName() string {
	return "chat_history"
}
