package session

import (
	"fmt"
	"sort"

	"github.com/cpslearn/dsa-mentor/internal/model"
)

// MergeRecords 合并远端历史与本地缓存历史。
// 两者是同一追加日志的最终一致视图；以时间戳精确相等作为去重键
// （两个来源都没有稳定的交换级标识符），结果按时间升序。
func MergeRecords(remote, local []*model.ChatRecord) []*model.ChatRecord {
	seen := make(map[int64]bool, len(remote))
	merged := make([]*model.ChatRecord, 0, len(remote)+len(local))

	for _, rec := range remote {
		if rec == nil {
			continue
		}
		seen[rec.Timestamp.UnixNano()] = true
		merged = append(merged, rec)
	}
	for _, rec := range local {
		if rec == nil || seen[rec.Timestamp.UnixNano()] {
			continue
		}
		seen[rec.Timestamp.UnixNano()] = true
		merged = append(merged, rec)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

// expandRecords 把交换记录展开为展示消息：每条记录恰好两条（先用户后助手）
func expandRecords(records []*model.ChatRecord) []Message {
	messages := make([]Message, 0, len(records)*2)
	for i, rec := range records {
		messages = append(messages,
			Message{
				ID:        fmt.Sprintf("history-%d-user", i),
				Role:      RoleUser,
				Content:   rec.Message,
				Timestamp: rec.Timestamp,
			},
			Message{
				ID:        fmt.Sprintf("history-%d-assistant", i),
				Role:      RoleAssistant,
				Content:   rec.Response,
				Timestamp: rec.Timestamp,
			},
		)
	}
	return messages
}
