package repository

import (
	"github.com/cpslearn/dsa-mentor/internal/model"
	"gorm.io/gorm"
)

// HistoryRepository 聊天历史数据访问
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建历史仓库
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// CreateRecord 追加一次问答交换
func (r *HistoryRepository) CreateRecord(record *model.ChatRecord) error {
	return r.db.Create(record).Error
}

// GetRecordsByUser 按时间升序获取用户最近的 N 条交换
func (r *HistoryRepository) GetRecordsByUser(userID string, limit int) ([]*model.ChatRecord, error) {
	var records []*model.ChatRecord
	query := r.db.Where("user_id = ?", userID).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, err
	}

	// 倒序取最近 N 条后恢复升序
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// CountRecordsByUser 统计用户的交换总数
func (r *HistoryRepository) CountRecordsByUser(userID string) (int64, error) {
	var total int64
	err := r.db.Model(&model.ChatRecord{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}
