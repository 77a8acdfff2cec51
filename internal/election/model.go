package election

import (
	"time"

	"gorm.io/gorm"
)

// VotingSettings 定义了投票窗口的单例配置记录
// 整张表中只应存在一条记录，在第一次读取时惰性创建
type VotingSettings struct {
	gorm.Model

	// Deadline 是投票截止时间
	// nil 表示投票无限期开放
	Deadline *time.Time `json:"deadline"`
}
