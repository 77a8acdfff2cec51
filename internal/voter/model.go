package voter

import (
	"time"
)

// Voter 定义了投票人在主数据库中的持久化模型。
// 身份本身由外部的认证层签发，这里只追踪投票状态。
type Voter struct {
	// UUID 是投票人的主键，来自认证层下发的principal id。
	UUID string `gorm:"primarykey;type:varchar(36)"`

	// HasVoted 标记该投票人是否已经投出选票。
	HasVoted bool `gorm:"not null;default:false"`

	// VoteID 是指向选票记录的1:1回引。
	// 不变量: HasVoted == (VoteID != nil)。
	// 候选人被永久删除会级联删除选票，此时回引悬空，
	// 但HasVoted与VoteID都保持不变：资格关乎参与，而非候选人是否还存在。
	VoteID *uint `gorm:"uniqueIndex"`

	// 由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
}
