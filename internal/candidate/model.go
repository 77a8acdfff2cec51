package candidate

import (
	"time"

	"gorm.io/gorm"
)

// Candidate 定义了数据库中候选人的数据结构
type Candidate struct {
	// gorm.Model 包含 ID, CreatedAt, UpdatedAt, DeletedAt
	gorm.Model

	// Name 是候选人的显示名称
	Name string `gorm:"not null" json:"name"`

	// Bio 是候选人的简介，核心逻辑不关心其内容
	Bio string `json:"bio"`

	// ImageURL 是候选人头像的地址
	ImageURL string `json:"imageUrl"`

	// LinkedinURL 是候选人的外部链接
	LinkedinURL string `json:"linkedinUrl"`

	// --- 以下是用于计票的字段 ---

	// VoteCount 是反规范化的得票计数缓存。
	// 事实来源是votes账本；此字段只能在投票事务和对账任务中被修改，
	// 且在每次成功事务后必须等于账本中引用此候选人的选票数。
	VoteCount int `gorm:"not null;default:0" json:"voteCount"`

	// IsArchived 标记候选人是否被归档（软删除，可逆）。
	// 归档的候选人不再是合法的投票目标，但历史选票和计数保持不变。
	IsArchived bool `gorm:"not null;default:false;index" json:"isArchived"`

	// ArchivedAt 记录归档时间
	ArchivedAt *time.Time `json:"archivedAt"`
}
