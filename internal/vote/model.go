package vote

import (
	"time"
)

// Vote 定义了账本中单条选票记录的数据结构。
// 选票一经创建不可修改；整个votes表是计票的事实来源，
// 候选人上的vote_count只是由它派生出来的缓存。
type Vote struct {
	ID uint `gorm:"primarykey" json:"id"`

	// VoterUUID 是投出这张选票的投票人。
	// 唯一索引在存储层强制了一人一票，
	// 它是该不变量在并发下唯一的互斥来源。
	VoterUUID string `gorm:"uniqueIndex;not null;type:varchar(36)" json:"voterUuid"`

	// CandidateID 是这张选票投给的候选人
	CandidateID uint `gorm:"index;not null" json:"candidateId"`

	// CreatedAt 是选票的提交时间（以提交顺序为准）
	CreatedAt time.Time `json:"createdAt"`
}
