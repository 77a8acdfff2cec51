package voter

import (
	"errors"
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVoterNotFound 表示给定的principal id在系统中没有对应的投票人记录。
var ErrVoterNotFound = errors.New("找不到投票人记录")

// IsValidUUID 校验一个字符串是否是合法的UUID格式。
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// CreateProvisionalVoterID 生成一个临时的、尚未持久化的投票人UUID。
// 这个UUID将被设置到cookie中，但此时尚未被认证。
func CreateProvisionalVoterID() (string, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return newUUID.String(), nil
}

// ActivateVoter 将一个principal id正式持久化为投票人记录。
// 在principal首次通过认证后调用；重复调用是无害的幂等操作。
func ActivateVoter(uuidStr string) error {
	if !IsValidUUID(uuidStr) {
		return fmt.Errorf("无效的投票人ID: %s", uuidStr)
	}

	newVoter := Voter{UUID: uuidStr}
	if err := database.DB.Create(&newVoter).Error; err != nil {
		// 记录已存在不是真正的错误
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("无法创建投票人记录: %w", err)
	}
	return nil
}

// GetVoter 读取一个投票人的当前状态。
func GetVoter(db *gorm.DB, uuidStr string) (*Voter, error) {
	var v Voter
	err := db.Where("uuid = ?", uuidStr).First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoterNotFound
		}
		return nil, fmt.Errorf("无法读取投票人记录: %w", err)
	}
	return &v, nil
}
