package election

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GetSettings 读取投票窗口的单例配置。
// 如果记录尚不存在，会在同一个连接上创建一条默认记录（无截止时间）。
func GetSettings(db *gorm.DB) (*VotingSettings, error) {
	var settings VotingSettings
	err := db.First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("无法读取投票窗口配置: %w", err)
	}

	// 惰性创建默认配置，deadline为空意味着投票开放
	settings = VotingSettings{}
	if err := db.Create(&settings).Error; err != nil {
		// 并发的首次读取可能已经创建了记录，重读一次
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if rerr := db.First(&settings).Error; rerr == nil {
				return &settings, nil
			}
		}
		return nil, fmt.Errorf("无法创建默认投票窗口配置: %w", err)
	}
	return &settings, nil
}

// IsOpen 判断在给定时刻投票窗口是否开放。
// 纯函数：deadline为空视为开放；now等于deadline时视为已截止。
func (s *VotingSettings) IsOpen(now time.Time) bool {
	if s.Deadline == nil {
		return true
	}
	return now.Before(*s.Deadline)
}

// IsOpenAt 读取当前配置并判断窗口是否开放。
// 投票服务在事务内调用它，以保证窗口校验与写入在同一个事务中生效。
func IsOpenAt(db *gorm.DB, now time.Time) (bool, error) {
	settings, err := GetSettings(db)
	if err != nil {
		return false, err
	}
	return settings.IsOpen(now), nil
}

// SetDeadline 设置或清除投票截止时间。
// 修改立即生效，但绝不追溯性地作废已经提交的选票。
func SetDeadline(db *gorm.DB, deadline *time.Time) (*VotingSettings, error) {
	settings, err := GetSettings(db)
	if err != nil {
		return nil, err
	}
	if err := db.Model(settings).Update("deadline", deadline).Error; err != nil {
		return nil, fmt.Errorf("无法更新投票截止时间: %w", err)
	}
	settings.Deadline = deadline
	return settings, nil
}
