package election

import (
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
)

// PrimeDB 负责初始化election模块的数据库部分
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&VotingSettings{}); err != nil {
		return fmt.Errorf("无法迁移voting_settings表: %w", err)
	}
	fmt.Println("VotingSettings数据库表迁移成功。")

	// 预先触发一次惰性创建，保证单例记录在接收流量前就位
	if _, err := GetSettings(database.DB); err != nil {
		return err
	}
	return nil
}
