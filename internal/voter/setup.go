package voter

import (
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
)

// PrimeDB 负责初始化voter模块的数据库部分
func PrimeDB() error {
	if err := database.DB.AutoMigrate(&Voter{}); err != nil {
		return fmt.Errorf("无法迁移voter表: %w", err)
	}
	fmt.Println("Voter数据库表迁移成功。")
	return nil
}
