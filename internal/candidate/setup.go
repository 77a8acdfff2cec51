package candidate

import (
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
)

// PrimeCachedDB 负责初始化candidate模块的数据库和结果镜像
func PrimeCachedDB() error {
	if err := migrateDB(); err != nil {
		return err
	}
	if err := WarmupMirror(); err != nil {
		return err
	}
	return nil
}

// migrateDB 负责自动迁移数据库表结构
func migrateDB() error {
	if err := database.DB.AutoMigrate(&Candidate{}); err != nil {
		return fmt.Errorf("无法迁移candidate表: %w", err)
	}
	fmt.Println("Candidate数据库表迁移成功。")
	return nil
}
