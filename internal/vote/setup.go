package vote

import (
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
)

// PrimeModule 负责初始化vote模块的数据库部分，
// 并在启动时跑一次对账，修复上次运行可能留下的计数漂移。
func PrimeModule() error {
	if err := database.DB.AutoMigrate(&Vote{}); err != nil {
		return fmt.Errorf("无法迁移vote表: %w", err)
	}
	fmt.Println("Vote数据库表迁移成功。")

	deltas, err := ReconcileTallies()
	if err != nil {
		return fmt.Errorf("启动对账失败: %w", err)
	}
	drifted := 0
	for _, d := range deltas {
		if d.OldCount != d.NewCount {
			drifted++
			fmt.Printf("启动对账: 候选人 %d (%s) 计数 %d -> %d\n", d.ID, d.Name, d.OldCount, d.NewCount)
		}
	}
	if drifted == 0 {
		fmt.Println("启动对账完成，计数缓存与账本一致。")
	} else {
		fmt.Printf("启动对账完成，修复了 %d 处计数漂移。\n", drifted)
	}
	return nil
}
