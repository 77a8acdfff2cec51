package startup

import (
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/candidate"
	"github.com/SlpAus/campus-election-backend/internal/election"
	"github.com/SlpAus/campus-election-backend/internal/vote"
	"github.com/SlpAus/campus-election-backend/internal/voter"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// 初始化顺序遵循依赖方向：先账本和状态表，最后是会触发对账的vote模块。
func InitializeApplication() error {
	fmt.Println("开始应用首次初始化...")

	if err := election.PrimeDB(); err != nil {
		return err
	}
	if err := voter.PrimeDB(); err != nil {
		return err
	}
	if err := candidate.PrimeCachedDB(); err != nil {
		return err
	}
	if err := vote.PrimeModule(); err != nil {
		return err
	}

	fmt.Println("应用初始化完成！")
	return nil
}

// RebuildMirror 是一个专门用于在运行时热重建Redis结果镜像的函数。
// SQL是事实来源，镜像整体丢弃后从头重建即可。
func RebuildMirror() error {
	fmt.Println("开始结果镜像热重建...")

	if err := candidate.WarmupMirror(); err != nil {
		return err
	}

	fmt.Println("结果镜像热重建完成。")
	return nil
}
