package vote

import (
	"errors"
	"fmt"

	"github.com/SlpAus/campus-election-backend/internal/candidate"
	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TallyDelta 记录一位候选人在对账中计数缓存的修正
type TallyDelta struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	OldCount int    `json:"oldCount"`
	NewCount int    `json:"newCount"`
}

// ReconcileTallies 以账本为准，重算并覆盖每一位候选人（含归档）的计数缓存。
// 缓存只被替换，从不做合并或增量修补。
//
// 对账可以在投票进行中随时运行：每位候选人的真实计数读取和覆盖
// 在同一个事务中完成，期间候选人行被锁定，
// 因此不会漏算在读取之前提交的选票，也不会重复计算。
// 在本次读取之后一瞬间提交的选票留给下一次运行，这是可接受的。
func ReconcileTallies() ([]TallyDelta, error) {
	var candidateIDs []uint
	if err := database.DB.Model(&candidate.Candidate{}).Pluck("id", &candidateIDs).Error; err != nil {
		return nil, fmt.Errorf("无法读取候选人列表: %w", err)
	}

	deltas := make([]TallyDelta, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		var delta TallyDelta
		skipped := false

		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var cand candidate.Candidate
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cand, id).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					// 候选人在对账运行中被永久删除，跳过
					skipped = true
					return nil
				}
				return err
			}

			var trueCount int64
			err = tx.Model(&Vote{}).Where("candidate_id = ?", id).Count(&trueCount).Error
			if err != nil {
				return fmt.Errorf("无法统计候选人 %d 的选票: %w", id, err)
			}

			err = tx.Model(&candidate.Candidate{}).Where("id = ?", id).
				UpdateColumn("vote_count", int(trueCount)).Error
			if err != nil {
				return fmt.Errorf("无法覆盖候选人 %d 的计数缓存: %w", id, err)
			}

			delta = TallyDelta{
				ID:       cand.ID,
				Name:     cand.Name,
				OldCount: cand.VoteCount,
				NewCount: int(trueCount),
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if skipped {
			continue
		}

		deltas = append(deltas, delta)
		candidate.SetMirrorCount(delta.ID, delta.NewCount)
	}

	return deltas, nil
}
