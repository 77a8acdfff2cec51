package vote

import (
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/campus-election-backend/internal/candidate"
	"github.com/SlpAus/campus-election-backend/internal/election"
	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"github.com/SlpAus/campus-election-backend/internal/voter"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 投票失败的错误分类。
// 每一种都对应一条具体的、可直接展示给用户的消息，
// 不允许把已知类别的失败笼统地报告成"出错了"。
var (
	// ErrAlreadyVoted 对该投票人是终态，重试永远不会成功
	ErrAlreadyVoted = errors.New("您已经投过票了")
	// ErrVotingClosed 在管理员重新开放投票前是终态
	ErrVotingClosed = errors.New("投票已截止")
)

// CastVote 为一位投票人提交一张选票，要么完整提交，要么毫无副作用地失败。
//
// 状态机分四步：资格预检、窗口预检、候选人预检、原子提交。
// 前三步只是为了避免无谓的事务开销而做的快速失败；
// 真正保证一人一票的是账本上的唯一约束，
// 窗口的权威校验也在提交事务内部再做一次。
func CastVote(voterID string, candidateID uint, now time.Time) error {
	// 1. 资格预检
	v, err := voter.GetVoter(database.DB, voterID)
	if err != nil {
		return err
	}
	if v.HasVoted {
		return ErrAlreadyVoted
	}

	// 2. 窗口预检（咨询性质）
	open, err := election.IsOpenAt(database.DB, now)
	if err != nil {
		return err
	}
	if !open {
		return ErrVotingClosed
	}

	// 3. 候选人预检：归档的候选人不是合法的投票目标
	if _, err := candidate.GetActiveCandidate(database.DB, candidateID); err != nil {
		return err
	}

	// 4. 原子提交：三笔写入要么全部生效，要么全部回滚
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// 窗口校验在提交时刻、同一事务内生效，
		// 截止时间被并发修改时以这里的结果为准
		open, err := election.IsOpenAt(tx, now)
		if err != nil {
			return err
		}
		if !open {
			return ErrVotingClosed
		}

		// 锁定投票人行，复核资格
		var lockedVoter voter.Voter
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ?", voterID).First(&lockedVoter).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return voter.ErrVoterNotFound
			}
			return err
		}
		if lockedVoter.HasVoted {
			return ErrAlreadyVoted
		}

		// 锁定候选人行，防止计数增量与归档/删除并发交错
		var cand candidate.Candidate
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND is_archived = ?", candidateID, false).First(&cand).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return candidate.ErrCandidateNotFound
			}
			return err
		}

		// 写入账本。同一投票人的并发请求在这里分出胜负：
		// 唯一约束只放行一张选票，输家得到ErrAlreadyVoted
		newVote := Vote{VoterUUID: voterID, CandidateID: cand.ID}
		if err := tx.Create(&newVote).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("无法写入选票记录: %w", err)
		}

		// 更新投票人状态和1:1回引
		err = tx.Model(&voter.Voter{}).Where("uuid = ?", voterID).
			Updates(map[string]interface{}{"has_voted": true, "vote_id": newVote.ID}).Error
		if err != nil {
			return fmt.Errorf("无法更新投票人状态: %w", err)
		}

		// 计数缓存走SQL侧的原子自增，绝不在应用层读改写
		err = tx.Model(&candidate.Candidate{}).Where("id = ?", cand.ID).
			UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1)).Error
		if err != nil {
			return fmt.Errorf("无法更新候选人计数: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	// 事务已提交，镜像更新是尽力而为的
	candidate.AdjustMirrorCount(candidateID, 1)
	return nil
}

// VoteStatus 描述一位投票人的投票状态
type VoteStatus struct {
	HasVoted    bool  `json:"hasVoted"`
	CandidateID *uint `json:"candidateId"`
}

// GetVoteStatus 返回一位投票人的投票状态。
// 投过票但选票已随候选人永久删除时，HasVoted保持true、目标为空。
func GetVoteStatus(voterID string) (*VoteStatus, error) {
	v, err := voter.GetVoter(database.DB, voterID)
	if err != nil {
		return nil, err
	}

	status := &VoteStatus{HasVoted: v.HasVoted}
	if v.VoteID == nil {
		return status, nil
	}

	var ballot Vote
	err = database.DB.First(&ballot, *v.VoteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 候选人被永久删除，选票已不在账本中
			return status, nil
		}
		return nil, fmt.Errorf("无法读取选票记录: %w", err)
	}
	status.CandidateID = &ballot.CandidateID
	return status, nil
}

// DeleteCandidatePermanently 不可逆地删除一位候选人，并级联删除其全部选票。
// 这是系统中唯一能让账本收缩的操作。
// 受影响的投票人保持HasVoted为true——他们参与过投票，不会重新获得投票资格。
func DeleteCandidatePermanently(candidateID uint) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var cand candidate.Candidate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&cand, candidateID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return candidate.ErrCandidateNotFound
			}
			return err
		}

		// 级联删除账本中的所有相关选票
		if err := tx.Where("candidate_id = ?", candidateID).Delete(&Vote{}).Error; err != nil {
			return fmt.Errorf("无法删除候选人的选票: %w", err)
		}

		// 硬删除候选人本身
		if err := tx.Unscoped().Delete(&cand).Error; err != nil {
			return fmt.Errorf("无法删除候选人: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	candidate.RemoveFromMirror(candidateID)
	return nil
}

// RemoveVoter 由管理员移除一位投票人。
// 如果该投票人已投票，其选票和候选人计数在同一个事务中一并回退；
// 所有计数修改都走与投票相同的事务原语，不存在第二条旁路。
func RemoveVoter(voterID string) error {
	var adjustedCandidateID uint

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var v voter.Voter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uuid = ?", voterID).First(&v).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return voter.ErrVoterNotFound
			}
			return err
		}

		if v.VoteID != nil {
			var ballot Vote
			err := tx.First(&ballot, *v.VoteID).Error
			switch {
			case err == nil:
				if err := tx.Delete(&Vote{}, ballot.ID).Error; err != nil {
					return fmt.Errorf("无法删除选票记录: %w", err)
				}
				err = tx.Model(&candidate.Candidate{}).Where("id = ?", ballot.CandidateID).
					UpdateColumn("vote_count", gorm.Expr("vote_count - ?", 1)).Error
				if err != nil {
					return fmt.Errorf("无法回退候选人计数: %w", err)
				}
				adjustedCandidateID = ballot.CandidateID
			case errors.Is(err, gorm.ErrRecordNotFound):
				// 选票已随候选人永久删除，无需回退计数
			default:
				return err
			}
		}

		if err := tx.Delete(&voter.Voter{}, "uuid = ?", voterID).Error; err != nil {
			return fmt.Errorf("无法删除投票人记录: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if adjustedCandidateID != 0 {
		candidate.AdjustMirrorCount(adjustedCandidateID, -1)
	}
	return nil
}
