package candidate

import (
	"errors"
	"fmt"
	"time"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"gorm.io/gorm"
)

// ErrCandidateNotFound 表示目标候选人不存在或已被归档。
// 对投票人而言，归档的候选人与不存在的候选人没有区别。
var ErrCandidateNotFound = errors.New("找不到候选人")

// ResultEntry 是结果榜单中的一行
type ResultEntry struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"imageUrl"`
	VoteCount int    `json:"voteCount"`
}

// CreateCandidate 由管理员创建一位新候选人，并同步写入结果镜像。
func CreateCandidate(name, bio, imageURL, linkedinURL string) (*Candidate, error) {
	cand := Candidate{
		Name:        name,
		Bio:         bio,
		ImageURL:    imageURL,
		LinkedinURL: linkedinURL,
	}
	if err := database.DB.Create(&cand).Error; err != nil {
		return nil, fmt.Errorf("无法创建候选人: %w", err)
	}
	AddToMirror(&cand)
	return &cand, nil
}

// ListCandidates 返回候选人列表。
// includeArchived为false时只返回在榜候选人（默认视图）。
func ListCandidates(includeArchived bool) ([]Candidate, error) {
	var candidates []Candidate
	query := database.DB.Order("created_at desc")
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	} else {
		query = query.Where("is_archived = ?", true)
	}
	if err := query.Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("无法读取候选人列表: %w", err)
	}
	return candidates, nil
}

// GetActiveCandidate 按ID读取一位未归档的候选人。
func GetActiveCandidate(db *gorm.DB, id uint) (*Candidate, error) {
	var cand Candidate
	err := db.Where("id = ? AND is_archived = ?", id, false).First(&cand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCandidateNotFound
		}
		return nil, fmt.Errorf("无法读取候选人: %w", err)
	}
	return &cand, nil
}

// GetResults 返回按得票数降序的结果榜单。
// 优先走Redis镜像；镜像不可用时退回SQL事实来源。
func GetResults() ([]ResultEntry, error) {
	if results, ok := ReadMirrorResults(); ok {
		return results, nil
	}

	var candidates []Candidate
	err := database.DB.
		Where("is_archived = ?", false).
		Order("vote_count desc").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("无法从数据库读取结果: %w", err)
	}

	results := make([]ResultEntry, len(candidates))
	for i, cand := range candidates {
		results[i] = ResultEntry{
			ID:        cand.ID,
			Name:      cand.Name,
			ImageURL:  cand.ImageURL,
			VoteCount: cand.VoteCount,
		}
	}
	return results, nil
}

// ArchiveCandidate 归档一位候选人（软删除，可逆）。
// 已有选票和计数保持原样；候选人只是不再是合法的投票目标。
func ArchiveCandidate(id uint) error {
	now := time.Now()
	result := database.DB.Model(&Candidate{}).
		Where("id = ? AND is_archived = ?", id, false).
		Updates(map[string]interface{}{
			"is_archived": true,
			"archived_at": &now,
		})
	if result.Error != nil {
		return fmt.Errorf("无法归档候选人: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCandidateNotFound
	}

	RemoveFromMirror(id)
	return nil
}

// RestoreCandidate 将一位归档的候选人恢复到榜单上。
// 对投票历史和计数没有任何影响。
func RestoreCandidate(id uint) (*Candidate, error) {
	result := database.DB.Model(&Candidate{}).
		Where("id = ? AND is_archived = ?", id, true).
		Updates(map[string]interface{}{
			"is_archived": false,
			"archived_at": nil,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("无法恢复候选人: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrCandidateNotFound
	}

	var cand Candidate
	if err := database.DB.First(&cand, id).Error; err != nil {
		return nil, fmt.Errorf("无法读取恢复后的候选人: %w", err)
	}
	AddToMirror(&cand)
	return &cand, nil
}
