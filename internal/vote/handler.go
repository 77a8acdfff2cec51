package vote

import (
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/campus-election-backend/internal/candidate"
	"github.com/SlpAus/campus-election-backend/internal/voter"
	"github.com/gin-gonic/gin"
)

// VoteRequestBody 定义了前端提交投票时，请求体的JSON结构
type VoteRequestBody struct {
	CandidateID uint `json:"candidateId" binding:"required"`
}

// SubmitVote 处理前端提交的选票
func SubmitVote(c *gin.Context) {
	voterID := c.GetString(voter.VoterIDKey)

	var body VoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	err := CastVote(voterID, body.CandidateID, time.Now())
	if err != nil {
		// 每一类失败都映射为具体的状态码和消息
		switch {
		case errors.Is(err, voter.ErrVoterNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": voter.ErrVoterNotFound.Error()})
		case errors.Is(err, ErrAlreadyVoted):
			c.JSON(http.StatusBadRequest, gin.H{"error": ErrAlreadyVoted.Error()})
		case errors.Is(err, ErrVotingClosed):
			c.JSON(http.StatusForbidden, gin.H{"error": ErrVotingClosed.Error()})
		case errors.Is(err, candidate.ErrCandidateNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": candidate.ErrCandidateNotFound.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "处理投票失败: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "投票成功"})
}

// GetVoteStatusHandler 处理投票状态查询。
// principal首次带着认证身份访问这里时，顺带完成投票人记录的落库。
func GetVoteStatusHandler(c *gin.Context) {
	voterID := c.GetString(voter.VoterIDKey)

	if err := voter.ActivateVoter(voterID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法登记投票人: " + err.Error()})
		return
	}

	status, err := GetVoteStatus(voterID)
	if err != nil {
		if errors.Is(err, voter.ErrVoterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": voter.ErrVoterNotFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取投票状态: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// SyncVoteCounts 处理管理员触发的计数对账
func SyncVoteCounts(c *gin.Context) {
	deltas, err := ReconcileTallies()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "计数对账失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "计数对账完成",
		"updated": deltas,
	})
}

// DeleteCandidateHandler 处理管理员删除候选人。
// 默认是可逆的归档；?permanent=true 时执行永久删除并级联清除选票。
func DeleteCandidateHandler(c *gin.Context) {
	id, err := candidate.ParseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的候选人ID"})
		return
	}

	if c.Query("permanent") == "true" {
		err = DeleteCandidatePermanently(id)
	} else {
		err = candidate.ArchiveCandidate(id)
	}

	if err != nil {
		if errors.Is(err, candidate.ErrCandidateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": candidate.ErrCandidateNotFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除候选人失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveVoterHandler 处理管理员移除投票人
func RemoveVoterHandler(c *gin.Context) {
	voterID := c.Param("id")
	if !voter.IsValidUUID(voterID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的投票人ID"})
		return
	}

	if err := RemoveVoter(voterID); err != nil {
		if errors.Is(err, voter.ErrVoterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": voter.ErrVoterNotFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "移除投票人失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "投票人及其关联数据已删除"})
}
