package candidate

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CreateCandidateRequest 定义了管理员创建候选人的请求体
type CreateCandidateRequest struct {
	Name        string `json:"name" binding:"required"`
	Bio         string `json:"bio" binding:"required"`
	ImageURL    string `json:"imageUrl" binding:"required"`
	LinkedinURL string `json:"linkedinUrl" binding:"required"`
}

// GetCandidates 处理公开的候选人列表查询，只返回在榜候选人
func GetCandidates(c *gin.Context) {
	candidates, err := ListCandidates(false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取候选人列表: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// GetResultsHandler 处理公开的结果榜单查询
func GetResultsHandler(c *gin.Context) {
	results, err := GetResults()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取投票结果: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// GetCandidatesAdmin 处理管理员的候选人列表查询
// ?archived=true 时返回归档区，否则返回在榜候选人
func GetCandidatesAdmin(c *gin.Context) {
	showArchived := c.Query("archived") == "true"
	candidates, err := ListCandidates(showArchived)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取候选人列表: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// CreateCandidateHandler 处理管理员创建候选人
func CreateCandidateHandler(c *gin.Context) {
	var body CreateCandidateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	cand, err := CreateCandidate(body.Name, body.Bio, body.ImageURL, body.LinkedinURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建候选人失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cand)
}

// RestoreCandidateHandler 处理管理员恢复归档候选人
func RestoreCandidateHandler(c *gin.Context) {
	id, err := ParseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的候选人ID"})
		return
	}

	cand, err := RestoreCandidate(id)
	if err != nil {
		if errors.Is(err, ErrCandidateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": ErrCandidateNotFound.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "恢复候选人失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, cand)
}

// ParseIDParam 从路径参数中解析候选人ID
func ParseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
