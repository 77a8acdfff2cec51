package election

import (
	"net/http"
	"time"

	"github.com/SlpAus/campus-election-backend/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// VotingWindowResponse 是投票窗口查询API的响应结构
type VotingWindowResponse struct {
	Deadline *time.Time `json:"deadline"`
	IsOpen   bool       `json:"isOpen"`
}

// UpdateSettingsRequest 定义了管理员更新截止时间的请求体
// Deadline传null表示清除截止时间，让投票无限期开放
type UpdateSettingsRequest struct {
	Deadline *time.Time `json:"deadline"`
}

// GetVotingWindow 处理公开的投票窗口查询
func GetVotingWindow(c *gin.Context) {
	settings, err := GetSettings(database.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取投票窗口: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, VotingWindowResponse{
		Deadline: settings.Deadline,
		IsOpen:   settings.IsOpen(time.Now()),
	})
}

// GetSettingsDetail 处理管理员查询投票配置
func GetSettingsDetail(c *gin.Context) {
	settings, err := GetSettings(database.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取投票窗口: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings 处理管理员设置或清除投票截止时间
func UpdateSettings(c *gin.Context) {
	var body UpdateSettingsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	settings, err := SetDeadline(database.DB, body.Deadline)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法更新投票窗口: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}
