package api

import (
	"github.com/SlpAus/campus-election-backend/internal/admin"
	"github.com/SlpAus/campus-election-backend/internal/candidate"
	"github.com/SlpAus/campus-election-backend/internal/election"
	"github.com/SlpAus/campus-election-backend/internal/vote"
	"github.com/SlpAus/campus-election-backend/internal/voter"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 公开的候选人与结果查询
		api.GET("/candidates", voter.EnsureVoterCookieMiddleware(), candidate.GetCandidates)
		api.GET("/results", candidate.GetResultsHandler)
		api.GET("/voting-window", election.GetVotingWindow)

		// 投票相关的路由
		api.POST("/vote", voter.LoadVoterMiddleware(), vote.SubmitVote)
		api.GET("/vote", voter.LoadVoterMiddleware(), vote.GetVoteStatusHandler)

		// 管理端路由组，全部要求admin-token
		adminRoutes := api.Group("/admin", admin.RequireAdminToken())
		{
			adminRoutes.GET("/voting-settings", election.GetSettingsDetail)
			adminRoutes.PUT("/voting-settings", election.UpdateSettings)

			adminRoutes.GET("/candidates", candidate.GetCandidatesAdmin)
			adminRoutes.POST("/candidates", candidate.CreateCandidateHandler)
			adminRoutes.PUT("/candidates/:id/restore", candidate.RestoreCandidateHandler)
			adminRoutes.DELETE("/candidates/:id", vote.DeleteCandidateHandler)

			adminRoutes.POST("/sync-vote-counts", vote.SyncVoteCounts)
			adminRoutes.DELETE("/voters/:id", vote.RemoveVoterHandler)
		}
	}
}
