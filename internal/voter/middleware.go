package voter

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CookieName   = "voter-id"
	CookieMaxAge = 365 * 24 * 60 * 60
	VoterIDKey   = "voterID"
)

// EnsureVoterCookieMiddleware 确保浏览器中有一个格式正确的voter-id cookie。
// 如果没有或格式不正确，它会生成一个新的临时ID并设置cookie。
// 临时ID要等到 ActivateVoter 被调用后才成为正式的投票人。
func EnsureVoterCookieMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		voterID, err := c.Cookie(CookieName)

		// 如果Cookie不存在，或存在但格式不正确，则分发一个新的
		if err != nil || !IsValidUUID(voterID) {
			if err != http.ErrNoCookie {
				fmt.Printf("检测到无效的投票人Cookie: %s, err: %v\n", voterID, err)
			}
			provisionalID, err := CreateProvisionalVoterID()
			if err != nil {
				fmt.Printf("创建临时投票人ID时发生错误: %v\n", err)
			} else {
				c.SetCookie(CookieName, provisionalID, CookieMaxAge, "/", "", false, true)
			}
		}

		c.Next()
	}
}

// LoadVoterMiddleware 读取cookie并将principal id放入Gin上下文中。
// 没有合法cookie的请求会被直接拒绝，核心逻辑只消费已解析的principal。
func LoadVoterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		voterID, err := c.Cookie(CookieName)
		if err != nil || !IsValidUUID(voterID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少有效的投票人身份"})
			return
		}
		c.Set(VoterIDKey, voterID)
		c.Next()
	}
}
