package admin

import (
	"fmt"
	"net/http"

	"github.com/SlpAus/campus-election-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const TokenCookieName = "admin-token"

// RequireAdminToken 校验admin-token cookie中的JWT签名。
// token由外部的管理登录服务签发，这里只做HMAC校验，不负责签发。
func RequireAdminToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(TokenCookieName)
		if err != nil || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少管理员凭证"})
			return
		}

		_, err = jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("不支持的签名算法: %v", t.Header["alg"])
			}
			return []byte(config.Cfg.Admin.TokenSecret), nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "管理员凭证无效"})
			return
		}

		c.Next()
	}
}
