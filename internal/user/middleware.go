package user

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yctsai/dish-gacha-backend/pkg/token"
)

// UserIDKey 是放入Gin上下文的用户ID键名
const UserIDKey = "userID"

// RequireAuthMiddleware 校验Authorization头中的Bearer token，
// 并把解析出的用户ID放入Gin上下文。校验失败时直接返回401。
func RequireAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "缺少认证信息"})
			return
		}

		userID, err := token.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "认证已失效，请重新登录"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}
