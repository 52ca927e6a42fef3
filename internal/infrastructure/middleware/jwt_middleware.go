package middleware

import (
	"net/http"
	"strings"

	"zalo_outreach_server/pkg/errorx"
	"zalo_outreach_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// abortUnauthorized 以 401 终止请求
func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户信息存入上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "请先登录")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Token 格式错误，请使用 Bearer Token")
			return
		}

		claims, err := jwt.ParseToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}

		// Refresh Token 只能用于换发，不能直接访问业务接口
		if claims.Subject != jwt.SubjectAccess {
			abortUnauthorized(c, "请使用 Access Token 访问此接口")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Next()
	}
}
