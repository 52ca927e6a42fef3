package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler 强制 HTTPS 重定向中间件
func TlsHandler(host string, port int) gin.HandlerFunc {
	// 在返回函数之前初始化，避免每次请求重复创建
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect: true,
		SSLHost:     host + ":" + strconv.Itoa(port),
	})

	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			// 中间件里不能 Fatal，记错误日志并终止当前请求
			zap.L().Error("TLS redirection failed", zap.Error(err))
			c.Abort()
			return
		}
		c.Next()
	}
}
