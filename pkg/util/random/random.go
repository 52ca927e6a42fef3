// Package random 提供实体 uuid 的随机后缀生成
package random

import (
	"crypto/rand"
	"math/big"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GetNowAndLenRandomString 生成带日期前缀的随机字符串
// 格式: YYMMDD + length 位字母数字，调用方加上实体前缀（"U"/"A"/"T"）构成 uuid
func GetNowAndLenRandomString(length int) string {
	result := make([]byte, length)
	charsetLen := big.NewInt(int64(len(charset)))
	for i := range result {
		n, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			result[i] = 'x'
			continue
		}
		result[i] = charset[n.Int64()]
	}
	return time.Now().Format("060102") + string(result)
}
