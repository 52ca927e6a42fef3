// Package jwt 提供管理端认证 Token 的签发和校验
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token 的 Subject 取值，中间件和刷新接口据此区分两类 Token
const (
	SubjectAccess  = "access_token"
	SubjectRefresh = "refresh_token"
)

const issuer = "zalo_outreach"

// 全局配置，由 Init 初始化
var (
	secret             []byte
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
)

// Init 初始化 JWT 配置
func Init(signSecret string, accessExpiryMinutes, refreshExpiryHours int) {
	secret = []byte(signSecret)
	accessTokenExpiry = time.Duration(accessExpiryMinutes) * time.Minute
	refreshTokenExpiry = time.Duration(refreshExpiryHours) * time.Hour
}

// Claims 自定义 JWT 声明
type Claims struct {
	UserID  string `json:"user_id"`
	TokenID string `json:"token_id,omitempty"` // 仅 Refresh Token 使用，用于单点互踢
	jwt.RegisteredClaims
}

func newClaims(userID, tokenID, subject string, expiry time.Duration) Claims {
	return Claims{
		UserID:  userID,
		TokenID: tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    issuer,
			Subject:   subject,
		},
	}
}

// GenerateAccessToken 生成 Access Token（短期，用于接口认证）
func GenerateAccessToken(userID string) (string, error) {
	claims := newClaims(userID, "", SubjectAccess, accessTokenExpiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// GenerateRefreshToken 生成 Refresh Token（长期，用于刷新 Access Token）
// 返回 token 字符串和 tokenID，tokenID 存 Redis 实现单点互踢
func GenerateRefreshToken(userID string) (tokenString string, tokenID string, err error) {
	tokenID = uuid.NewString()
	claims := newClaims(userID, tokenID, SubjectRefresh, refreshTokenExpiry)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err = token.SignedString(secret)
	return
}

// ParseToken 解析并验证 Token
func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
