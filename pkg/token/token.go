package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// secretKey 是用于签发和验证JWT的HMAC密钥。
// 优先从环境变量JWT_SECRET读取；缺失时在启动期生成一个随机密钥，
// 这意味着重启后所有旧token失效（开发模式下可接受）。
var secretKey []byte

// tokenTTL 是签发token的有效期，由InitSecretKey设置。
var tokenTTL = 72 * time.Hour

// ErrInvalidToken 表示token无法通过验证（签名错误、过期或格式不正确）。
var ErrInvalidToken = errors.New("无效的token")

// InitSecretKey 初始化JWT密钥和token有效期。
// 应该在应用启动时且仅调用一次。
func InitSecretKey(ttlHours int) {
	if ttlHours > 0 {
		tokenTTL = time.Duration(ttlHours) * time.Hour
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		secretKey = []byte(secret)
		fmt.Println("JWT密钥已从环境变量加载。")
		return
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = []byte(hex.EncodeToString(key))
	fmt.Println("警告: 未设置JWT_SECRET，已生成临时密钥，重启后所有会话将失效。")
}

// GenerateToken 为指定用户签发一个HS256签名的JWT。
func GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		Issuer:    "dish-gacha-backend",
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("无法签发token: %w", err)
	}
	return signed, nil
}

// ParseToken 验证token并返回其中的用户ID。
func ParseToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		// 只接受HMAC族算法，防止算法替换攻击
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("意外的签名算法: %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
