package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt 只处理前 72 字节，超长密码直接拒绝而不是静默截断。
const maxPasswordBytes = 72

var errPasswordTooLong = errors.New("password exceeds 72 bytes")

// HashPassword 对明文密码进行 bcrypt 哈希
func HashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password must not be empty")
	}
	if len(password) > maxPasswordBytes {
		return "", errPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword 校验明文密码与存储哈希是否一致
func ComparePassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	if len(candidate) > maxPasswordBytes {
		return errPasswordTooLong
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}
