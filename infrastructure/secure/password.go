package secure

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores input past 72 bytes and newer versions reject it.
const maxPasswordBytes = 72

func clip(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(clip(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), clip(password)) == nil
}
