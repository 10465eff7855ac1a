package uniqid

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Alphabet 随机串字符集
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Generate 生成指定长度的随机串，字符取自 Alphabet
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("随机串长度必须大于0")
	}

	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random source: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}

// UniqueID returns a time-ordered globally unique identifier.
func UniqueID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
