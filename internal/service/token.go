package service

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// cancelTokenLength 32 символа алфавита nanoid (64 символа) ~ 192 бита энтропии
const cancelTokenLength = 32

// TokenGenerator выдаёт непредсказуемые токены отмены
type TokenGenerator func() (string, error)

// NanoidTokens токены из crypto/rand через go-nanoid
func NanoidTokens() (string, error) {
	return gonanoid.New(cancelTokenLength)
}
