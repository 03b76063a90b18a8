package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/anjiri1684/classroom/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const (
	joinCodeLength   = 8
	joinCodeAttempts = 10
	letterBytes      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

var ErrJoinCodeExhausted = errors.New("could not find a free join code")

func randomCode(n int) (string, error) {
	b := make([]byte, n)
	max := big.NewInt(int64(len(letterBytes)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = letterBytes[idx.Int64()]
	}
	return string(b), nil
}

// GenerateUniqueJoinCode returns a classroom join code no classroom uses yet.
// Look-alike characters (0/O, 1/I) are left out.
func GenerateUniqueJoinCode(tx *gorm.DB) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := randomCode(joinCodeLength)
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.Model(&models.Classroom{}).Where("join_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrJoinCodeExhausted
}
