package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "password123"
	hashedPassword, err := HashPassword(password)

	assert.NoError(t, err)
	assert.NotEmpty(t, hashedPassword)
	assert.NotEqual(t, password, hashedPassword)
}

func TestCheckPasswordHash(t *testing.T) {
	password := "password123"
	hashedPassword, _ := HashPassword(password)

	assert.True(t, CheckPasswordHash(password, hashedPassword))
	assert.False(t, CheckPasswordHash("wrongpassword", hashedPassword))
}

func TestCheckPasswordHash_InvalidHash(t *testing.T) {
	assert.False(t, CheckPasswordHash("password123", "invalidhash"))
}

func TestHashPasswordWithCost(t *testing.T) {
	hashed, err := HashPasswordWithCost("password123", bcrypt.MinCost)
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	assert.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
	assert.True(t, CheckPasswordHash("password123", hashed))
}

func TestHashPasswordWithCost_OutOfRangeFallsBack(t *testing.T) {
	hashed, err := HashPasswordWithCost("password123", 99)
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	assert.NoError(t, err)
	assert.Equal(t, DefaultBcryptCost, cost)
}

func TestHashPassword_Salted(t *testing.T) {
	first, _ := HashPassword("password123")
	second, _ := HashPassword("password123")
	assert.NotEqual(t, first, second)
}
