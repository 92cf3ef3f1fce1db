package auth

import "golang.org/x/crypto/bcrypt"

// Password hashing is the slow, salted path, deliberately unlike PAT secret
// hashing: passwords are low-entropy user input.

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
