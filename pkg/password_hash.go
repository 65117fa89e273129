package pkg

import "golang.org/x/crypto/bcrypt"

const passwordHashCost = 12

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	if err != nil {
		return "", err
	}
	return BytesToString(hash), nil
}

// CheckPasswordHash works with hashes of any bcrypt cost.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
