package pkg

import "golang.org/x/crypto/bcrypt"

const secretHashCost = 14

// HashSecret returns the bcrypt hash of an app secret, as stored in
// CARDIO_APP_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), secretHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func SecretMatchesHash(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
