package operators

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
)

const (
	secretLength = 32 // 256 bits of entropy per generated secret
	saltLength   = 16 // 128 bits for salt
)

// generateSecret generates a new random operator secret.
func generateSecret() ([]byte, error) {
	secret := make([]byte, secretLength)
	_, err := rand.Read(secret)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// hashSecret hashes the given secret using SHA-256 with a random salt.
func hashSecret(secret []byte) (hashed, salt []byte, err error) {
	salt = make([]byte, saltLength)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, err
	}

	hasher := sha256.New()
	hasher.Write(salt)
	hasher.Write(secret)
	hashed = hasher.Sum(nil)

	return hashed, salt, nil
}

// compareSecret compares a hashed secret with a plain secret using the
// provided salt.
func compareSecret(hashedValue, plainValue, salt []byte) bool {
	hasher := sha256.New()
	hasher.Write(salt)
	hasher.Write(plainValue)
	computedHash := hasher.Sum(nil)

	// compare using constant time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare(hashedValue, computedHash) == 1
}
