package credentials

import "time"

// AdminCredential is the single dashboard login credential. Only a PBKDF2
// verifier of the password is stored, never the password itself.
type AdminCredential struct {
	ID           string    // Unique identifier for the credential record
	PasswordHash string    // PBKDF2-derived verifier (base 64 encoded)
	Salt         string    // Salt used for the derivation (base 64 encoded)
	CreatedAt    time.Time // Timestamp when the credential was created
	UpdatedAt    time.Time // Timestamp when the credential was last changed
}
