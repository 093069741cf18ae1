package operators

import "time"

// Operator is an API credential for the render-server. The secret is only
// ever returned once, at creation time; the repository stores its hash.
type Operator struct {
	ID         string    // Unique identifier for the operator, chosen at creation
	SecretHash string    // Hashed secret for authentication (base 64 encoded)
	SecretSalt string    // Salt used for hashing the secret (base 64 encoded)
	Disabled   bool      // Disabled operators fail verification
	CreatedAt  time.Time // Timestamp when the operator was created
	UpdatedAt  time.Time // Timestamp when the operator was last updated
}
