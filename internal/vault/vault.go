// Package vault holds the one-way hashing primitive shared by the login
// password and the transaction PIN. Both secrets go through bcrypt, which is
// salted, deliberately slow and compares in constant time.
package vault

import "golang.org/x/crypto/bcrypt"

// Hash derives a bcrypt digest from the plaintext secret. The plaintext is
// never stored or logged anywhere.
func Hash(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
}

// Verify reports whether secret matches the stored digest.
func Verify(secret string, digest []byte) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(secret)) == nil
}
