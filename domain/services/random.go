package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// CryptoRandomSource draws uniform random integers from crypto/rand. It is
// the production randomness for number draws and card generation.
type CryptoRandomSource struct{}

// NewCryptoRandomSource creates the crypto/rand backed source
func NewCryptoRandomSource() *CryptoRandomSource {
	return &CryptoRandomSource{}
}

// Intn returns a uniform random integer in [0, n)
func (s *CryptoRandomSource) Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid random bound %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}
