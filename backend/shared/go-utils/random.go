// go-utils/random.go

package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomNumericCode returns a uniformly random decimal code of exactly
// `length` digits without a leading zero, e.g. 100000–999999 for length 6.
func RandomNumericCode(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("invalid code length %d", length)
	}
	lower := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(lower, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, lower).String(), nil
}
