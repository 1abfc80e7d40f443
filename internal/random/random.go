package random

import (
	"crypto/rand"
	"math/big"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n random ASCII letters.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(allowedLetters))))
		if err != nil {
			return "", err
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// maxSeed matches the range of seeds recorded by earlier deployments.
const maxSeed = 1_000_000_000

// Seed returns a random value in [0, 1e9) that is recorded on survey runs for traceability.
func Seed() (int64, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(maxSeed))
	if err != nil {
		return 0, err
	}
	return seed.Int64(), nil
}
