package catalog

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// eanPrefix is the GS1 country prefix used for generated codes.
const eanPrefix = "775"

// GenerateEAN13 returns a random in-store EAN-13 code with a valid check digit.
func GenerateEAN13() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return "", fmt.Errorf("catalog: generate barcode: %w", err)
	}
	base := fmt.Sprintf("%s%09d", eanPrefix, n.Int64())
	return base + strconv.Itoa(ean13CheckDigit(base)), nil
}

// ValidateEAN13 reports whether code is 13 digits with a correct check digit.
func ValidateEAN13(code string) bool {
	if len(code) != 13 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return ean13CheckDigit(code[:12]) == int(code[12]-'0')
}

func ean13CheckDigit(base string) int {
	sum := 0
	for i := 0; i < 12; i++ {
		digit := int(base[i] - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return (10 - sum%10) % 10
}
