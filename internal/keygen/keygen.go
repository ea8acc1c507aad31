// Package keygen generates random storage keys for uploaded images
package keygen

import (
	"math/rand/v2"
	"strings"

	"github.com/UnendingLoop/ImageHost/internal/model"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	IDLength = 16
)

// Generate returns IDLength letters from [A-Za-z] followed by the target extension.
// Existing keys are not checked: 52^16 (~2.9e27) names make a collision negligible.
func Generate() string {
	var sb strings.Builder
	sb.Grow(IDLength + len(model.TargetExt))

	for range IDLength {
		sb.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	sb.WriteString(model.TargetExt)

	return sb.String()
}
