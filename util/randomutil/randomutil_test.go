package randomutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomNumberGenerator(t *testing.T) {
	var generator RandomGenerator = RandomNumberGenerator{}
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, generator.GenerateInt63(), int64(0))
	}
}
