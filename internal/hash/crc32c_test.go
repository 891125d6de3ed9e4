package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	// Known answer for the Castagnoli polynomial.
	assert.Equal(t, Checksum(0xe3069283), Of([]byte("123456789")))
	assert.Equal(t, Checksum(0), Of(nil))
}

func TestUpdate(t *testing.T) {
	c := Of([]byte("1234")).Update([]byte("56789"))
	assert.Equal(t, Of([]byte("123456789")), c)
	assert.Equal(t, c, c.Update(nil))
}

func TestMatches(t *testing.T) {
	data := []byte("arena")
	sum := Of(data)
	assert.True(t, sum.Matches(data))

	data[0] ^= 1
	assert.False(t, sum.Matches(data))
}

func TestBase64(t *testing.T) {
	assert.Equal(t, "4waSgw==", Of([]byte("123456789")).Base64())
	assert.Equal(t, "AAAAAA==", Checksum(0).Base64())
}
