package clipsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashOfIsStable(t *testing.T) {
	a := hashOf([]byte("hello"))
	b := hashOf([]byte("hello"))
	c := hashOf([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
