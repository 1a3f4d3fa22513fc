package balancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticAlwaysSuggestsConfiguredSize(t *testing.T) {
	b := Static{Size: 32}
	assert.Equal(t, 32, b.SuggestBlockSize(0))
	assert.Equal(t, 32, b.SuggestBlockSize(1000))
}

func TestNoOpIgnoresCurrentCount(t *testing.T) {
	var b NoOp
	assert.Equal(t, 0, b.SuggestBlockSize(0))
	assert.Equal(t, 0, b.SuggestBlockSize(1000))
}
