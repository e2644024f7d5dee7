package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestONNXOptions_maxTokens(t *testing.T) {
	v := Variant{MaxTokens: 512}
	assert.Equal(t, 512, ONNXOptions{Variant: v}.maxTokens())
	assert.Equal(t, 128, ONNXOptions{Variant: v, MaxTokens: 128}.maxTokens())
	assert.Equal(t, 512, ONNXOptions{Variant: v, MaxTokens: 4096}.maxTokens())
}
