package web

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestShorten(t *testing.T) {
	assert.Equal(t, "genesis", shorten("genesis"))
	assert.Equal(t, "0123456789abcde...", shorten("0123456789abcdef0123"))

	got := shorten("ééééééééééééééééééé")
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "ééééééééééééééé...", got)
}
