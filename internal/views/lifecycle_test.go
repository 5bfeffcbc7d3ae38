package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLifecycleMountIDPerMount(t *testing.T) {
	l := newLifecycle()

	_, gen1 := l.mount(context.Background())
	first := l.id
	l.unmount()
	assert.Equal(t, first, l.id, "id survives unmount for late-response logs")

	_, gen2 := l.mount(context.Background())
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, l.id)
	assert.False(t, l.alive(gen1))
	assert.True(t, l.alive(gen2))
	l.unmount()
}
