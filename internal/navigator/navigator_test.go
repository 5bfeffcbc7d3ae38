package navigator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	route    Route
	mounts   int
	unmounts int
}

func (v *fakeView) Mount(ctx context.Context) { v.mounts++ }
func (v *fakeView) Unmount()                  { v.unmounts++ }

// newTestRouter registers a fakeView factory for every route and records
// every instance built.
func newTestRouter() (*Router, *[]*fakeView) {
	var built []*fakeView
	factories := make(map[Route]Factory)
	for _, r := range Routes {
		route := r
		factories[route] = func(nav Navigator) View {
			v := &fakeView{route: route}
			built = append(built, v)
			return v
		}
	}
	return NewRouter(context.Background(), factories), &built
}

func TestPushMountsFreshView(t *testing.T) {
	r, built := newTestRouter()

	r.Push(RouteHome)
	r.Push(RouteChain)
	r.Push(RouteHome)

	require.Len(t, *built, 3)
	assert.Equal(t, RouteHome, r.CurrentRoute())

	first, second, third := (*built)[0], (*built)[1], (*built)[2]
	assert.Equal(t, 1, first.mounts)
	assert.Equal(t, 1, first.unmounts)
	assert.Equal(t, 1, second.unmounts)
	assert.Equal(t, 0, third.unmounts)
	assert.NotSame(t, first, third)
}

func TestPushSameRouteIsNoop(t *testing.T) {
	r, built := newTestRouter()

	r.Push(RoutePool)
	r.Push(RoutePool)

	require.Len(t, *built, 1)
	assert.Equal(t, 0, (*built)[0].unmounts)
}

func TestPushUnknownRouteIgnored(t *testing.T) {
	r, built := newTestRouter()

	r.Push(RouteChain)
	r.Push(Route("/nowhere"))

	assert.Equal(t, RouteChain, r.CurrentRoute())
	assert.Len(t, *built, 1)
}

func TestActiveAndClose(t *testing.T) {
	r, built := newTestRouter()

	route, view := r.Active()
	assert.Equal(t, Route(""), route)
	assert.Nil(t, view)

	r.Push(RouteCompose)
	route, view = r.Active()
	assert.Equal(t, RouteCompose, route)
	assert.Same(t, (*built)[0], view)

	r.Close()
	assert.Equal(t, 1, (*built)[0].unmounts)
	_, view = r.Active()
	assert.Nil(t, view)
}

func TestRouteValid(t *testing.T) {
	for _, r := range Routes {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Route("/transactions").Valid())
}
