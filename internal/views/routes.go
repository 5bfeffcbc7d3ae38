package views

import (
	"ledgerdash.mini/ldm/internal/navigator"
	"ledgerdash.mini/ldm/internal/poller"
)

// Factories maps every route to a constructor for its view.
func Factories(gw Gateway, notify Notifier, p *poller.Poller) map[navigator.Route]navigator.Factory {
	return map[navigator.Route]navigator.Factory{
		navigator.RouteHome: func(nav navigator.Navigator) navigator.View {
			return NewWalletView(gw)
		},
		navigator.RouteChain: func(nav navigator.Navigator) navigator.View {
			return NewChainView(gw)
		},
		navigator.RouteCompose: func(nav navigator.Navigator) navigator.View {
			return NewComposerView(gw, nav, notify)
		},
		navigator.RoutePool: func(nav navigator.Navigator) navigator.View {
			return NewPoolView(gw, nav, notify, p)
		},
	}
}
