package httpserver

import (
	"context"
	"sync"
)

// SignInRoute is where the UI is sent after sign-out.
const SignInRoute = "/sign-in"

// Navigator records the route the UI should move to. The shell polls or
// reads it from the sign-out response; nothing here renders anything.
type Navigator struct {
	mu    sync.Mutex
	route string
}

func (n *Navigator) ToSignIn(context.Context) {
	n.mu.Lock()
	n.route = SignInRoute
	n.mu.Unlock()
}

// Route returns the last requested route, or "" when none was requested.
func (n *Navigator) Route() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}
