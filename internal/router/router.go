// Package router holds the route table and the navigation guard.
package router

import (
	"strings"
	"sync"
)

// Well-known paths.
const (
	PathRoot       = "/"
	PathLogin      = "/login"
	PathRegister   = "/register"
	PathChat       = "/chat"
	PathRoles      = "/roles"
	PathProfile    = "/profile"
	PathRecycleBin = "/recycle-bin"

	// PathHome is where an authenticated user lands.
	PathHome = PathChat
)

// Route describes one navigable location.
type Route struct {
	Path         string
	Name         string
	RequiresAuth bool
	Redirect     string
}

// Routes is the application route table.
var Routes = []Route{
	{Path: PathRoot, Redirect: PathChat},
	{Path: PathLogin, Name: "Login"},
	{Path: PathRegister, Name: "Register"},
	{Path: PathChat, Name: "Chat", RequiresAuth: true},
	{Path: PathRoles, Name: "Roles", RequiresAuth: true},
	{Path: PathProfile, Name: "Profile", RequiresAuth: true},
	{Path: PathRecycleBin, Name: "RecycleBin", RequiresAuth: true},
}

// Lookup finds the route for path. Unknown paths return a public route.
func Lookup(path string) Route {
	path = normalize(path)
	for _, r := range Routes {
		if r.Path == path {
			return r
		}
	}
	return Route{Path: path}
}

// Decision is the outcome of the guard.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Allow lets navigation proceed.
func Allow() Decision { return Decision{Allowed: true} }

// RedirectTo sends navigation elsewhere.
func RedirectTo(path string) Decision { return Decision{Redirect: path} }

// Guard decides whether navigation to route may proceed given whether a token is present.
func Guard(route Route, hasToken bool) Decision {
	if route.RequiresAuth && !hasToken {
		return RedirectTo(PathLogin)
	}
	if (route.Path == PathLogin || route.Path == PathRegister) && hasToken {
		return RedirectTo(PathHome)
	}
	return Allow()
}

// Resolve follows static redirects and the guard until a final path is reached.
func Resolve(path string, hasToken bool) string {
	path = normalize(path)
	for i := 0; i < len(Routes)+1; i++ {
		route := Lookup(path)
		if route.Redirect != "" {
			path = route.Redirect
			continue
		}
		d := Guard(route, hasToken)
		if d.Allowed {
			return path
		}
		path = d.Redirect
	}
	return path
}

func normalize(path string) string {
	if path == "" {
		return PathRoot
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// Navigator tracks the current location. The HTTP client uses it to send the
// user to the login route when a session expires.
type Navigator struct {
	mu       sync.Mutex
	current  string
	history  []string
	onChange func(path string)
}

// NewNavigator starts at PathRoot. onChange may be nil.
func NewNavigator(onChange func(path string)) *Navigator {
	return &Navigator{current: PathRoot, onChange: onChange}
}

// Navigate moves to path unconditionally.
func (n *Navigator) Navigate(path string) {
	n.mu.Lock()
	n.current = path
	n.history = append(n.history, path)
	cb := n.onChange
	n.mu.Unlock()

	if cb != nil {
		cb(path)
	}
}

// Current returns the current location.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// History returns every location navigated to, oldest first.
func (n *Navigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.history...)
}
