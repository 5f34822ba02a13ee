// Package features holds named feature flags evaluated lazily from the environment.
package features

import (
	"sort"
	"sync"

	"collab/internal/util"
)

// Flag names.
const (
	SignUp            = "sign_up"
	SignInGitHub      = "sign_in:github"
	DeploymentsGitHub = "deployments:github"
)

// Registry maps flag names to their predicates.
type Registry struct {
	mu    sync.RWMutex
	flags map[string]func() bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{flags: map[string]func() bool{}}
}

// Define registers or replaces a flag.
func (r *Registry) Define(name string, predicate func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flags[name] = predicate
}

// Enabled evaluates a flag. Unknown flags are disabled.
func (r *Registry) Enabled(name string) bool {
	r.mu.RLock()
	p, ok := r.flags[name]
	r.mu.RUnlock()
	return ok && p != nil && p()
}

// All evaluates every flag.
func (r *Registry) All() map[string]bool {
	r.mu.RLock()
	names := make([]string, 0, len(r.flags))
	for name := range r.flags {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	out := make(map[string]bool, len(names))
	for _, name := range names {
		out[name] = r.Enabled(name)
	}
	return out
}

// Defaults returns the registry with the application's flags. signUp is the
// configured fallback for public sign-up when ALLOW_PUBLIC_SIGNUP is unset.
func Defaults(signUp bool) *Registry {
	r := NewRegistry()

	// Authentication.
	r.Define(SignUp, func() bool {
		if util.EnvSet("ALLOW_PUBLIC_SIGNUP") {
			return util.EnvBool("ALLOW_PUBLIC_SIGNUP")
		}
		return signUp
	})
	r.Define(SignInGitHub, func() bool {
		return util.EnvSet("GITHUB_CLIENT_ID", "GITHUB_CLIENT_SECRET")
	})

	// Deployments.
	r.Define(DeploymentsGitHub, func() bool {
		return util.EnvSet("GITHUB_APP_ID", "GITHUB_APP_PRIVATE_KEY", "GITHUB_APP_WEBHOOK_SECRET")
	})
	return r
}
