// Package idp talks to the external OAuth2/OIDC identity provider: it builds
// authorization URLs, exchanges authorization codes for tokens, and decodes
// identity claims. The provider itself is an external collaborator; nothing
// here issues or signs credentials.
package idp

// App names the role family a client registration authenticates. The mother
// application and the kid applications are registered as separate OAuth2
// clients at the provider.
const (
	AppAdmin  = "admin"
	AppTenant = "tenant"
)

// Registration is one OAuth2 client recognised by the identity provider.
// Read-only after startup.
type Registration struct {
	// ID is the OAuth2 client_id.
	ID string
	// Secret is the client secret. Empty for public clients.
	Secret string
	// App is the role family this registration authenticates.
	App string
}

// Registry holds the configured client registrations in a fixed order. Two
// registrations (admin, tenant) are the default deployment; the registry
// itself supports any number.
type Registry struct {
	regs []Registration
}

// NewRegistry builds a registry preserving the given order, which is also the
// fallback order for callback resolution.
func NewRegistry(regs ...Registration) *Registry {
	return &Registry{regs: regs}
}

// ByApp returns the registration for an app name.
func (r *Registry) ByApp(app string) (Registration, bool) {
	for _, reg := range r.regs {
		if reg.App == app {
			return reg, true
		}
	}
	return Registration{}, false
}

// OrderFor returns all registrations with the hinted app first and the rest
// in registry order. An unknown or empty hint yields plain registry order.
func (r *Registry) OrderFor(hintApp string) []Registration {
	ordered := make([]Registration, 0, len(r.regs))
	if hinted, ok := r.ByApp(hintApp); ok {
		ordered = append(ordered, hinted)
	}
	for _, reg := range r.regs {
		if reg.App != hintApp {
			ordered = append(ordered, reg)
		}
	}
	return ordered
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	return len(r.regs)
}
