package agent

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Strob0t/ActionForge/internal/domain/event"
)

var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_-]+)`)

// Registry is an ordered, read-only roster of agents.
// It is built once and passed explicitly to the services that need it.
type Registry struct {
	profiles []Profile
	index    map[ID]int
	names    map[string]ID
}

// NewRegistry builds a registry from profiles, preserving their order.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{
		profiles: make([]Profile, 0, len(profiles)),
		index:    make(map[ID]int, len(profiles)),
		names:    make(map[string]ID, 2*len(profiles)),
	}
	for i := range profiles {
		p := profiles[i]
		if p.ID == "" {
			return nil, errors.New("agent id is required")
		}
		if _, dup := r.index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate agent id %q", p.ID)
		}
		r.index[p.ID] = len(r.profiles)
		r.profiles = append(r.profiles, p)
		r.names[strings.ToLower(string(p.ID))] = p.ID
		if p.DisplayName != "" {
			r.names[strings.ToLower(p.DisplayName)] = p.ID
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry over DefaultProfiles.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultProfiles()...)
	if err != nil {
		panic(err) // built-in roster is static
	}
	return r
}

// Get returns the profile for id.
func (r *Registry) Get(id ID) (Profile, bool) {
	i, ok := r.index[id]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[i], true
}

// Has reports whether id is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.index[id]
	return ok
}

// Role returns the role label for id, or FallbackRole when unknown.
func (r *Registry) Role(id ID) string {
	if p, ok := r.Get(id); ok && p.Role != "" {
		return p.Role
	}
	return FallbackRole
}

// DisplayName returns the mention handle for id, or the id itself.
func (r *Registry) DisplayName(id ID) string {
	if p, ok := r.Get(id); ok && p.DisplayName != "" {
		return p.DisplayName
	}
	return string(id)
}

// Profiles returns every profile, personas included, in registry order.
func (r *Registry) Profiles() []Profile {
	return append([]Profile(nil), r.profiles...)
}

// Specialists returns the non-persona profiles in registry order.
func (r *Registry) Specialists() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for i := range r.profiles {
		if !r.profiles[i].Persona {
			out = append(out, r.profiles[i])
		}
	}
	return out
}

// Supporting returns the specialists that handle events of type t, in registry order.
func (r *Registry) Supporting(t event.Type) []Profile {
	var out []Profile
	for i := range r.profiles {
		p := &r.profiles[i]
		if !p.Persona && p.SupportsEvent(t) {
			out = append(out, *p)
		}
	}
	return out
}

// Supports reports whether agent id is a registered specialist handling t.
func (r *Registry) Supports(id ID, t event.Type) bool {
	p, ok := r.Get(id)
	return ok && !p.Persona && p.SupportsEvent(t)
}

// ResolveMention maps a mention handle to a specialist id.
// Matching is case-insensitive against the id and the display name.
func (r *Registry) ResolveMention(name string) (ID, bool) {
	id, ok := r.names[strings.ToLower(strings.TrimPrefix(name, "@"))]
	if !ok {
		return "", false
	}
	if p, _ := r.Get(id); p.Persona {
		return "", false
	}
	return id, true
}

// ExtractMentions returns the specialists mentioned as @Name in text,
// deduplicated, in order of first appearance.
func (r *Registry) ExtractMentions(text string) []ID {
	var out []ID
	seen := make(map[ID]bool)
	for _, m := range mentionPattern.FindAllStringSubmatch(text, -1) {
		id, ok := r.ResolveMention(m[1])
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
