package notify

import "sort"

// Registry is a simple map-based set of senders keyed by platform.
type Registry struct {
	senders map[string]Sender
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		senders: make(map[string]Sender),
	}
}

// Register adds a sender, replacing any previous one for the same platform.
func (r *Registry) Register(s Sender) {
	r.senders[s.Platform()] = s
}

// All returns the senders ordered by platform name.
func (r *Registry) All() []Sender {
	out := make([]Sender, 0, len(r.senders))
	for _, s := range r.senders {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform() < out[j].Platform() })
	return out
}

func (r *Registry) Len() int { return len(r.senders) }
