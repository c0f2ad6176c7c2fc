package domain

import "encoding/json"

// SessionContext is the typed shape of a session's context payload: the
// repository bindings and guidance the session was created with.
type SessionContext struct {
	Bindings      []string `json:"bindings,omitempty"`
	TechStack     []string `json:"techStack,omitempty"`
	Constraints   []string `json:"constraints,omitempty"`
	Documentation []string `json:"documentation,omitempty"`
}

// ParseSessionContext decodes a raw context payload. Empty or malformed
// input yields an empty context, never an error; interventions proceed
// without context rather than abort.
func ParseSessionContext(raw json.RawMessage) SessionContext {
	if len(raw) == 0 {
		return SessionContext{}
	}
	var sc SessionContext
	if err := json.Unmarshal(raw, &sc); err != nil {
		return SessionContext{}
	}
	return sc
}

// Empty reports whether the context carries no information at all.
func (c SessionContext) Empty() bool {
	return len(c.Bindings) == 0 && len(c.TechStack) == 0 &&
		len(c.Constraints) == 0 && len(c.Documentation) == 0
}
