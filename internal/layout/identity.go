package layout

import "github.com/google/uuid"

// Action is the outcome of identity resolution for a submitted item
type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
)

func (a Action) String() string {
	if a == ActionUpdate {
		return "update"
	}
	return "create"
}

// Resolution pairs the action with the id the item will be stored under.
// For creates the id is freshly minted and any client-suggested id is dropped.
type Resolution struct {
	Action Action
	ID     string
}

// MemberSet is the set of ids currently owned by a container
type MemberSet map[string]struct{}

// Members collects the ids of rows
func Members[T any](rows []T, id func(T) string) MemberSet {
	set := make(MemberSet, len(rows))
	for _, row := range rows {
		set[id(row)] = struct{}{}
	}
	return set
}

func (m MemberSet) Has(id string) bool {
	_, ok := m[id]
	return ok
}

// Deletable filters an explicit deletion list down to ids owned by the
// container, dropping duplicates. Unknown ids are ignored: the client may be
// deleting something a previous request already removed.
func (m MemberSet) Deletable(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !m.Has(id) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Resolver classifies submitted items against a container's members
type Resolver struct {
	newID func() string
}

// NewResolver uses newID to mint identifiers; nil means random UUIDs
func NewResolver(newID func() string) Resolver {
	if newID == nil {
		newID = uuid.NewString
	}
	return Resolver{newID: newID}
}

// Resolve returns Update when submitted names a current member, Create otherwise
func (r Resolver) Resolve(members MemberSet, submitted *string) Resolution {
	if submitted != nil && members.Has(*submitted) {
		return Resolution{Action: ActionUpdate, ID: *submitted}
	}
	return Resolution{Action: ActionCreate, ID: r.newID()}
}

// Mint returns a new durable identifier
func (r Resolver) Mint() string { return r.newID() }
