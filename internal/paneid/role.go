package paneid

import "fmt"

// RoleKind distinguishes roles that are never cleared from roles that are
// clearable when idle or done.
type RoleKind string

const (
	// RoleKindManager marks main/manager*/secretary roles: never cleared.
	RoleKindManager RoleKind = "manager"
	// RoleKindWorker marks worker* roles: clearable when idle/done.
	RoleKindWorker RoleKind = "worker"
)

// Template is the fixed, ordered role template assigned to panes at
// discovery, sorted by numeric pane id. Indices beyond len(Template)
// fall back to an overflow "workerK" role (see AssignRole).
var Template = []string{"main", "manager1", "manager2", "secretary"}

// Role is a role name drawn from Template (or an overflow workerK name)
// together with its kind.
type Role struct {
	name string
	kind RoleKind
}

// Name returns the role's name (e.g. "main", "worker3").
func (r Role) Name() string {
	return r.name
}

// Kind returns the role's kind.
func (r Role) Kind() RoleKind {
	return r.kind
}

// IsManagerLike reports whether the role is never cleared.
func (r Role) IsManagerLike() bool {
	return r.kind == RoleKindManager
}

// IsWorkerLike reports whether the role is clearable when idle/done.
func (r Role) IsWorkerLike() bool {
	return r.kind == RoleKindWorker
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return r.name
}

// managerRoles is the set of Template entries that are manager-like.
// "worker1"… are not in Template itself but share the prefix "worker".
var managerRoles = map[string]bool{
	"main":      true,
	"manager1":  true,
	"manager2":  true,
	"secretary": true,
}

// AssignRole builds the Role for a given position in a sorted discovery
// snapshot. Positions within len(Template) take the template name verbatim.
// Positions beyond it become "workerK", where K continues from the number
// of worker-like template slots already consumed so that overflow workers
// never collide with template-named workers.
func AssignRole(index int) Role {
	if index < len(Template) {
		name := Template[index]
		return roleFromName(name)
	}
	workerNum := index - len(Template) + 1
	return Role{name: fmt.Sprintf("worker%d", workerNum), kind: RoleKindWorker}
}

// roleFromName classifies an arbitrary role name by exact match against
// managerRoles (any other name is worker-like), used both for template
// entries and for re-deriving kind from a persisted name.
func roleFromName(name string) Role {
	if managerRoles[name] {
		return Role{name: name, kind: RoleKindManager}
	}
	return Role{name: name, kind: RoleKindWorker}
}

// RoleFromName reconstructs a Role from a previously assigned name, for
// example when loading a pane's recorded role back out of the journal.
func RoleFromName(name string) Role {
	return roleFromName(name)
}
