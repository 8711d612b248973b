package store

import "github.com/hy4ri/taskgrid/internal/model"

// Scope selects tasks by project. The zero value matches every project.
type Scope struct {
	// Filtered restricts the scope to ProjectID, where nil is the inbox.
	Filtered  bool
	ProjectID *string
}

// AllProjects matches every task.
func AllProjects() Scope {
	return Scope{}
}

// InboxScope matches tasks without a project.
func InboxScope() Scope {
	return Scope{Filtered: true}
}

// ProjectScope matches the tasks of one project. An empty id is the inbox.
func ProjectScope(id string) Scope {
	if id == "" {
		return InboxScope()
	}
	return Scope{Filtered: true, ProjectID: &id}
}

// Contains reports whether t falls inside the scope.
func (s Scope) Contains(t model.Task) bool {
	if !s.Filtered {
		return true
	}
	return t.InProject(s.ProjectID)
}
