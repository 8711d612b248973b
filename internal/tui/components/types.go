package components

import "github.com/hy4ri/taskgrid/internal/router"

// Pane represents which pane is currently focused.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneMain
)

// ItemKind is the kind of a sidebar entry.
type ItemKind int

const (
	ItemView ItemKind = iota
	ItemProject
	ItemTag
	ItemHeader
	ItemSeparator
)

// SidebarItem is one line of the sidebar: a built-in view, a project, a tag
// or a non-selectable header or separator.
type SidebarItem struct {
	Kind  ItemKind
	Route router.Route
	Name  string
	Icon  string
	Count int
	Color *string
}

// Selectable reports whether the cursor may rest on the item.
func (i SidebarItem) Selectable() bool {
	return i.Kind != ItemHeader && i.Kind != ItemSeparator
}
