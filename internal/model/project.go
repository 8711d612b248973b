package model

import (
	"regexp"
	"strings"
	"time"
)

var colorPattern = regexp.MustCompile(`(?i)^#[0-9a-f]{6}$`)

// Project groups tasks.
type Project struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     *string `json:"color"`
	Order     float64 `json:"order"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// ProjectInput carries the fields of a new project.
type ProjectInput struct {
	ID    string
	Name  string
	Color *string
	Order *float64
}

// ProjectPatch lists the fields to change on an existing project.
type ProjectPatch struct {
	Name  *string
	Color Nullable[string]
	Order *float64
}

// NewProject builds a sanitized project stamped at now.
func NewProject(in ProjectInput, now time.Time) (Project, error) {
	name, err := sanitizeName(in.Name)
	if err != nil {
		return Project{}, err
	}
	id := in.ID
	if id == "" {
		id = NewID()
	}
	stamp := FormatStamp(now)
	return Project{
		ID:        id,
		Name:      name,
		Color:     sanitizeColor(in.Color),
		Order:     sanitizeOrder(in.Order, now),
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}, nil
}

// Apply returns a copy of p with the patch applied and UpdatedAt set to now.
func (p Project) Apply(patch ProjectPatch, now time.Time) (Project, error) {
	next := p
	if patch.Name != nil && *patch.Name != "" {
		name, err := sanitizeName(*patch.Name)
		if err != nil {
			return p, err
		}
		next.Name = name
	}
	if patch.Color.Set {
		next.Color = sanitizeColor(patch.Color.Value)
	}
	if patch.Order != nil {
		next.Order = sanitizeOrder(patch.Order, now)
	}
	next.UpdatedAt = FormatStamp(now)
	return next, nil
}

// EntityID implements Entity.
func (p Project) EntityID() string { return p.ID }

// SortOrder implements Entity.
func (p Project) SortOrder() float64 { return p.Order }

// LastModified implements Entity.
func (p Project) LastModified() string { return p.UpdatedAt }

// WithOrder returns a copy of p with the given order.
func (p Project) WithOrder(order float64) Project {
	p.Order = order
	return p
}

func sanitizeName(name string) (string, error) {
	value := truncateRunes(strings.TrimSpace(name), MaxName)
	if value == "" {
		return "", ErrEmptyName
	}
	return value, nil
}

func sanitizeColor(color *string) *string {
	if color == nil {
		return nil
	}
	value := strings.TrimSpace(*color)
	if !colorPattern.MatchString(value) {
		return nil
	}
	value = strings.ToUpper(value)
	return &value
}
