package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	tests := []struct {
		name      string
		color     *string
		wantColor *string
	}{
		{"lowercase hex", Ptr("#eb5757"), Ptr("#EB5757")},
		{"padded", Ptr("  #2f80ed "), Ptr("#2F80ED")},
		{"short hex", Ptr("#fff"), nil},
		{"named color", Ptr("red"), nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProject(ProjectInput{Name: "Work", Color: tt.color}, testNow)
			require.NoError(t, err)
			assert.Equal(t, tt.wantColor, p.Color)
		})
	}
}

func TestNewProject_Name(t *testing.T) {
	_, err := NewProject(ProjectInput{Name: " "}, testNow)
	assert.ErrorIs(t, err, ErrEmptyName)

	p, err := NewProject(ProjectInput{Name: strings.Repeat("n", 130)}, testNow)
	require.NoError(t, err)
	assert.Len(t, p.Name, MaxName)
}

func TestProjectApply(t *testing.T) {
	p, err := NewProject(ProjectInput{Name: "Work", Color: Ptr("#27ae60")}, testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Minute)
	next, err := p.Apply(ProjectPatch{Name: Ptr("Office"), Color: Clear[string]()}, later)
	require.NoError(t, err)
	assert.Equal(t, "Office", next.Name)
	assert.Nil(t, next.Color)
	assert.Equal(t, FormatStamp(later), next.UpdatedAt)
	assert.Equal(t, "#27AE60", *p.Color)
}

func TestSettingsMerge(t *testing.T) {
	base := DefaultSettings()

	merged := base.Merge(Settings{RemoveProjectBehavior: "bogus", TimeFormat: TimeFormat12h})
	assert.Equal(t, MoveToInbox, merged.RemoveProjectBehavior)
	assert.Equal(t, TimeFormat12h, merged.TimeFormat)

	prior := Settings{RemoveProjectBehavior: DeleteWithTasks, TimeFormat: TimeFormat12h}
	assert.Equal(t, prior, prior.Merge(Settings{TimeFormat: "25h"}))

	assert.Equal(t, DefaultSettings(), NormalizeSettings(Settings{RemoveProjectBehavior: "x", TimeFormat: "y"}))
}
