package merge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hy4ri/taskgrid/internal/model"
)

func task(id, title, updatedAt string, order float64) model.Task {
	return model.Task{ID: id, Title: title, UpdatedAt: updatedAt, Order: order}
}

func titles(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestCollection(t *testing.T) {
	tests := []struct {
		name   string
		local  []model.Task
		remote []model.Task
		want   []string
	}{
		{
			name:   "newer remote wins",
			local:  []model.Task{task("a", "local", "2026-03-01T10:00:00.000Z", 1)},
			remote: []model.Task{task("a", "remote", "2026-03-01T11:00:00.000Z", 1)},
			want:   []string{"remote"},
		},
		{
			name:   "newer local wins",
			local:  []model.Task{task("a", "local", "2026-03-01T12:00:00.000Z", 1)},
			remote: []model.Task{task("a", "remote", "2026-03-01T11:00:00.000Z", 1)},
			want:   []string{"local"},
		},
		{
			name:   "tie goes to remote",
			local:  []model.Task{task("a", "local", "2026-03-01T12:00:00.000Z", 1)},
			remote: []model.Task{task("a", "remote", "2026-03-01T12:00:00.000Z", 1)},
			want:   []string{"remote"},
		},
		{
			name:   "unparseable timestamps tie at zero",
			local:  []model.Task{task("a", "local", "garbage", 1)},
			remote: []model.Task{task("a", "remote", "", 1)},
			want:   []string{"remote"},
		},
		{
			name:   "union sorted by order",
			local:  []model.Task{task("a", "A", "", 3000), task("b", "B", "", 1000)},
			remote: []model.Task{task("c", "C", "", 2000)},
			want:   []string{"B", "C", "A"},
		},
		{
			name:   "items without id are dropped",
			local:  []model.Task{task("", "nameless", "", 1)},
			remote: []model.Task{task("", "nameless", "", 1), task("x", "X", "", 2)},
			want:   []string{"X"},
		},
		{
			name:   "non-finite order sorts as zero",
			local:  []model.Task{task("a", "A", "", 5), task("b", "B", "", math.NaN())},
			remote: []model.Task{task("c", "C", "", -1)},
			want:   []string{"C", "B", "A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(Collection(tt.local, tt.remote)))
		})
	}
}

func TestState(t *testing.T) {
	local := model.EmptyState()
	local.Projects = []model.Project{{ID: "p", Name: "Local", UpdatedAt: "2026-03-02T00:00:00.000Z"}}
	local.Settings.TimeFormat = model.TimeFormat12h

	remote := model.State{
		Version:  7,
		Projects: []model.Project{{ID: "p", Name: "Remote", UpdatedAt: "2026-03-01T00:00:00.000Z"}},
		Tasks:    []model.Task{task("t", "from cloud", "", 1)},
		Settings: model.Settings{RemoveProjectBehavior: model.DeleteWithTasks},
	}

	merged := State(local, remote)
	assert.Equal(t, model.StateVersion, merged.Version)
	assert.Equal(t, "Local", merged.Projects[0].Name)
	assert.Equal(t, []string{"from cloud"}, titles(merged.Tasks))
	assert.Equal(t, model.DeleteWithTasks, merged.Settings.RemoveProjectBehavior)
	assert.Equal(t, model.TimeFormat12h, merged.Settings.TimeFormat)
}

func TestShouldApply(t *testing.T) {
	assert.True(t, ShouldApply("", "2026-03-01T00:00:00Z", false))
	assert.False(t, ShouldApply("2026-03-01T00:00:00Z", "2026-03-01T00:00:00Z", false))
	assert.True(t, ShouldApply("2026-03-01T00:00:00Z", "2026-03-01T00:00:00Z", true))
	assert.True(t, ShouldApply("2026-03-01T00:00:00Z", "", false))
}
