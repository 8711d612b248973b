package router

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Route
	}{
		{"", Default()},
		{"#/", Default()},
		{"#/today", Route{Name: Today}},
		{"upcoming", Route{Name: Upcoming}},
		{"/calendar", Route{Name: Calendar}},
		{"#/done", Route{Name: Done}},
		{"#/done?project=inbox", Route{Name: Done, Param: "inbox"}},
		{"#/project/p-1", Route{Name: Project, Param: "p-1"}},
		{"#/project/", Default()},
		{"#/tag/deep%20work", Route{Name: Tag, Param: "deep work"}},
		{"#/search?q=milk+and+eggs", Route{Name: Search, Param: "milk and eggs"}},
		{"#/search", Route{Name: Search}},
		{"#/nowhere", Default()},
		{"#/today/extra", Default()},
		{"#/tag/%zz", Default()},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestRoute_StringRoundTrip(t *testing.T) {
	routes := []Route{
		{Name: Today},
		{Name: Upcoming},
		{Name: Calendar},
		{Name: Done},
		{Name: Done, Param: "p-1"},
		{Name: Project, Param: InboxID},
		{Name: Project, Param: "id with spaces"},
		{Name: Tag, Param: "café"},
		{Name: Search, Param: "a&b=c"},
	}
	for _, r := range routes {
		assert.Equal(t, r, Parse(r.String()), r.String())
	}

	for _, r := range []Route{{Name: Project}, {Name: Tag}, {Name: "bogus"}} {
		assert.Equal(t, Default().String(), r.String())
		assert.Equal(t, Parse(r.String()), Parse("#/"+string(r.Name)+"/"), r.Name)
	}
}

func TestRoute_ProjectID(t *testing.T) {
	id, ok := Route{Name: Project, Param: InboxID}.ProjectID()
	assert.True(t, ok)
	assert.Nil(t, id)

	id, ok = Route{Name: Done, Param: "p"}.ProjectID()
	require.True(t, ok)
	assert.Equal(t, "p", *id)

	_, ok = Route{Name: Done}.ProjectID()
	assert.False(t, ok)

	_, ok = Route{Name: Today}.ProjectID()
	assert.False(t, ok)
}

func TestHistory(t *testing.T) {
	var h History
	assert.Equal(t, Default(), h.Current())

	h.Push(Route{Name: Today})
	h.Push(Route{Name: Today})
	h.Push(Route{Name: Tag, Param: "x"})

	prev, ok := h.Back()
	require.True(t, ok)
	assert.Equal(t, Route{Name: Today}, prev)

	_, ok = h.Back()
	assert.False(t, ok)
}

func TestHistory_Limit(t *testing.T) {
	var h History
	for i := 0; i < historyLimit+10; i++ {
		h.Push(Route{Name: Tag, Param: strconv.Itoa(i)})
	}
	assert.Len(t, h.stack, historyLimit)
	assert.Equal(t, strconv.Itoa(historyLimit+9), h.Current().Param)
}
