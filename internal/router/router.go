// Package router maps location strings such as "#/project/inbox" or
// "/search?q=milk" to the screen the application should show.
package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Name identifies a screen.
type Name string

const (
	Today    Name = "today"
	Upcoming Name = "upcoming"
	Calendar Name = "calendar"
	Done     Name = "done"
	Project  Name = "project"
	Tag      Name = "tag"
	Search   Name = "search"
)

// InboxID is the project id used in routes for tasks without a project.
const InboxID = "inbox"

// Route is a parsed location. Param holds the project id for Project, the
// tag for Tag, the optional project filter for Done and the query for Search.
type Route struct {
	Name  Name
	Param string
}

// Default is the route shown for empty or unknown locations.
func Default() Route {
	return Route{Name: Calendar}
}

var table = newTable()

func newTable() *mux.Router {
	r := mux.NewRouter()
	r.Path("/today").Name(string(Today))
	r.Path("/upcoming").Name(string(Upcoming))
	r.Path("/calendar").Name(string(Calendar))
	r.Path("/done").Name(string(Done))
	r.Path("/search").Name(string(Search))
	r.Path("/project/{id:.+}").Name(string(Project))
	r.Path("/tag/{name:.+}").Name(string(Tag))
	return r
}

// Parse resolves a location. The leading "#" and "/" are optional and path
// segments may be percent-encoded.
func Parse(location string) Route {
	location = strings.TrimPrefix(strings.TrimSpace(location), "#")
	path, rawQuery, _ := strings.Cut(location, "?")
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return Default()
	}
	if !strings.HasPrefix(decoded, "/") {
		decoded = "/" + decoded
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: decoded}}
	var match mux.RouteMatch
	if !table.Match(req, &match) || match.Route == nil {
		return Default()
	}
	query, _ := url.ParseQuery(rawQuery)

	switch name := Name(match.Route.GetName()); name {
	case Project:
		return Route{Name: Project, Param: match.Vars["id"]}
	case Tag:
		return Route{Name: Tag, Param: match.Vars["name"]}
	case Done:
		return Route{Name: Done, Param: query.Get("project")}
	case Search:
		return Route{Name: Search, Param: query.Get("q")}
	default:
		return Route{Name: name}
	}
}

// String formats the route as a location that Parse maps back to r.
func (r Route) String() string {
	switch r.Name {
	case Today, Upcoming, Calendar:
		return "#/" + string(r.Name)
	case Done:
		if r.Param == "" {
			return "#/done"
		}
		return "#/done?" + url.Values{"project": {r.Param}}.Encode()
	case Project:
		if r.Param != "" {
			return "#/project/" + url.PathEscape(r.Param)
		}
	case Tag:
		if r.Param != "" {
			return "#/tag/" + url.PathEscape(r.Param)
		}
	case Search:
		if r.Param == "" {
			return "#/search"
		}
		return "#/search?" + url.Values{"q": {r.Param}}.Encode()
	}
	// Incomplete and unknown routes parse back to the default.
	return "#/" + string(Default().Name)
}

// ProjectID returns the project scope of a Project or Done route. A nil id
// is the inbox; ok is false when the route is not scoped to one project.
func (r Route) ProjectID() (id *string, ok bool) {
	if r.Name != Project && r.Name != Done {
		return nil, false
	}
	switch r.Param {
	case "":
		return nil, r.Name == Project
	case InboxID:
		return nil, true
	default:
		p := r.Param
		return &p, true
	}
}

// historyLimit bounds the back stack.
const historyLimit = 50

// History is a back stack of visited routes.
type History struct {
	stack []Route
}

// Push records r unless it repeats the current route.
func (h *History) Push(r Route) {
	if n := len(h.stack); n > 0 && h.stack[n-1] == r {
		return
	}
	h.stack = append(h.stack, r)
	if len(h.stack) > historyLimit {
		h.stack = h.stack[len(h.stack)-historyLimit:]
	}
}

// Back drops the current route and returns the previous one.
func (h *History) Back() (Route, bool) {
	if len(h.stack) < 2 {
		return Route{}, false
	}
	h.stack = h.stack[:len(h.stack)-1]
	return h.stack[len(h.stack)-1], true
}

// Current returns the most recent route, or the default.
func (h *History) Current() Route {
	if len(h.stack) == 0 {
		return Default()
	}
	return h.stack[len(h.stack)-1]
}
