package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/hy4ri/taskgrid/internal/api"
)

// fakeDrive serves the subset of the Drive v3 REST surface the backend uses.
type fakeDrive struct {
	mu      sync.Mutex
	queries []string
	files   map[string]string
	// status, when set, fails every request.
	status int
}

func (f *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"denied"}}`, f.status)
		return
	}

	upload := strings.Contains(r.URL.Path, "/upload/")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		_ = json.NewEncoder(w).Encode(map[string]any{"files": []map[string]string{{"id": "existing", "name": "x"}}})

	case r.Method == http.MethodPost && upload:
		f.files["created"] = "{}"
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "created"})

	case r.Method == http.MethodPatch && upload:
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if _, ok := f.files[id]; !ok {
			notFound(w)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.files[id] = string(body)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})

	case r.Method == http.MethodGet && r.URL.Query().Get("alt") == "media":
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		data, ok := f.files[id]
		if !ok {
			notFound(w)
			return
		}
		io.WriteString(w, data)

	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, `{"error":{"code":404,"message":"File not found"}}`)
}

func newDriveBackend(t *testing.T, fake *fakeDrive, folder string) *DriveBackend {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	users := api.NewClient(api.StaticToken("t"))
	users.SetBaseURL(server.URL)

	d, err := NewDriveBackend(context.Background(), DriveOptions{
		Users:    users,
		FolderID: folder,
		ClientOptions: []option.ClientOption{
			option.WithEndpoint(server.URL + "/"),
			option.WithHTTPClient(server.Client()),
		},
	})
	require.NoError(t, err)
	return d
}

func TestDriveBackend_FindFileQuery(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{}}
	d := newDriveBackend(t, fake, "folder-1")

	id, err := d.FindFile(context.Background(), "taskgrid-backup-o'neil.json")
	require.NoError(t, err)
	assert.Equal(t, "existing", id)

	require.Len(t, fake.queries, 1)
	assert.Equal(t, `name='taskgrid-backup-o\'neil.json' and trashed=false and 'folder-1' in parents`, fake.queries[0])
}

func TestDriveBackend_CreateUploadDownload(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{}}
	d := newDriveBackend(t, fake, "")
	ctx := context.Background()

	id, err := d.CreateFile(ctx, "taskgrid-backup-a.json")
	require.NoError(t, err)
	assert.Equal(t, "created", id)

	require.NoError(t, d.Upload(ctx, id, []byte(`{"meta":{"syncedAt":"x"}}`)))
	assert.Contains(t, fake.files["created"], `"syncedAt":"x"`)

	fake.files["plain"] = `{"meta":{}}`
	data, err := d.Download(ctx, "plain")
	require.NoError(t, err)
	assert.JSONEq(t, `{"meta":{}}`, string(data))
}

func TestDriveBackend_MissingFile(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{}}
	d := newDriveBackend(t, fake, "")

	_, err := d.Download(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrFileNotFound)

	err = d.Upload(context.Background(), "gone", []byte("{}"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDriveBackend_ErrorStatus(t *testing.T) {
	fake := &fakeDrive{files: map[string]string{}, status: http.StatusUnauthorized}
	d := newDriveBackend(t, fake, "")

	_, err := d.FindFile(context.Background(), "taskgrid-backup-a.json")
	require.Error(t, err)
	apiErr, ok := api.IsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsUnauthorized())
	assert.True(t, sessionExpired(err))

	fake.mu.Lock()
	fake.status = http.StatusForbidden
	fake.mu.Unlock()
	err = d.Upload(context.Background(), "x", []byte("{}"))
	apiErr, ok = api.IsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.IsForbidden())
	assert.False(t, sessionExpired(err))
}

func TestDriveBackend_AccountID(t *testing.T) {
	d := &DriveBackend{subject: func() string { return "from-token" }}
	id, err := d.AccountID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-token", id)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/userinfo", r.URL.Path)
		io.WriteString(w, `{"sub":"from-userinfo"}`)
	}))
	defer server.Close()
	users := api.NewClient(api.StaticToken("t"))
	users.SetBaseURL(server.URL)

	d = &DriveBackend{users: users, subject: func() string { return "" }}
	id, err = d.AccountID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-userinfo", id)
}
