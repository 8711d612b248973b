package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/hy4ri/taskgrid/internal/api"
)

const jsonContentType = "application/json"

// DriveBackend keeps backups in Google Drive.
type DriveBackend struct {
	files    *drive.FilesService
	users    *api.Client
	folderID string
	subject  func() string
}

// DriveOptions configures a DriveBackend.
type DriveOptions struct {
	// TokenSource authorizes Drive requests.
	TokenSource oauth2.TokenSource
	// Users answers userinfo lookups when Subject has no answer.
	Users *api.Client
	// Subject returns the account id known from the identity token.
	Subject func() string
	// FolderID optionally names the Drive folder holding backups.
	FolderID string
	// ClientOptions are appended to the Drive client options.
	ClientOptions []option.ClientOption
}

// NewDriveBackend creates a Drive client.
func NewDriveBackend(ctx context.Context, opts DriveOptions) (*DriveBackend, error) {
	clientOpts := []option.ClientOption{}
	if opts.TokenSource != nil {
		clientOpts = append(clientOpts, option.WithTokenSource(opts.TokenSource))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	srv, err := drive.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive client: %w", err)
	}
	return &DriveBackend{
		files:    srv.Files,
		users:    opts.Users,
		folderID: opts.FolderID,
		subject:  opts.Subject,
	}, nil
}

// AccountID implements Backend.
func (d *DriveBackend) AccountID(ctx context.Context) (string, error) {
	if d.subject != nil {
		if sub := d.subject(); sub != "" {
			return sub, nil
		}
	}
	if d.users == nil {
		return "", errors.New("no way to identify the account")
	}
	info, err := d.users.UserInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to look up account: %w", err)
	}
	return info.Sub, nil
}

// FindFile implements Backend.
func (d *DriveBackend) FindFile(ctx context.Context, name string) (string, error) {
	list, err := d.files.List().
		Q(d.query(name)).
		PageSize(1).
		Fields("files(id, name)").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to search backup file: %w", driveError(err))
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

func (d *DriveBackend) query(name string) string {
	parts := []string{
		fmt.Sprintf("name='%s'", escapeQuery(name)),
		"trashed=false",
	}
	if d.folderID != "" {
		parts = append(parts, fmt.Sprintf("'%s' in parents", escapeQuery(d.folderID)))
	}
	return strings.Join(parts, " and ")
}

// CreateFile implements Backend.
func (d *DriveBackend) CreateFile(ctx context.Context, name string) (string, error) {
	meta := &drive.File{Name: name, MimeType: jsonContentType}
	if d.folderID != "" {
		meta.Parents = []string{d.folderID}
	}
	f, err := d.files.Create(meta).
		Media(strings.NewReader("{}"), googleapi.ContentType(jsonContentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", driveError(err))
	}
	return f.Id, nil
}

// Upload implements Backend.
func (d *DriveBackend) Upload(ctx context.Context, fileID string, data []byte) error {
	_, err := d.files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(data), googleapi.ContentType(jsonContentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", driveError(err))
	}
	return nil
}

// Download implements Backend.
func (d *DriveBackend) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := d.files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download backup: %w", driveError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return data, nil
}

// driveError maps a missing file to ErrFileNotFound and other Drive
// statuses to api.APIError.
func driveError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	if gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrFileNotFound, gerr.Message)
	}
	return &api.APIError{StatusCode: gerr.Code, Message: gerr.Message}
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
