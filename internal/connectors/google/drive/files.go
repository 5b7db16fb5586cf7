package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// MimeTypeFolder is the Drive MIME type of folders.
const MimeTypeFolder = "application/vnd.google-apps.folder"

const (
	fileFields = "id, name, mimeType, size, modifiedTime"
	listFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime)"
	pageSize   = 1000
)

// listQuery selects the children of one folder.
type listQuery struct {
	ParentID string

	// Name restricts the listing to an exact name when non-empty.
	Name string

	// Folders lists folders instead of files.
	Folders bool
}

// String renders the Drive search query.
func (q listQuery) String() string {
	parts := []string{
		fmt.Sprintf("'%s' in parents", escapeQuery(q.ParentID)),
		"trashed = false",
	}
	if q.Folders {
		parts = append(parts, fmt.Sprintf("mimeType = '%s'", MimeTypeFolder))
	} else {
		parts = append(parts, fmt.Sprintf("mimeType != '%s'", MimeTypeFolder))
	}
	if q.Name != "" {
		parts = append(parts, fmt.Sprintf("name = '%s'", escapeQuery(q.Name)))
	}
	return strings.Join(parts, " and ")
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// filesAPI is the subset of the Drive files resource the blob store uses.
type filesAPI interface {
	List(ctx context.Context, q listQuery, pageToken string) (*drive.FileList, error)
	CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error)
	Create(ctx context.Context, name, parentID, mimeType string, data []byte) (*drive.File, error)
	Update(ctx context.Context, fileID, mimeType string, data []byte) (*drive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Delete(ctx context.Context, fileID string) error
}

// serviceFiles implements filesAPI with the Drive v3 client.
type serviceFiles struct {
	svc *drive.Service
}

func (f *serviceFiles) List(ctx context.Context, q listQuery, pageToken string) (*drive.FileList, error) {
	call := f.svc.Files.List().
		Q(q.String()).
		Spaces("drive").
		Fields(listFields).
		OrderBy("name").
		PageSize(pageSize).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	return call.Do()
}

func (f *serviceFiles) CreateFolder(ctx context.Context, name, parentID string) (*drive.File, error) {
	return f.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: MimeTypeFolder,
		Parents:  []string{parentID},
	}).Fields(fileFields).Context(ctx).Do()
}

func (f *serviceFiles) Create(
	ctx context.Context, name, parentID, mimeType string, data []byte,
) (*drive.File, error) {
	mimeType = mediaType(mimeType)
	return f.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeType,
		Parents:  []string{parentID},
	}).Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields(fileFields).Context(ctx).Do()
}

func (f *serviceFiles) Update(ctx context.Context, fileID, mimeType string, data []byte) (*drive.File, error) {
	mimeType = mediaType(mimeType)
	return f.svc.Files.Update(fileID, &drive.File{MimeType: mimeType}).
		Media(bytes.NewReader(data), googleapi.ContentType(mimeType)).
		Fields(fileFields).Context(ctx).Do()
}

func (f *serviceFiles) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := f.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (f *serviceFiles) Delete(ctx context.Context, fileID string) error {
	return f.svc.Files.Delete(fileID).Context(ctx).Do()
}

func mediaType(mimeType string) string {
	if mimeType == "" {
		return "application/octet-stream"
	}
	return mimeType
}
