package drive

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/quill/internal/connectors/google"
	"github.com/custodia-labs/quill/internal/core/domain"
	"github.com/custodia-labs/quill/internal/core/ports/driven"
	"github.com/custodia-labs/quill/internal/logger"
)

// Verify interface compliance.
var _ driven.BlobStore = (*BlobStore)(nil)

// Subfolders of the root folder.
const (
	VersionsFolder    = "versoes"
	TranscriptsFolder = "Transcricoes"
	VecstoreFolder    = "vecstore"
	ShardsFolder      = "faiss"
	MemoryFolder      = "memory"
	ChatsFolder       = "chats"
)

// maxRetries is the number of retries after a rate-limit response.
const maxRetries = 3

// FolderPath returns the path of a logical folder below the root folder.
func FolderPath(folder driven.Folder) []string {
	switch folder {
	case driven.FolderVersions:
		return []string{VersionsFolder}
	case driven.FolderTranscripts:
		return []string{TranscriptsFolder}
	case driven.FolderShards:
		return []string{VecstoreFolder, ShardsFolder}
	case driven.FolderMemory:
		return []string{VecstoreFolder, MemoryFolder}
	case driven.FolderChats:
		return []string{ChatsFolder}
	default:
		return []string{string(folder)}
	}
}

// BlobStore stores blobs as files in a Google Drive folder tree.
// Folders are found or created on first use and their IDs cached.
type BlobStore struct {
	files   filesAPI
	root    string
	limiter *google.RateLimiter

	// retryDelay turns a rate-limit error into a backoff.
	retryDelay func(err error) time.Duration

	mu      sync.Mutex
	folders map[string]string
}

// NewBlobStore creates a Drive blob store under the named root folder.
func NewBlobStore(svc *drive.Service, rootFolder string) *BlobStore {
	return newBlobStore(&serviceFiles{svc: svc}, rootFolder)
}

func newBlobStore(files filesAPI, rootFolder string) *BlobStore {
	if rootFolder == "" {
		rootFolder = domain.DefaultDriveRootFolder
	}
	return &BlobStore{
		files:   files,
		root:    rootFolder,
		limiter: google.NewRateLimiter(google.DriveRateLimit),
		retryDelay: func(err error) time.Duration {
			return time.Duration(google.RetryAfter(err)) * time.Second
		},
		folders: make(map[string]string),
	}
}

// EnsureFolders creates the whole folder tree.
func (s *BlobStore) EnsureFolders(ctx context.Context) error {
	for _, f := range driven.AllFolders() {
		if _, err := s.folderID(ctx, f); err != nil {
			return err
		}
	}
	return nil
}

// Put uploads a new file or replaces the content of the existing one.
func (s *BlobStore) Put(
	ctx context.Context, folder driven.Folder, name string, data []byte, mimeType string,
) (string, error) {
	if name == "" {
		return "", fmt.Errorf("blob name is empty: %w", domain.ErrInvalidInput)
	}
	parent, err := s.folderID(ctx, folder)
	if err != nil {
		return "", err
	}

	existing, err := s.find(ctx, parent, name)
	if err != nil {
		return "", err
	}

	var file *drive.File
	if existing != nil {
		err = s.call(ctx, func() (err error) {
			file, err = s.files.Update(ctx, existing.Id, mimeType, data)
			return err
		})
	} else {
		err = s.call(ctx, func() (err error) {
			file, err = s.files.Create(ctx, name, parent, mimeType, data)
			return err
		})
	}
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", folder, name, err)
	}
	logger.Debug("Drive: wrote %s/%s (%d bytes, id %s)", folder, name, len(data), file.Id)
	return file.Id, nil
}

// Get downloads the named file.
func (s *BlobStore) Get(ctx context.Context, folder driven.Folder, name string) ([]byte, error) {
	file, err := s.mustFind(ctx, folder, name)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.call(ctx, func() (err error) {
		data, err = s.files.Download(ctx, file.Id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", folder, name, err)
	}
	return data, nil
}

// Stat returns the metadata of the named file.
func (s *BlobStore) Stat(ctx context.Context, folder driven.Folder, name string) (*domain.BlobInfo, error) {
	file, err := s.mustFind(ctx, folder, name)
	if err != nil {
		return nil, err
	}
	info := toBlobInfo(file)
	return &info, nil
}

// List returns the files of a folder whose names start with prefix, sorted by name.
func (s *BlobStore) List(ctx context.Context, folder driven.Folder, prefix string) ([]domain.BlobInfo, error) {
	parent, err := s.folderID(ctx, folder)
	if err != nil {
		return nil, err
	}

	var out []domain.BlobInfo
	pageToken := ""
	for {
		var page *drive.FileList
		err := s.call(ctx, func() (err error) {
			page, err = s.files.List(ctx, listQuery{ParentID: parent}, pageToken)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", folder, err)
		}
		for _, f := range page.Files {
			if strings.HasPrefix(f.Name, prefix) {
				out = append(out, toBlobInfo(f))
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the named file permanently.
func (s *BlobStore) Delete(ctx context.Context, folder driven.Folder, name string) error {
	parent, err := s.folderID(ctx, folder)
	if err != nil {
		return err
	}
	file, err := s.find(ctx, parent, name)
	if err != nil || file == nil {
		return err
	}
	if err := s.call(ctx, func() error { return s.files.Delete(ctx, file.Id) }); err != nil {
		return fmt.Errorf("delete %s/%s: %w", folder, name, err)
	}
	return nil
}

// folderID resolves a logical folder to a Drive folder ID, creating
// missing folders along the path. Creation is serialised so concurrent
// callers do not create duplicate folders.
func (s *BlobStore) folderID(ctx context.Context, folder driven.Folder) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent := "root"
	key := ""
	for _, name := range append([]string{s.root}, FolderPath(folder)...) {
		key += "/" + name
		if id, ok := s.folders[key]; ok {
			parent = id
			continue
		}
		id, err := s.findOrCreateFolder(ctx, name, parent)
		if err != nil {
			return "", fmt.Errorf("resolve folder %s: %w", key, err)
		}
		s.folders[key] = id
		parent = id
	}
	return parent, nil
}

func (s *BlobStore) findOrCreateFolder(ctx context.Context, name, parent string) (string, error) {
	var page *drive.FileList
	err := s.call(ctx, func() (err error) {
		page, err = s.files.List(ctx, listQuery{ParentID: parent, Name: name, Folders: true}, "")
		return err
	})
	if err != nil {
		return "", err
	}
	if len(page.Files) > 0 {
		return page.Files[0].Id, nil
	}

	var created *drive.File
	err = s.call(ctx, func() (err error) {
		created, err = s.files.CreateFolder(ctx, name, parent)
		return err
	})
	if err != nil {
		return "", err
	}
	logger.Debug("Drive: created folder %s (id %s)", name, created.Id)
	return created.Id, nil
}

// find returns the named file in parent, or nil.
func (s *BlobStore) find(ctx context.Context, parent, name string) (*drive.File, error) {
	var page *drive.FileList
	err := s.call(ctx, func() (err error) {
		page, err = s.files.List(ctx, listQuery{ParentID: parent, Name: name}, "")
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	if len(page.Files) == 0 {
		return nil, nil
	}
	return page.Files[0], nil
}

func (s *BlobStore) mustFind(ctx context.Context, folder driven.Folder, name string) (*drive.File, error) {
	parent, err := s.folderID(ctx, folder)
	if err != nil {
		return nil, err
	}
	file, err := s.find(ctx, parent, name)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("blob %s/%s: %w", folder, name, domain.ErrNotFound)
	}
	return file, nil
}

// call runs op under the rate limiter, retrying rate-limited calls.
func (s *BlobStore) call(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if werr := s.limiter.Wait(ctx); werr != nil {
			return werr
		}
		err = op()
		if err == nil || !google.IsRateLimited(err) || attempt >= maxRetries {
			break
		}
		d := s.limiter.Backoff(s.retryDelay(err))
		logger.Warn("Drive rate limited, retrying in %s", d)
	}
	return google.WrapError(err)
}

func toBlobInfo(f *drive.File) domain.BlobInfo {
	info := domain.BlobInfo{
		ID:       f.Id,
		Name:     f.Name,
		Size:     f.Size,
		MimeType: f.MimeType,
	}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		info.ModifiedAt = t
	}
	return info
}
