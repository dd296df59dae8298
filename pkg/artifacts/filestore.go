package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jakechorley/staffplan/pkg/core/model"
)

const (
	fileExtension   = ".json"
	timestampFormat = "20060102_150405"

	// maxCollisionSuffix bounds the number of artifacts of one model type written within the same second
	maxCollisionSuffix = 100
)

// ErrInvalidHandle is returned when a handle cannot refer to an artifact in the store
var ErrInvalidHandle = errors.New("invalid artifact handle")

// FileStore persists model artifacts as JSON files in a single directory.
// Files are created exclusively and never rewritten, so a saved artifact is immutable.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store rooted at it
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory the store writes to
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes a new artifact and returns its handle: <modelType>_<YYYYMMDD_HHMMSS>,
// with a numeric suffix when an artifact with the same name already exists.
func (s *FileStore) Save(ctx context.Context, modelType string, artifact *model.ModelArtifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if artifact == nil {
		return "", fmt.Errorf("artifact is nil")
	}
	if !validName(modelType) {
		return "", fmt.Errorf("invalid model type %q", modelType)
	}

	trainedAt := artifact.TrainedAt
	if trainedAt.IsZero() {
		trainedAt = time.Now()
	}
	base := fmt.Sprintf("%s_%s", modelType, trainedAt.UTC().Format(timestampFormat))

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode artifact: %w", err)
	}

	for attempt := 1; attempt <= maxCollisionSuffix; attempt++ {
		handle := base
		if attempt > 1 {
			handle = fmt.Sprintf("%s_%d", base, attempt)
		}

		f, err := os.OpenFile(s.path(handle), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o444)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create artifact %s: %w", handle, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(s.path(handle))
			return "", fmt.Errorf("failed to write artifact %s: %w", handle, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(s.path(handle))
			return "", fmt.Errorf("failed to write artifact %s: %w", handle, err)
		}
		return handle, nil
	}

	return "", fmt.Errorf("too many artifacts named %s", base)
}

// Load reads the artifact with the given handle
func (s *FileStore) Load(ctx context.Context, handle string) (*model.ModelArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validName(handle) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}

	data, err := os.ReadFile(s.path(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", handle, err)
	}

	var artifact model.ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact %s: %w", handle, err)
	}
	return &artifact, nil
}

// List returns the handles of all stored artifacts of a model type, oldest first.
// Only names of the form <modelType>_YYYYMMDD_HHMMSS or <modelType>_YYYYMMDD_HHMMSS_<n> match,
// so "preference" does not pick up "preference_predictor" artifacts.
func (s *FileStore) List(modelType string) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(modelType) + `_(\d{8}_\d{6})(?:_(\d+))?` + regexp.QuoteMeta(fileExtension) + `$`)

	type listed struct {
		handle    string
		timestamp string
		suffix    int
	}
	found := make([]listed, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		suffix := 1
		if m[2] != "" {
			suffix, _ = strconv.Atoi(m[2])
		}
		found = append(found, listed{
			handle:    strings.TrimSuffix(entry.Name(), fileExtension),
			timestamp: m[1],
			suffix:    suffix,
		})
	}

	slices.SortFunc(found, func(a, b listed) int {
		if c := strings.Compare(a.timestamp, b.timestamp); c != 0 {
			return c
		}
		return a.suffix - b.suffix
	})

	handles := make([]string, len(found))
	for i, f := range found {
		handles[i] = f.handle
	}
	return handles, nil
}

func (s *FileStore) path(handle string) string {
	return filepath.Join(s.dir, handle+fileExtension)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}
