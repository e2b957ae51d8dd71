package outputs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// Repository defines read access to deploy outputs.
type Repository interface {
	Load(ctx context.Context) (map[string]map[string]string, error)
}

// FileRepository reads the machine-readable outputs file written by the
// infrastructure deploy tool: a JSON document mapping stack names to
// key/value output pairs.
type FileRepository struct {
	// path is the filesystem location of the outputs file.
	path string
}

var (
	// ErrNotFound is returned when the outputs file does not exist.
	ErrNotFound = errors.New("outputs file not found")
	// errMalformed is returned when the file is not the expected JSON shape.
	errMalformed = errors.New("outputs file is malformed")
)

// NewFileRepository creates a repository reading the outputs file at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads and parses the outputs file into stack -> output key -> value.
func (r *FileRepository) Load(_ context.Context) (map[string]map[string]string, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read outputs file: %w", err)
	}

	if !gjson.ValidBytes(contents) {
		return nil, errMalformed
	}

	document := gjson.ParseBytes(contents)
	if !document.IsObject() {
		return nil, errMalformed
	}

	result := make(map[string]map[string]string, len(document.Map()))

	var malformed bool

	document.ForEach(func(stack, values gjson.Result) bool {
		if !values.IsObject() {
			malformed = true
			return false
		}

		stackOutputs := make(map[string]string, len(values.Map()))
		values.ForEach(func(key, value gjson.Result) bool {
			stackOutputs[key.String()] = value.String()
			return true
		})

		result[stack.String()] = stackOutputs

		return true
	})

	if malformed {
		return nil, errMalformed
	}

	return result, nil
}
