package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const learnerFile = "learner-id"

// ResolveLearnerID returns the configured learner ID, or the ID stored in
// dataDir, creating and storing a new random one on first use.
func (c Config) ResolveLearnerID(dataDir string) (string, error) {
	if id := strings.TrimSpace(c.Learner.ID); id != "" {
		return id, nil
	}

	path := filepath.Join(dataDir, learnerFile)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read learner id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write learner id: %w", err)
	}
	return id, nil
}
