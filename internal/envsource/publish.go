package envsource

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/angeloszaimis/hamster/internal/session"
)

// Published is the document the backend writes when its tunnel URL changes.
type Published struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// Publish validates the origin and state, then replaces the file at path
// through a temporary file and rename so readers never see a partial write.
func Publish(path, origin string, state session.State) error {
	if err := session.ValidateOrigin(origin); err != nil {
		return err
	}
	if _, err := session.ParseState(string(state)); err != nil {
		return err
	}

	body, err := json.MarshalIndent(Published{URL: origin, State: string(state)}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".env-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(body, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
