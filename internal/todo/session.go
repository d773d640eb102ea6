package todo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// sessionKey is the fixed key the current user is stored under.
const sessionKey = "user"

type SessionStore interface {
	// Load reports false when no usable session is stored.
	Load() (StoredSession, bool, error)
	Save(s StoredSession) error
	Clear() error
}

// FileSession keeps the session in a small JSON document on disk. Other keys
// in the document are preserved.
type FileSession struct {
	mu   sync.Mutex
	path string
}

func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

func (f *FileSession) Load() (StoredSession, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return StoredSession{}, false, err
	}
	raw, ok := doc[sessionKey]
	if !ok {
		return StoredSession{}, false, nil
	}
	var s StoredSession
	if err := json.Unmarshal(raw, &s); err != nil || s.Email == "" {
		return StoredSession{}, false, nil
	}
	return s, true, nil
}

func (f *FileSession) Save(s StoredSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	doc[sessionKey] = raw
	return f.write(doc)
}

func (f *FileSession) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[sessionKey]; !ok {
		return nil
	}
	delete(doc, sessionKey)
	return f.write(doc)
}

// read returns an empty document for a missing or unparsable file.
func (f *FileSession) read() (map[string]json.RawMessage, error) {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return make(map[string]json.RawMessage), nil
	}
	return doc, nil
}

func (f *FileSession) write(doc map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
