package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/models"
)

// Store is a flat JSON-file template repository: one <id>.json per template
// in a single directory. An fsnotify watcher keeps the in-memory cache in
// sync with files edited or dropped in by other processes.
type Store struct {
	dir    string
	logger *zap.Logger

	mu        sync.RWMutex
	templates map[string]*models.Template

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewStore loads existing templates from dir, creating it if needed. The
// caller owns closing the store.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create template directory: %w", err)
	}
	s := &Store{
		dir:       dir,
		logger:    logger,
		templates: make(map[string]*models.Template),
		done:      make(chan struct{}),
	}
	if err := s.loadAll(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) loadAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read template directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if err := s.loadFile(filepath.Join(s.dir, entry.Name())); err != nil {
			// One bad file must not take down the whole store.
			s.logger.Warn("skipping unreadable template file",
				zap.String("file", entry.Name()), zap.Error(err))
		}
	}
	return nil
}

func (s *Store) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var t models.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t.ID == "" {
		return fmt.Errorf("template file %s has no id", filepath.Base(path))
	}
	s.mu.Lock()
	s.templates[t.ID] = &t
	s.mu.Unlock()
	return nil
}

// Watch starts reflecting external changes to the template directory into
// the cache until Close.
func (s *Store) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch template directory: %w", err)
	}
	s.watcher = w

	go func() {
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				s.handleEvent(event)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("template watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (s *Store) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if err := s.loadFile(event.Name); err != nil {
			s.logger.Debug("ignoring template file event", zap.String("file", event.Name), zap.Error(err))
			return
		}
		s.logger.Info("template reloaded from disk", zap.String("file", filepath.Base(event.Name)))
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		id := strings.TrimSuffix(filepath.Base(event.Name), ".json")
		s.mu.Lock()
		delete(s.templates, id)
		s.mu.Unlock()
	}
}

// Close stops the watcher, if started.
func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// Create validates and persists a new template, assigning its identity,
// version 1, and timestamps.
func (s *Store) Create(t *models.Template) error {
	if problems := Validate(t); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	if err := s.writeFile(t); err != nil {
		return err
	}
	s.mu.Lock()
	s.templates[t.ID] = t
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the template with the given id.
func (s *Store) Get(id string) (*models.Template, error) {
	s.mu.RLock()
	t, ok := s.templates[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %s not found", id)
	}
	copied := *t
	return &copied, nil
}

// List returns all templates sorted by name.
func (s *Store) List() []*models.Template {
	s.mu.RLock()
	out := make([]*models.Template, 0, len(s.templates))
	for _, t := range s.templates {
		copied := *t
		out = append(out, &copied)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Update validates and persists an edit: same id, incremented version.
func (s *Store) Update(t *models.Template) error {
	if problems := Validate(t); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	s.mu.Lock()
	existing, ok := s.templates[t.ID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("template %s not found", t.ID)
	}
	t.Version = existing.Version + 1
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	s.templates[t.ID] = t
	s.mu.Unlock()
	return s.writeFile(t)
}

// Delete removes the template and its file.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.templates[id]
	delete(s.templates, id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("template %s not found", id)
	}
	if err := os.Remove(s.filePath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove template file: %w", err)
	}
	return nil
}

// Duplicate copies an existing template's mappings into a fresh version-1
// record under the given name.
func (s *Store) Duplicate(id, name string) (*models.Template, error) {
	src, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = src.Name + " (copy)"
	}
	dup := &models.Template{
		Name:             name,
		Description:      src.Description,
		DocumentType:     src.DocumentType,
		DocumentHash:     src.DocumentHash,
		Mappings:         append([]models.FieldMapping(nil), src.Mappings...),
		ConditionalRules: append([]models.ConditionalRule(nil), src.ConditionalRules...),
	}
	if err := s.Create(dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// Export returns the template's interchange shape.
func (s *Store) Export(id string) (*models.TemplateExport, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	exp := t.Export()
	return &exp, nil
}

// Import creates a fresh template from an interchange record.
func (s *Store) Import(exp *models.TemplateExport) (*models.Template, error) {
	t := &models.Template{
		Name:             exp.Name,
		Description:      exp.Description,
		DocumentType:     exp.DocumentType,
		DocumentHash:     exp.DocumentHash,
		Mappings:         append([]models.FieldMapping(nil), exp.Mappings...),
		ConditionalRules: append([]models.ConditionalRule(nil), exp.ConditionalRules...),
	}
	if err := s.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) filePath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) writeFile(t *models.Template) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}
	if err := os.WriteFile(s.filePath(t.ID), data, 0644); err != nil {
		return fmt.Errorf("write template file: %w", err)
	}
	return nil
}
