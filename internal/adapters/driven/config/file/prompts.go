package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/opsmind/internal/core/ports/driven"
	"github.com/custodia-labs/opsmind/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// requiredPlaceholders lists the verbs a customised prompt must keep.
// A prompt file missing one is ignored in favour of the built-in default.
var requiredPlaceholders = map[string][]string{
	driven.PromptAnswerSystem: {"%[1]s", "%[2]s", "%[3]s"},
	driven.PromptAnswerUser:   {"%[1]s", "%[2]s"},
}

// PromptStore loads LLM prompts from user-editable files on disk,
// falling back to the built-in defaults.
//
// Files are created lazily on the first Load, not in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	defaults  map[string]string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.opsmind/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		defaults:  driven.DefaultPrompts(),
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil {
		def, ok := s.defaults[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Using built-in %s prompt: %v", name, err)
		}
		prompt = def
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and writes any missing default files.
// Failure leaves Load serving the defaults.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		logger.Warn("%v", s.initErr)
		return
	}

	for name, content := range s.defaults {
		path := s.path(name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(path, []byte(content+"\n"), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				logger.Warn("%v", s.initErr)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

// loadFromFile reads and checks a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("%s is empty", s.path(name))
	}
	for _, verb := range requiredPlaceholders[name] {
		if !strings.Contains(prompt, verb) {
			return "", fmt.Errorf("%s is missing placeholder %s", s.path(name), verb)
		}
	}
	return prompt, nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	content := `# OpsMind Prompts

These files control how OpsMind answers questions about your documents.

## Files

- ` + "`answer_system.txt`" + ` - Rules the assistant follows when answering
- ` + "`answer_user.txt`" + ` - How the retrieved context and question are framed

## Customisation

Edit a file to change the assistant's behaviour. A running server picks up
changes automatically; other commands read them on the next run.

## Placeholders

answer_system.txt must keep:
- ` + "`%[1]s`" + ` - the text sent when no document matched
- ` + "`%[2]s`" + ` - the exact refusal sentence
- ` + "`%[3]s`" + ` - the marker that flags an answer as sourced

answer_user.txt must keep:
- ` + "`%[1]s`" + ` - the retrieved context
- ` + "`%[2]s`" + ` - the question

A file missing a placeholder is ignored and the built-in prompt is used.
`
	return os.WriteFile(path, []byte(content), 0600)
}
