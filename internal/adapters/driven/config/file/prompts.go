package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
	"github.com/custodia-labs/contracta-cli/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content
// for new files. They mirror the built-in fallbacks in the core services.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptQASystem: `You are a contract analysis assistant. Answer the question using ONLY the contract excerpts provided below. If the excerpts do not contain the information needed to answer, say so plainly instead of guessing. Never invent terms, figures or clauses that do not appear in the excerpts. When you state a figure or clause, mention the page it appears on.`,

	driven.PromptSummaryBrief: `Summarise the following contract in one or two short paragraphs. Cover the parties, the subject of the agreement, the key financial terms and the duration.`,

	driven.PromptSummaryComprehensive: `Write a comprehensive summary of the following contract. Cover every major section: the parties, the term, financial obligations, each party's responsibilities, termination conditions and any special clauses.`,

	driven.PromptSummaryKeyPoints: `List the key points of the following contract as a numbered list. One clause per point, most important first.`,

	driven.PromptSummaryReduce: `The following are summaries of consecutive sections of a single contract. Merge them into one coherent summary in the same style, removing repetition:

%s`,

	driven.PromptExtractFields: `Extract the following fields from the rental contract below and respond with ONLY a JSON object, no prose and no code fences. The object must have exactly these keys: rent_amount, lease_duration, security_deposit, payment_due_date, late_fee, pet_policy, maintenance, termination, utilities, parking. Each key maps to an object {"value": string, "page": number, "found": boolean}. If the contract does not mention a field, set value to "not found", page to 0 and found to false.

Contract:
%s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.contracta/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".contracta", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
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

// Watch invalidates the cache whenever a prompt file changes on disk,
// so edits take effect without restarting. It returns after the
// watcher is installed; watching stops when ctx is cancelled.
func (s *PromptStore) Watch(ctx context.Context) error {
	// The directory must exist before it can be watched.
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return s.initErr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := watcher.Add(s.promptDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch prompt directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Ext(event.Name) != ".txt" {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logger.Debug("Prompt file changed, reloading: %s", filepath.Base(event.Name))
				s.Reload()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Prompt watcher error: %v", err)
			}
		}
	}()

	return nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Contracta Prompts

This directory contains customisable prompts used by Contracta's LLM features.

## Files

- ` + "`qa_system.txt`" + ` - Frames contract question answering
- ` + "`summary_brief.txt`" + ` - Short overview summary
- ` + "`summary_comprehensive.txt`" + ` - Full section-by-section summary
- ` + "`summary_key_points.txt`" + ` - Numbered key-clause list
- ` + "`summary_reduce.txt`" + ` - Merges per-section summaries of long contracts
- ` + "`extract_fields.txt`" + ` - Structured field extraction as strict JSON

## Customisation

Edit any file to customise LLM behaviour. Running commands pick up
changes immediately; the chat TUI reloads edited prompts while running.

Note: answers, summaries and extractions are cached per document. Edited
prompts only affect results that are not already cached.

## Format Placeholders

Some prompts use Go fmt placeholders:
- ` + "`%s`" + ` - String (e.g., the document text or section summaries)

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
