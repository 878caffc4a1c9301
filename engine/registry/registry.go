// Package registry implements the template registry (component I):
// TemplateDocuments are registered in-process by name and later materialised
// to files against a variable set. Grounded on the teacher's pkg/template
// (Service.Register, Service.Generate, Template.GetFilesWithOptions,
// GenerateOptions), generalised from "scaffold a whole project" to
// "materialise a parameterised workflow document family" — path and
// content are rendered through engine/expr's {{ }} template surface
// instead of the teacher's ad hoc string replacement, and writes go
// through github.com/spf13/afero so generation is testable against an
// in-memory filesystem the same way the teacher tests real-disk generation
// against a t.TempDir().
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/expr"
)

// VariableSpec describes one declared variable a TemplateDocument accepts.
type VariableSpec struct {
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// TemplateFile is one file a TemplateDocument materialises. Path and
// Content are both template strings, resolved against the caller's
// variables the same way a step's inputs are resolved against scope.
type TemplateFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// TemplateDocument is a named, parameterised family of files — the
// registry's unit of registration. Used to stamp out workflow document
// families (e.g. an "incident-response" workflow) that are later read
// back in by engine/document.
type TemplateDocument struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Variables   map[string]VariableSpec `json:"variables,omitempty"`
	Files       []TemplateFile          `json:"files"`
}

// GenerateOptions controls one Generate call.
type GenerateOptions struct {
	// Path is the target directory files are written under.
	Path string
	// Variables supplies values for the TemplateDocument's declared
	// variables. Missing required variables with no Default fail
	// generation before any file is written.
	Variables map[string]any
	// Overwrite allows Generate to replace files that already exist at
	// the target path. Invariant (vi): generation never overwrites
	// without this explicitly set.
	Overwrite bool
}

// Service holds the set of registered TemplateDocuments and materialises
// them on request. The zero value is not usable; construct with
// NewService.
type Service struct {
	mu   sync.RWMutex
	docs map[string]*TemplateDocument
	fs   afero.Fs
}

// NewService creates a Service backed by fs (afero.NewOsFs() in
// production, afero.NewMemMapFs() in tests).
func NewService(fs afero.Fs) *Service {
	return &Service{docs: make(map[string]*TemplateDocument), fs: fs}
}

// Register adds doc under name, replacing any prior registration of the
// same name.
func (s *Service) Register(name string, doc *TemplateDocument) error {
	if name == "" {
		return core.NewError(fmt.Errorf("template name must not be empty"), core.CodeInvalidDocument, nil)
	}
	if doc == nil {
		return core.NewError(fmt.Errorf("registering template %q: document is nil", name), core.CodeInvalidDocument, nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[name] = doc
	return nil
}

// Lookup returns the TemplateDocument registered under name.
func (s *Service) Lookup(name string) (*TemplateDocument, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[name]
	return doc, ok
}

// resolveVariables applies declared defaults and checks required
// variables are present, the same shape as workflow.ResolveInputs does
// for a Document's input schema.
func resolveVariables(doc *TemplateDocument, supplied map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(doc.Variables)+len(supplied))
	for k, v := range supplied {
		out[k] = v
	}
	for name, spec := range doc.Variables {
		if _, ok := out[name]; ok {
			continue
		}
		if spec.Default != nil {
			out[name] = spec.Default
			continue
		}
		if spec.Required {
			return nil, core.NewError(
				fmt.Errorf("template %q: missing required variable %q", doc.Name, name),
				core.CodeMissingInputs,
				map[string]any{"variable": name},
			)
		}
	}
	return out, nil
}

// Generate renders every TemplateFile belonging to the template registered
// under name against opts.Variables and writes the results under
// opts.Path. Files are rendered and validated before any write occurs, so
// a failure partway through resolution leaves the target directory
// untouched; a failure partway through writing may leave a partial result
// (matching the teacher's own non-transactional GetFilesWithOptions +
// os.WriteFile loop).
func (s *Service) Generate(name string, opts *GenerateOptions) error {
	s.mu.RLock()
	doc, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return core.NewError(fmt.Errorf("template %q is not registered", name), core.CodeInvalidDocument, nil)
	}
	if opts.Path == "" {
		return core.NewError(fmt.Errorf("generating template %q: target path is empty", name), core.CodeInvalidDocument, nil)
	}

	vars, err := resolveVariables(doc, opts.Variables)
	if err != nil {
		return err
	}
	env := expr.MapEnv(vars)

	type rendered struct {
		path    string
		content string
	}
	files := make([]rendered, 0, len(doc.Files))
	for _, f := range doc.Files {
		path, err := expr.Render(f.Path, env)
		if err != nil {
			return core.NewError(fmt.Errorf("rendering template %q file path %q: %w", name, f.Path, err), core.CodeExpressionError, nil)
		}
		content, err := expr.Render(f.Content, env)
		if err != nil {
			return core.NewError(fmt.Errorf("rendering template %q file %q contents: %w", name, f.Path, err), core.CodeExpressionError, nil)
		}
		files = append(files, rendered{path: path, content: content})
	}

	for _, f := range files {
		target := filepath.Join(opts.Path, f.path)
		if !opts.Overwrite {
			if _, err := s.fs.Stat(target); err == nil {
				return core.NewError(
					fmt.Errorf("generating template %q: %q already exists (pass Overwrite to replace it)", name, target),
					core.CodeInvalidDocument,
					map[string]any{"path": target},
				)
			} else if !os.IsNotExist(err) {
				return err
			}
		}
		if err := s.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(s.fs, target, []byte(f.content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
