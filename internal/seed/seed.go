// Package seed imports a feedback bank from YAML.
//
//	modules:
//	  - title: Loops
//	    description: for/while
//	    elements: ["Off by one in the loop bound"]
//	    questions:
//	      - title: Termination
//	        elements: ["Loop never terminates on empty input"]
//
// A bare top-level list of modules is accepted too.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

var ErrNotEmpty = errors.New("seed: bank already has modules (use force to import anyway)")

type Bank struct {
	Modules []Module `yaml:"modules"`
}

type Module struct {
	Title       string     `yaml:"title"`
	Description string     `yaml:"description,omitempty"`
	Elements    []string   `yaml:"elements,omitempty"`
	Questions   []Question `yaml:"questions,omitempty"`
}

type Question struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Elements    []string `yaml:"elements,omitempty"`
}

// Result counts the rows created by Import.
type Result struct {
	Modules   int
	Questions int
	Elements  int
}

// Target is the write side of feedback.Service used by Import.
type Target interface {
	CountModules(ctx context.Context) (int, error)
	CreateModule(ctx context.Context, in feedback.ModuleInput) (feedback.Module, error)
	CreateQuestion(ctx context.Context, moduleID string, in feedback.QuestionInput) (feedback.Question, error)
	CreateElement(ctx context.Context, scope feedback.Scope, in feedback.ElementInput) (feedback.Element, error)
}

func Parse(r io.Reader) (Bank, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Bank{}, nil
		}
		return Bank{}, fmt.Errorf("seed: parse yaml: %w", err)
	}
	var (
		b   Bank
		err error
	)
	root := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&b.Modules)
	} else {
		err = root.Decode(&b)
	}
	if err != nil {
		return Bank{}, fmt.Errorf("seed: parse yaml: %w", err)
	}
	return b, nil
}

func ParseFile(path string) (Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return Bank{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Import creates every module, question and element in file order. Unless
// force is set it refuses to touch a bank that already has modules.
// Validation failures abort the import and name the offending entry.
func Import(ctx context.Context, t Target, b Bank, force bool, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var res Result
	if !force {
		n, err := t.CountModules(ctx)
		if err != nil {
			return res, err
		}
		if n > 0 {
			return res, ErrNotEmpty
		}
	}

	for i, bm := range b.Modules {
		m, err := t.CreateModule(ctx, feedback.ModuleInput{Title: bm.Title, Description: optional(bm.Description)})
		if err != nil {
			return res, fmt.Errorf("module #%d: %w", i+1, err)
		}
		res.Modules++
		n, err := addElements(ctx, t, feedback.Scope{ModuleID: m.ID}, bm.Elements)
		res.Elements += n
		if err != nil {
			return res, fmt.Errorf("module %q: %w", m.Title, err)
		}
		for j, bq := range bm.Questions {
			q, err := t.CreateQuestion(ctx, m.ID, feedback.QuestionInput{Title: bq.Title, Description: optional(bq.Description)})
			if err != nil {
				return res, fmt.Errorf("module %q question #%d: %w", m.Title, j+1, err)
			}
			res.Questions++
			n, err := addElements(ctx, t, feedback.Scope{ModuleID: m.ID, QuestionID: q.ID}, bq.Elements)
			res.Elements += n
			if err != nil {
				return res, fmt.Errorf("question %q: %w", q.Title, err)
			}
		}
		log.Debug("seeded module", zap.String("title", m.Title), zap.Int("questions", len(bm.Questions)))
	}
	return res, nil
}

func addElements(ctx context.Context, t Target, scope feedback.Scope, contents []string) (int, error) {
	for i, c := range contents {
		if _, err := t.CreateElement(ctx, scope, feedback.ElementInput{Content: c}); err != nil {
			return i, fmt.Errorf("element #%d: %w", i+1, err)
		}
	}
	return len(contents), nil
}

// Source is the read side of feedback.Service used by Export.
type Source interface {
	ListModules(ctx context.Context) ([]feedback.Module, error)
}

// Export captures the current bank in display order. Ids, positions and
// timestamps are dropped; Import recreates them.
func Export(ctx context.Context, src Source) (Bank, error) {
	mods, err := src.ListModules(ctx)
	if err != nil {
		return Bank{}, err
	}
	b := Bank{Modules: make([]Module, 0, len(mods))}
	for _, m := range mods {
		bm := Module{Title: m.Title, Description: deref(m.Description), Elements: elementContents(m.Elements)}
		for _, q := range m.Questions {
			bm.Questions = append(bm.Questions, Question{
				Title:       q.Title,
				Description: deref(q.Description),
				Elements:    elementContents(q.Elements),
			})
		}
		b.Modules = append(b.Modules, bm)
	}
	return b, nil
}

// Encode writes b in the format Parse reads.
func Encode(w io.Writer, b Bank) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return err
	}
	return enc.Close()
}

func elementContents(els []feedback.Element) []string {
	var out []string
	for _, e := range els {
		out = append(out, e.Content)
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
