// Package yamlfile loads evaluation rubrics from a YAML document.
package yamlfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
)

// Document layout:
//
//	rubrics:
//	  - id: Q1
//	    question: "..."
//	    must_have_keywords: [transformer, attention]
//	    optional_keywords: [parallel]
type document struct {
	Rubrics []domain.Rubric `yaml:"rubrics"`
}

type Loader struct {
	path string
}

func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

func (l *Loader) LoadRubrics(_ context.Context) ([]domain.Rubric, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read rubric file: %w", err)
	}
	return Parse(raw)
}

// Parse keeps file order, which decides substring matches.
func Parse(raw []byte) ([]domain.Rubric, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "parse rubric file", err)
	}
	if len(doc.Rubrics) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "parse rubric file", errors.New("no rubrics defined"))
	}

	seen := make(map[string]struct{}, len(doc.Rubrics))
	for i, r := range doc.Rubrics {
		if strings.TrimSpace(r.ID) == "" || strings.TrimSpace(r.Question) == "" {
			return nil, domain.WrapError(domain.ErrInvalidConfig, "parse rubric file", fmt.Errorf("rubric %d needs id and question", i))
		}
		if len(r.MustHave) == 0 {
			return nil, domain.WrapError(domain.ErrInvalidConfig, "parse rubric file", fmt.Errorf("rubric %s has no must_have_keywords", r.ID))
		}
		if _, dup := seen[r.ID]; dup {
			return nil, domain.WrapError(domain.ErrInvalidConfig, "parse rubric file", fmt.Errorf("duplicate rubric id %s", r.ID))
		}
		seen[r.ID] = struct{}{}
	}
	return doc.Rubrics, nil
}
