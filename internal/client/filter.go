package client

import (
	"strings"

	"github.com/mind-engage/feedbackbank/internal/feedback"
)

// Filter returns the part of t that matches query, case-insensitively, at
// any level. A module or question whose title matches is kept whole;
// otherwise only its matching descendants are kept. Positions are never
// touched. An empty query returns a copy of t.
func Filter(t Tree, query string) Tree {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return t.Clone()
	}
	match := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	out := Tree{Modules: []feedback.Module{}}
	for _, m := range t.Modules {
		if match(m.Title) {
			out.Modules = append(out.Modules, cloneModule(m))
			continue
		}
		fm := m
		fm.Questions = []feedback.Question{}
		fm.Elements = matchingElements(m.Elements, match)
		for _, qq := range m.Questions {
			if match(qq.Title) {
				fm.Questions = append(fm.Questions, cloneQuestion(qq))
				continue
			}
			if els := matchingElements(qq.Elements, match); len(els) > 0 {
				fq := qq
				fq.Elements = els
				fm.Questions = append(fm.Questions, fq)
			}
		}
		if len(fm.Questions) > 0 || len(fm.Elements) > 0 {
			out.Modules = append(out.Modules, fm)
		}
	}
	return out
}

func matchingElements(els []feedback.Element, match func(string) bool) []feedback.Element {
	out := []feedback.Element{}
	for _, e := range els {
		if match(e.Content) {
			out = append(out, e)
		}
	}
	return out
}
