// Package analyzer implements the local static analyzers that run over
// changed file contents during a review. Each analyzer is independent;
// the pipeline invokes them in registration order and tolerates
// individual failures.
package analyzer

import (
	"github.com/hathansen/pr-review-bot/internal/domain"
)

// Analyzer inspects one file's full contents and reports the issues it
// finds. Implementations must be safe for concurrent use across files.
type Analyzer interface {
	// Name returns the stable identifier used in configuration to
	// enable or disable this analyzer.
	Name() string

	// Detect runs the analysis. Line numbers in the returned issues
	// refer to the new version of the file, or 0 when the analyzer
	// cannot attribute the issue to a specific line.
	Detect(content, filename string) ([]domain.Issue, error)
}

// Registry holds the configured analyzers in execution order.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry builds a registry from the given analyzers, preserving
// their order.
func NewRegistry(analyzers ...Analyzer) *Registry {
	return &Registry{analyzers: analyzers}
}

// DefaultRegistry returns a registry with the full built-in analyzer
// set in its standard order.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewBugDetector(),
		NewSecurityScanner(),
		NewPerformanceAnalyzer(),
		NewComplexityAnalyzer(),
		NewDuplicationDetector(),
		NewDependencyScanner(DefaultAdvisories()),
		NewCoverageAnalyzer(),
	)
}

// All returns every registered analyzer.
func (r *Registry) All() []Analyzer {
	return r.analyzers
}

// Enabled filters the registry by the given enable map. Analyzers
// absent from the map stay enabled, so an empty map means everything
// runs.
func (r *Registry) Enabled(enabled map[string]bool) []Analyzer {
	out := make([]Analyzer, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		if on, ok := enabled[a.Name()]; ok && !on {
			continue
		}
		out = append(out, a)
	}
	return out
}
