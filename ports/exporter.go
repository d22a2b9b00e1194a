package ports

import (
	"mixaudit/domain/analysis"
)

// Exporter renders a finished analysis into one downloadable artifact.
// Implementations are stateless; the same result renders identically
// every time.
type Exporter interface {
	// Name identifies the artifact kind (used in filenames and logs)
	Name() string

	// Extension is the artifact file extension without the dot
	Extension() string

	// Render serializes the result
	Render(result *analysis.AnalysisResult) ([]byte, error)
}
