package driven

import "github.com/vellum-search/vellum/internal/core/domain"

// SettingsSource supplies the current retrieval settings.
//
// Services call Retrieval once per operation and work from the snapshot,
// so a hot reload between calls is safe and a reload during a call is
// invisible to it.
type SettingsSource interface {
	// Retrieval returns a normalized snapshot of the retrieval settings.
	Retrieval() domain.RetrievalSettings
}

// StaticSettings is a SettingsSource that always returns the same
// settings. Useful for tests and for deployments without a config file.
type StaticSettings struct {
	Settings domain.RetrievalSettings
}

// Retrieval returns the fixed settings, normalized.
func (s StaticSettings) Retrieval() domain.RetrievalSettings {
	return s.Settings.Normalize()
}
