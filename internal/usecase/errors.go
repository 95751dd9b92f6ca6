package usecase

import "fmt"

// ScrapeError marks a URL whose content could not be extracted after all
// attempts were exhausted.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// AnalysisError marks content that was scraped but rejected or lost at
// the inference stage.
type AnalysisError struct {
	URL string
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.URL, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// PersistError marks an analysis that could not be written to the store.
type PersistError struct {
	URL string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.URL, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
