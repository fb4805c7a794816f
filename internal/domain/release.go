package domain

import "time"

// Release is a single version published by a repository, backed by a tag.
type Release struct {
	Version          string     `json:"version"`
	GitRef           string     `json:"gitRef"`
	ReleaseTimestamp *time.Time `json:"releaseTimestamp,omitempty"`
}

// ReleaseResult holds every release of a dependency together with its source location.
type ReleaseResult struct {
	SourceURL string    `json:"sourceUrl"`
	Releases  []Release `json:"releases"`
}
