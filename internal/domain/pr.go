package domain

import "time"

// PrState is the normalized state of a merge request.
type PrState string

const (
	PrStateOpen   PrState = "open"
	PrStateClosed PrState = "closed"
	PrStateMerged PrState = "merged"
	// PrStateAll matches any state when filtering.
	PrStateAll PrState = "all"
)

// DraftPrefix marks a merge request title as work in progress.
const DraftPrefix = "[WIP] "

// MergeStrategy selects how a merge request is merged.
type MergeStrategy string

const (
	MergeStrategyMergeCommit MergeStrategy = "merge-commit"
	MergeStrategyMerge       MergeStrategy = "merge"
	MergeStrategySquash      MergeStrategy = "squash"
	MergeStrategyRebase      MergeStrategy = "rebase"
)

// Pr is a merge request in the platform-independent shape.
type Pr struct {
	Number            int
	DisplayNumber     string
	SourceBranch      string
	TargetBranch      string
	Title             string
	Body              string
	State             PrState
	IsDraft           bool
	HasAssignees      bool
	HasReviewers      bool
	Labels            []string
	SHA               string
	CannotMergeReason string
	CreatedAt         *time.Time
}

// PlatformPrOptions carries platform features requested for a merge request.
type PlatformPrOptions struct {
	UsePlatformAutomerge bool
}

// CreatePrConfig describes a merge request to open.
type CreatePrConfig struct {
	SourceBranch    string
	TargetBranch    string
	Title           string
	Body            string
	Draft           bool
	Labels          []string
	PlatformOptions PlatformPrOptions
}

// UpdatePrConfig describes changes to an existing merge request.
type UpdatePrConfig struct {
	Number          int
	Title           string
	Body            string
	State           PrState
	PlatformOptions PlatformPrOptions
}

// FindPrConfig filters the merge request list.
// A State starting with "!" matches every state except the named one.
type FindPrConfig struct {
	BranchName string
	Title      string
	State      PrState
}
