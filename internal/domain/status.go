package domain

import "time"

// BranchStatus is the coarse aggregate of all checks reported against a commit.
type BranchStatus string

const (
	BranchStatusGreen  BranchStatus = "green"
	BranchStatusYellow BranchStatus = "yellow"
	BranchStatusRed    BranchStatus = "red"
	// BranchStatusNone means no check with the requested name was reported.
	BranchStatusNone BranchStatus = ""
)

// StatusState is the raw state of a single commit status as reported by the host.
type StatusState string

const (
	StatusStatePending StatusState = "pending"
	StatusStateSuccess StatusState = "success"
	StatusStateFailure StatusState = "failure"
	StatusStateError   StatusState = "error"
)

// StatusEntry is one check or pipeline report against a commit.
type StatusEntry struct {
	State        StatusState
	Name         string
	AllowFailure bool
	TargetURL    string
	UpdatedAt    *time.Time
}

// BranchStatusConfig describes a status to publish on a branch head.
type BranchStatusConfig struct {
	BranchName  string
	Context     string
	Description string
	State       BranchStatus
	URL         string
}
