package service

import (
	"github.com/compozy/tgit/internal/domain"
	"go.uber.org/zap"
)

var statusStates = map[domain.StatusState]domain.BranchStatus{
	domain.StatusStatePending: domain.BranchStatusYellow,
	domain.StatusStateSuccess: domain.BranchStatusGreen,
	domain.StatusStateFailure: domain.BranchStatusRed,
	domain.StatusStateError:   domain.BranchStatusRed,
}

// MapStatusState maps a reported state; ok is false for unknown states.
func MapStatusState(state domain.StatusState) (domain.BranchStatus, bool) {
	status, ok := statusStates[state]
	return status, ok
}

// DedupeStatuses keeps only the most recently updated entry per target URL.
// Entries without both a target URL and an update time are kept as is.
func DedupeStatuses(entries []domain.StatusEntry) []domain.StatusEntry {
	result := make([]domain.StatusEntry, 0, len(entries))
	var picked []domain.StatusEntry
	byURL := map[string]int{}
	for _, entry := range entries {
		if entry.TargetURL == "" || entry.UpdatedAt == nil {
			result = append(result, entry)
			continue
		}
		i, seen := byURL[entry.TargetURL]
		if !seen {
			byURL[entry.TargetURL] = len(picked)
			picked = append(picked, entry)
			continue
		}
		if entry.UpdatedAt.After(*picked[i].UpdatedAt) {
			picked[i] = entry
		}
	}
	return append(result, picked...)
}

// StatusAggregator reduces commit statuses to a branch status.
type StatusAggregator struct {
	logger *zap.Logger
}

// NewStatusAggregator creates a StatusAggregator.
func NewStatusAggregator(logger *zap.Logger) *StatusAggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusAggregator{logger: logger}
}

// ComputeBranchStatus reduces entries to green, yellow or red. No entries at
// all is yellow; entries that are all allowed to fail are green. Red is final.
func (a *StatusAggregator) ComputeBranchStatus(entries []domain.StatusEntry) domain.BranchStatus {
	if len(entries) == 0 {
		return domain.BranchStatusYellow
	}
	status := domain.BranchStatusGreen
	for _, entry := range DedupeStatuses(entries) {
		if entry.AllowFailure {
			continue
		}
		if status == domain.BranchStatusRed {
			break
		}
		mapped := a.mapState(entry)
		if mapped != domain.BranchStatusGreen {
			a.logger.Debug("Found non-green check", zap.String("name", entry.Name), zap.String("state", string(entry.State)))
			status = mapped
		}
	}
	return status
}

// FindStatusCheck returns the status of the first entry named name, or
// BranchStatusNone when no such entry exists.
func (a *StatusAggregator) FindStatusCheck(entries []domain.StatusEntry, name string) domain.BranchStatus {
	for _, entry := range entries {
		if entry.Name == name {
			return a.mapState(entry)
		}
	}
	return domain.BranchStatusNone
}

func (a *StatusAggregator) mapState(entry domain.StatusEntry) domain.BranchStatus {
	mapped, ok := MapStatusState(entry.State)
	if !ok {
		a.logger.Warn("Could not map commit status state",
			zap.String("name", entry.Name), zap.String("state", string(entry.State)))
		return domain.BranchStatusYellow
	}
	return mapped
}
