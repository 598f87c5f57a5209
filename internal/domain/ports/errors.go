// Package ports defines interfaces for external service communication.
package ports

import "errors"

// Tolerated provider signals. Clients return these (wrapped) when a feature is
// absent for the entity; aggregation treats them as empty data, not failures.
var (
	// ErrNotConfigured means the feature exists but the entity has not set it up,
	// e.g. a branch with no protection rules.
	ErrNotConfigured = errors.New("feature not configured")

	// ErrFeatureUnavailable means the entity is not entitled to the feature,
	// e.g. security alerts disabled or not licensed for the repository.
	ErrFeatureUnavailable = errors.New("feature not available")
)

// ErrRecordExists is returned by EvidenceStore.Append when a record with the
// same source, type and timestamp is already stored.
var ErrRecordExists = errors.New("evidence record already exists")

// IsTolerated reports whether err is one of the tolerated absence signals.
func IsTolerated(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrFeatureUnavailable)
}
