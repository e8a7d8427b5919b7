package scan

import (
	"errors"
	"fmt"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// ErrScanInProgress rejects a second scan for an account/region while one is
// running. Callers should retry later; this is not a system failure.
var ErrScanInProgress = errors.New("a scan is already in progress for this account and region")

// FetchError is fatal to the scan and names the resource kind that failed.
type FetchError struct {
	Kind domain.ResourceKind
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s resources: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PersistError means the commit failed; the scan is FAILED and nothing of it
// is visible in history.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting scan: %v", e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
