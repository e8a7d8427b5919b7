package collect

import (
	"context"
	"errors"
	"time"

	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"

	"github.com/de-tools/compliance-atlas/pkg/models/domain"
)

// Collector fetches normalized resource snapshots for one account/region and
// kind. Calls for different kinds are independent and safe to run in
// parallel.
type Collector interface {
	Collect(ctx context.Context, accountID, region string, kind domain.ResourceKind) ([]domain.Resource, error)
}

var throttleCodes = map[string]bool{
	"Throttling":                             true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"TooManyRequestsException":               true,
	"ProvisionedThroughputExceededException": true,
}

// IsThrottled reports whether err is a provider rate-limit rejection, the only
// class of fetch error worth retrying.
func IsThrottled(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return throttleCodes[apiErr.ErrorCode()]
	}
	return false
}

// withThrottleRetry runs op, retrying throttled failures with exponential
// backoff. At most 3 attempts; any other error aborts immediately.
func withThrottleRetry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(200*time.Millisecond),
		), 2),
		ctx,
	)

	return backoff.RetryWithData(func() (T, error) {
		res, err := op()
		if err != nil && !IsThrottled(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, policy)
}
