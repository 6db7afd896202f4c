package diagnose

import "context"

// Check is one probe in the catalog. A false Success is a normal outcome;
// a non-nil error means the probe could not reach a decision.
type Check func(ctx context.Context) (Result, error)

// RunUntilFail runs checks in order and stops at the first failure.
//
// The returned composite carries every result executed so far as Children and
// propagates the failing child's resolution. When every check passes and final
// is non-nil, final is appended and decides the outcome; it stands for the
// remaining cause that the known checks could not pin down.
//
// If a check returns an error, the partial composite is returned with it so the
// caller can still report what ran before the failure.
func RunUntilFail(ctx context.Context, label string, checks []Check, final *Result) (Result, error) {
	var details Children
	for _, check := range checks {
		res, err := check(ctx)
		if err != nil {
			return Result{Label: label, Details: details}, err
		}
		details = append(details, res)
		if !res.Success {
			return Result{Label: label, Details: details, Resolution: res.Resolution}, nil
		}
	}
	if final != nil {
		details = append(details, *final)
		return Result{
			Success:    final.Success,
			Label:      label,
			Details:    details,
			Resolution: final.Resolution,
		}, nil
	}
	return Result{Success: true, Label: label, Details: details}, nil
}
