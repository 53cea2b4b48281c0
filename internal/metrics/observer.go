package metrics

import (
	"context"
	"time"

	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// Observer records operation outcomes on the package vectors.
type Observer struct{}

func (Observer) Rejected(spec operation.Spec, _ *operation.MissingParametersError) {
	OperationsRejected.WithLabelValues(spec.ID).Inc()
}

func (Observer) Completed(_ context.Context, spec operation.Spec, _ operation.RequestDescriptor, _ *operation.ResponseMeta, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	OperationsTotal.WithLabelValues(spec.ID, result).Inc()
	OperationDuration.WithLabelValues(spec.ID).Observe(elapsed.Seconds())
}
