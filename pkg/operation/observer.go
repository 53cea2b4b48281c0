package operation

import (
	"context"
	"time"
)

// Observer is told about every invocation outcome. Observers see results
// but cannot change them.
type Observer interface {
	// Rejected is called when validation fails; nothing was sent.
	Rejected(spec Spec, err *MissingParametersError)
	// Completed is called after the Executor returns. meta is nil when err
	// is non-nil and the Executor produced no response.
	Completed(ctx context.Context, spec Spec, req RequestDescriptor, meta *ResponseMeta, err error, elapsed time.Duration)
}

// Observers fans out to each non-nil observer in order.
type Observers []Observer

func (os Observers) Rejected(spec Spec, err *MissingParametersError) {
	for _, o := range os {
		if o != nil {
			o.Rejected(spec, err)
		}
	}
}

func (os Observers) Completed(ctx context.Context, spec Spec, req RequestDescriptor, meta *ResponseMeta, err error, elapsed time.Duration) {
	for _, o := range os {
		if o != nil {
			o.Completed(ctx, spec, req, meta, err, elapsed)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Rejected(Spec, *MissingParametersError) {}

func (nopObserver) Completed(context.Context, Spec, RequestDescriptor, *ResponseMeta, error, time.Duration) {
}
