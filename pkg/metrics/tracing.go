package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer records a segment for one method call within the New Relic
// transaction carried by a context. All methods are no-ops on a nil tracer.
type MethodTracer struct {
	txn *newrelic.Transaction
	seg *newrelic.Segment
}

// TraceMethodCall starts a "<component> <method>" segment. It returns nil when
// ctx carries no transaction.
func TraceMethodCall(ctx context.Context, component, method string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		txn: txn,
		seg: txn.StartSegment(component + " " + method),
	}
}

// Trace runs fn inside a method segment, noticing any error it returns.
func Trace(ctx context.Context, component, method string, fn func(*MethodTracer) error) error {
	tracer := TraceMethodCall(ctx, component, method)
	defer tracer.End()

	err := fn(tracer)
	tracer.OnError(err)
	return err
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}

	for key, value := range attributes {
		t.seg.AddAttribute(key, value)
	}
}

func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()
}
