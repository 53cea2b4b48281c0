package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/model"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/operation"
)

// --- mock types ---

type mockJetStream struct {
	mu        sync.Mutex
	published []*nats.Msg
	fail      bool
}

func (m *mockJetStream) PublishMsg(msg *nats.Msg, _ ...nats.PubOpt) (*nats.PubAck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("mock publish error")
	}
	m.published = append(m.published, msg)
	return &nats.PubAck{Stream: "mock-stream"}, nil
}

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type mockChannel struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (m *mockChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, published{exchange, key, msg})
	return nil
}

var createSecret = operation.Spec{ID: "CreateSecret", Method: http.MethodPost, Path: "/api/v1/secrets/{secret_type}"}

func okMeta() *operation.ResponseMeta {
	return &operation.ResponseMeta{StatusCode: http.StatusCreated, StatusText: "Created", Headers: http.Header{}}
}

func createReq() operation.RequestDescriptor {
	return operation.RequestDescriptor{
		OperationID: "CreateSecret",
		Method:      http.MethodPost,
		URL:         "/api/v1/secrets/arbitrary",
		Headers:     map[string]string{"X-Correlation-ID": "corr-1"},
	}
}

// ─── Notifier ───

func TestSubject(t *testing.T) {
	n := NewNotifier(nil, "", "svc")
	assert.Equal(t, "evt.secrets.create_secret.v1", n.Subject("CreateSecret"))
	assert.Equal(t, "evt.secrets.create_secret_version_locks_bulk.v1", n.Subject("CreateSecretVersionLocksBulk"))

	n = NewNotifier(nil, "acme.audit.", "svc")
	assert.Equal(t, "acme.audit.delete_secret.v1", n.Subject("DeleteSecret"))
}

func TestNotifier_PublishesToEverySink(t *testing.T) {
	js := &mockJetStream{}
	ch := &mockChannel{}
	n := NewNotifier(zap.NewNop(), "", "sm-gateway",
		NewNATSSinkFromJetStream(js, "sm-gateway"),
		NewAMQPSink(ch, "secrets", "sm-gateway"))
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	n.Completed(context.Background(), createSecret, createReq(), okMeta(), nil, 42*time.Millisecond)

	require.Len(t, js.published, 1)
	msg := js.published[0]
	assert.Equal(t, "evt.secrets.create_secret.v1", msg.Subject)
	assert.Equal(t, "secrets.create_secret", msg.Header.Get("event_type"))
	assert.Equal(t, "corr-1", msg.Header.Get("correlation_id"))
	assert.Equal(t, "sm-gateway", msg.Header.Get("service"))

	var ev model.SecretOperationEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "CreateSecret", ev.Operation)
	assert.Equal(t, "/api/v1/secrets/arbitrary", ev.Path)
	assert.Equal(t, http.StatusCreated, ev.StatusCode)
	assert.Equal(t, int64(42), ev.DurationMs)
	assert.True(t, fixed.Equal(ev.Timestamp))
	assert.Equal(t, ev.ID.String(), msg.Header.Get("event_id"))

	require.Len(t, ch.sent, 1)
	sent := ch.sent[0]
	assert.Equal(t, "secrets", sent.exchange)
	assert.Equal(t, "evt.secrets.create_secret.v1", sent.key)
	assert.Equal(t, "application/json", sent.msg.ContentType)
	assert.Equal(t, ev.ID.String(), sent.msg.MessageId)
	assert.Equal(t, "corr-1", sent.msg.CorrelationId)
	assert.Equal(t, uint8(amqp.Persistent), sent.msg.DeliveryMode)
}

func TestNotifier_SkipsReadsFailuresAndRejections(t *testing.T) {
	js := &mockJetStream{}
	n := NewNotifier(nil, "", "svc", NewNATSSinkFromJetStream(js, "svc"))

	get := operation.Spec{ID: "GetSecret", Method: http.MethodGet}
	n.Completed(context.Background(), get, operation.RequestDescriptor{}, okMeta(), nil, 0)
	n.Completed(context.Background(), createSecret, createReq(), okMeta(), errors.New("boom"), 0)
	n.Completed(context.Background(), createSecret, createReq(), nil, nil, 0)
	n.Rejected(createSecret, &operation.MissingParametersError{OperationID: "CreateSecret", Missing: []string{"secretType"}})

	assert.Empty(t, js.published)
}

func TestNotifier_SinkFailureIsCountedNotReturned(t *testing.T) {
	js := &mockJetStream{fail: true}
	ch := &mockChannel{}
	n := NewNotifier(nil, "", "svc", NewNATSSinkFromJetStream(js, "svc"), NewAMQPSink(ch, "", "svc"))

	natsErrs := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("nats", "error"))
	amqpOK := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("amqp", "ok"))

	n.Completed(context.Background(), createSecret, createReq(), okMeta(), nil, 0)

	assert.Equal(t, natsErrs+1, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("nats", "error")))
	assert.Equal(t, amqpOK+1, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("amqp", "ok")))
	assert.Len(t, ch.sent, 1, "a failing sink does not block the others")
}

func TestNotifier_CorrelationFromResponse(t *testing.T) {
	js := &mockJetStream{}
	n := NewNotifier(nil, "", "svc", NewNATSSinkFromJetStream(js, "svc"))

	meta := okMeta()
	meta.Headers.Set("X-Correlation-ID", "echoed")
	req := createReq()
	req.Headers = nil
	n.Completed(context.Background(), createSecret, req, meta, nil, 0)

	require.Len(t, js.published, 1)
	assert.Equal(t, "echoed", js.published[0].Header.Get("correlation_id"))
}

func TestNotifier_CorrelationSentByExecutor(t *testing.T) {
	js := &mockJetStream{}
	n := NewNotifier(nil, "", "svc", NewNATSSinkFromJetStream(js, "svc"))

	meta := okMeta()
	meta.CorrelationID = "generated-1"
	req := createReq()
	req.Headers = nil
	n.Completed(context.Background(), createSecret, req, meta, nil, 0)

	require.Len(t, js.published, 1)
	assert.Equal(t, "generated-1", js.published[0].Header.Get("correlation_id"))
}

func TestNotifier_AsInvokerObserver(t *testing.T) {
	js := &mockJetStream{}
	n := NewNotifier(nil, "", "svc", NewNATSSinkFromJetStream(js, "svc"))

	exec := operation.ExecutorFunc(func(_ context.Context, _ operation.RequestDescriptor, _ operation.BaseOptions, _ any) (*operation.ResponseMeta, error) {
		return okMeta(), nil
	})
	inv := operation.NewInvoker(operation.BaseOptions{ServiceURL: "https://sm.example"}, exec, operation.WithObserver(n))

	bag := operation.Bag{"secretType": "arbitrary", "metadata": map[string]any{}, "resources": []any{}}
	_, err := operation.Invoke[map[string]any](context.Background(), inv, operation.Spec{
		ID:     "CreateSecret",
		Method: http.MethodPost,
		Path:   "/api/v1/secrets/{secret_type}",
		Params: []operation.Param{
			{Name: "secretType", Wire: "secret_type", In: operation.InPath, Required: true},
			{Name: "metadata", In: operation.InBody, Required: true},
			{Name: "resources", In: operation.InBody, Required: true},
		},
		Body:   operation.BodyFields,
		Accept: operation.MediaJSON,
	}, bag)
	require.NoError(t, err)
	require.Len(t, js.published, 1)
	assert.Equal(t, "evt.secrets.create_secret.v1", js.published[0].Subject)
}

// ─── Sinks ───

func TestAMQPSink_Error(t *testing.T) {
	s := NewAMQPSink(&mockChannel{err: amqp.ErrClosed}, "x", "svc")
	err := s.Publish(context.Background(), "evt.secrets.delete_secret.v1", model.SecretOperationEvent{})
	assert.ErrorIs(t, err, amqp.ErrClosed)
	assert.NoError(t, s.Close())
}

func TestNATSSink_Name(t *testing.T) {
	assert.Equal(t, "nats", NewNATSSinkFromJetStream(&mockJetStream{}, "svc").Name())
	assert.Equal(t, "amqp", NewAMQPSink(&mockChannel{}, "", "svc").Name())
}
