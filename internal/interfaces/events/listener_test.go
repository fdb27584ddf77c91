package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de prueba
// ──────────────────────────────────────────────────────────────────────────────

// fakeReader entrega los mensajes en orden y luego bloquea hasta que se cancele el contexto.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	done      chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{msgs: msgs, done: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type mockFulfiller struct {
	mock.Mock
}

func (m *mockFulfiller) FulfillServiceConsumption(ctx context.Context, tenantID, serviceID, referenceID, actorID string) (*inventory.FulfillmentResult, error) {
	args := m.Called(ctx, tenantID, serviceID, referenceID, actorID)
	res, _ := args.Get(0).(*inventory.FulfillmentResult)
	return res, args.Error(1)
}

func eventMessage(t *testing.T, offset int64, eventType string, p ServiceCompletedPayload) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ServiceCompletedEvent{EventID: "ev-1", EventType: eventType, Payload: p, Timestamp: time.Now()})
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: b}
}

// runUntilDrained ejecuta el listener hasta que el reader se queda sin mensajes.
func runUntilDrained(t *testing.T, l *Listener, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(stopped)
	}()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("el listener no consumió los mensajes")
	}
	cancel()
	<-stopped
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestListener_ProcesaServiceCompletedYConfirma(t *testing.T) {
	payload := ServiceCompletedPayload{TenantID: "t1", ServiceID: "svc", ReferenceID: "visita-1", ActorID: "u1"}
	reader := newFakeReader(eventMessage(t, 7, EventServiceCompleted, payload))
	uc := &mockFulfiller{}
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "visita-1", "u1").
		Return(&inventory.FulfillmentResult{Success: true}, nil).Once()

	runUntilDrained(t, NewListener(reader, uc, logger.Nop()), reader)

	uc.AssertExpectations(t)
	assert.Equal(t, []int64{7}, reader.committed)
}

func TestListener_IgnoraOtrosTiposYMensajesInvalidos(t *testing.T) {
	reader := newFakeReader(
		eventMessage(t, 1, "OrderCreated", ServiceCompletedPayload{TenantID: "t1"}),
		kafka.Message{Offset: 2, Value: []byte("{no es json")},
	)
	uc := &mockFulfiller{}

	runUntilDrained(t, NewListener(reader, uc, logger.Nop()), reader)

	uc.AssertNotCalled(t, "FulfillServiceConsumption", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []int64{1, 2}, reader.committed, "los mensajes descartados también se confirman")
}

func TestListener_ReintentaErroresDeAlmacenamiento(t *testing.T) {
	payload := ServiceCompletedPayload{TenantID: "t1", ServiceID: "svc", ReferenceID: "visita-1"}
	reader := newFakeReader(eventMessage(t, 3, EventServiceCompleted, payload))
	uc := &mockFulfiller{}
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "visita-1", "").
		Return(nil, errors.New("conexión perdida")).Once()
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "visita-1", "").
		Return(&inventory.FulfillmentResult{Success: true}, nil).Once()

	runUntilDrained(t, NewListener(reader, uc, logger.Nop(), WithRetry(3, 0)), reader)

	uc.AssertNumberOfCalls(t, "FulfillServiceConsumption", 2)
	assert.Equal(t, []int64{3}, reader.committed)
}

func TestListener_NoReintentaDatosInvalidos(t *testing.T) {
	payload := ServiceCompletedPayload{TenantID: "t1", ServiceID: "svc"}
	reader := newFakeReader(eventMessage(t, 4, EventServiceCompleted, payload))
	uc := &mockFulfiller{}
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "", "").
		Return(nil, domain.Invalid("referencia requerida"))

	runUntilDrained(t, NewListener(reader, uc, logger.Nop(), WithRetry(3, 0)), reader)

	uc.AssertNumberOfCalls(t, "FulfillServiceConsumption", 1)
}

func TestListener_AgotarReintentosNoConfirmaElOffset(t *testing.T) {
	payload := ServiceCompletedPayload{TenantID: "t1", ServiceID: "svc", ReferenceID: "visita-1"}
	reader := newFakeReader(
		eventMessage(t, 5, EventServiceCompleted, payload),
		eventMessage(t, 6, EventServiceCompleted, payload),
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	uc := &mockFulfiller{}
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "visita-1", "").
		Run(func(mock.Arguments) {
			// tercera ronda de reintentos sobre el mismo mensaje
			if atomic.AddInt32(&calls, 1) == 7 {
				cancel()
			}
		}).
		Return(nil, errors.New("base de datos caída"))

	stopped := make(chan struct{})
	go func() {
		NewListener(reader, uc, logger.Nop(), WithRetry(3, 0)).Start(ctx)
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("el listener no se detuvo")
	}

	assert.Equal(t, int32(7), atomic.LoadInt32(&calls))
	reader.mu.Lock()
	defer reader.mu.Unlock()
	assert.Empty(t, reader.committed, "un mensaje sin procesar no se confirma")
	assert.Len(t, reader.msgs, 1, "no se pasa al siguiente mensaje")
}

func TestListener_ReprocesaElMismoMensajeHastaLograrlo(t *testing.T) {
	payload := ServiceCompletedPayload{TenantID: "t1", ServiceID: "svc", ReferenceID: "visita-1"}
	reader := newFakeReader(eventMessage(t, 8, EventServiceCompleted, payload))
	uc := &mockFulfiller{}
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "visita-1", "").
		Return(nil, errors.New("timeout")).Times(3)
	uc.On("FulfillServiceConsumption", mock.Anything, "t1", "svc", "visita-1", "").
		Return(&inventory.FulfillmentResult{Success: true}, nil).Once()

	runUntilDrained(t, NewListener(reader, uc, logger.Nop(), WithRetry(3, 0)), reader)

	uc.AssertNumberOfCalls(t, "FulfillServiceConsumption", 4)
	assert.Equal(t, []int64{8}, reader.committed)
}
