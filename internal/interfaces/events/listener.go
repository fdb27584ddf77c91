// Package events consume eventos de servicios completados desde Kafka y descuenta su consumo de inventario.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

// EventServiceCompleted tipo de evento que dispara el descuento.
const EventServiceCompleted = "ServiceCompleted"

// MessageReader lo cumple *kafka.Reader con GroupID (commit explícito tras procesar).
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Fulfiller lo cumple *inventory.DeductionUseCase.
type Fulfiller interface {
	FulfillServiceConsumption(ctx context.Context, tenantID, serviceID, referenceID, actorID string) (*inventory.FulfillmentResult, error)
}

// ServiceCompletedEvent sobre del evento publicado por el módulo de agenda/servicios.
type ServiceCompletedEvent struct {
	EventID   string                  `json:"event_id"`
	EventType string                  `json:"event_type"`
	Payload   ServiceCompletedPayload `json:"payload"`
	Timestamp time.Time               `json:"timestamp"`
}

// ServiceCompletedPayload ReferenceID identifica la ejecución (visita, cita) y hace idempotente el descuento.
type ServiceCompletedPayload struct {
	TenantID    string `json:"tenant_id"`
	ServiceID   string `json:"service_id"`
	ReferenceID string `json:"reference_id"`
	ActorID     string `json:"actor_id,omitempty"`
}

// Listener lee eventos, descuenta el consumo y confirma el offset.
// Los errores de almacenamiento se reintentan y el offset solo se confirma cuando el mensaje
// se procesó o se descartó por inválido. El descuento es idempotente por servicio y referencia,
// así que reprocesar un mensaje no descuenta dos veces.
type Listener struct {
	reader      MessageReader
	uc          Fulfiller
	log         *logger.Logger
	maxAttempts int
	backoff     time.Duration
}

// Option ajusta el Listener.
type Option func(*Listener)

// WithRetry cambia intentos y espera entre intentos ante errores de almacenamiento.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(l *Listener) {
		if attempts > 0 {
			l.maxAttempts = attempts
		}
		l.backoff = backoff
	}
}

// NewListener construye el listener.
func NewListener(reader MessageReader, uc Fulfiller, log *logger.Logger, opts ...Option) *Listener {
	l := &Listener{reader: reader, uc: uc, log: log.Component("service-events"), maxAttempts: 3, backoff: time.Second}
	for _, o := range opts {
		o(l)
	}
	return l
}

// NewKafkaReader reader con grupo de consumo: los offsets se confirman con CommitMessages.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Start bloquea hasta que ctx se cancela.
func (l *Listener) Start(ctx context.Context) {
	l.log.Info().Msg("listener de servicios completados iniciado")
	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.log.Info().Msg("listener de servicios completados detenido")
				return
			}
			l.log.Error().Err(err).Msg("error leyendo mensaje de kafka")
			if !sleepCtx(ctx, l.backoff) {
				return
			}
			continue
		}

		if !l.process(ctx, msg) {
			return
		}
		if err := l.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			l.log.Error().Err(err).Int64("offset", msg.Offset).Msg("error confirmando offset")
		}
	}
}

// errRetriesExhausted el mensaje no se pudo procesar tras agotar los intentos.
var errRetriesExhausted = errors.New("reintentos agotados")

// process insiste con el mismo mensaje hasta procesarlo: pasar al siguiente y confirmarlo
// confirmaría también este. Devuelve false si ctx se canceló antes.
func (l *Listener) process(ctx context.Context, msg kafka.Message) bool {
	for {
		err := l.handle(ctx, msg)
		if ctx.Err() != nil {
			return false
		}
		if err == nil {
			return true
		}
		l.log.Error().Err(err).Int64("offset", msg.Offset).Msg("mensaje sin confirmar; se reprocesa")
		if !sleepCtx(ctx, l.backoff) {
			return false
		}
	}
}

// handle procesa un mensaje. Mensajes inválidos o de otro tipo se descartan (nil);
// devuelve error solo si los errores de almacenamiento agotaron los intentos.
func (l *Listener) handle(ctx context.Context, msg kafka.Message) error {
	var event ServiceCompletedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.log.Error().Err(err).Int64("offset", msg.Offset).Msg("evento inválido descartado")
		return nil
	}
	if event.EventType != EventServiceCompleted {
		return nil
	}
	p := event.Payload

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		result, err := l.uc.FulfillServiceConsumption(ctx, p.TenantID, p.ServiceID, p.ReferenceID, p.ActorID)
		if err == nil {
			ev := l.log.Info()
			if !result.Success {
				ev = l.log.Warn()
			}
			ev.Str("event_id", event.EventID).
				Str("tenant_id", p.TenantID).
				Str("service_id", p.ServiceID).
				Str("reference_id", p.ReferenceID).
				Bool("success", result.Success).
				Int("errors", len(result.Errors)).
				Msg("evento de servicio completado procesado")
			return nil
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			l.log.Error().Err(err).Str("event_id", event.EventID).Msg("evento con datos inválidos descartado")
			return nil
		}
		l.log.Warn().Err(err).Str("event_id", event.EventID).Int("attempt", attempt).Msg("fallo descontando consumo")
		if attempt < l.maxAttempts && !sleepCtx(ctx, l.backoff) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("evento %s, referencia %s: %w", event.EventID, p.ReferenceID, errRetriesExhausted)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
