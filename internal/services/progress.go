package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/logger"
)

// Progress is emitted after each evaluated pair.
type Progress struct {
	EvaluationID uuid.UUID `json:"evaluation_id"`
	Done         int       `json:"done"`
	Total        int       `json:"total"`
	JD           string    `json:"jd"`
	Resume       string    `json:"resume"`
	Failed       bool      `json:"failed,omitempty"`
}

// Percent is the completed share of the batch, 0..100.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 100
	}
	return p.Done * 100 / p.Total
}

// ProgressReporter receives batch progress. Report may be called from several goroutines.
type ProgressReporter interface {
	Report(ctx context.Context, p Progress)
}

type logProgressReporter struct {
	log *zap.Logger
}

// NewLogProgressReporter logs every pair at debug level and each ten percent step at info level.
func NewLogProgressReporter(log *zap.Logger) ProgressReporter {
	return &logProgressReporter{log: logger.OrNop(log)}
}

// Report implements ProgressReporter.
func (r *logProgressReporter) Report(_ context.Context, p Progress) {
	fields := []zap.Field{
		zap.Int("done", p.Done),
		zap.Int("total", p.Total),
		zap.String("jd", p.JD),
		zap.String("resume", p.Resume),
	}
	if p.EvaluationID != uuid.Nil {
		fields = append(fields, zap.String("evaluation_id", p.EvaluationID.String()))
	}

	r.log.Debug("pair evaluated", fields...)

	if p.Done == p.Total || (p.Total >= 10 && p.Done%(p.Total/10) == 0) {
		r.log.Info("screening progress", zap.Int("percent", p.Percent()), zap.Int("done", p.Done), zap.Int("total", p.Total))
	}
}

type amqpProgressReporter struct {
	conn     *amqp.Connection
	exchange string
	log      *zap.Logger
}

// NewAMQPProgressReporter publishes progress to a topic exchange with routing key evaluation.<id>.
func NewAMQPProgressReporter(url, exchange string, log *zap.Logger) (ProgressReporter, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	return &amqpProgressReporter{
		conn:     conn,
		exchange: exchange,
		log:      logger.OrNop(log),
	}, conn.Close, nil
}

// Report implements ProgressReporter.
func (r *amqpProgressReporter) Report(_ context.Context, p Progress) {
	if err := r.publish(p); err != nil {
		r.log.Warn("failed to publish progress", zap.Error(err))
	}
}

func (r *amqpProgressReporter) publish(p Progress) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return ch.Publish(
		r.exchange,
		fmt.Sprintf("evaluation.%s", p.EvaluationID),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// MultiProgressReporter fans progress out to every reporter.
type MultiProgressReporter []ProgressReporter

// Report implements ProgressReporter.
func (m MultiProgressReporter) Report(ctx context.Context, p Progress) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, p)
		}
	}
}

type nopProgressReporter struct{}

func (nopProgressReporter) Report(context.Context, Progress) {}
