package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/line-seat-reservation/internal/logging"
)

// DefaultLogPath is where the consumer appends confirmed reservations.
var DefaultLogPath = filepath.Join("logs", "reservations.log")

// StartReservationConsumer connects to RabbitMQ, declares the
// reservation.confirmed queue and appends every event to logPath as one
// human-readable line.  It reconnects with backoff until ctx is done and
// then returns ctx.Err().  Malformed messages are rejected without requeue.
func StartReservationConsumer(ctx context.Context, url, logPath string, logger *slog.Logger) error {
	if logPath == "" {
		logPath = DefaultLogPath
	}
	logger = logger.With(slog.String("component", "reservation-consumer"))

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn("failed to dial broker", slog.String("error", err.Error()), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, logPath, logger)
		logging.SafeCloseWithLogging(conn, logger, "amqp_connection")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("consume loop ended, reconnecting", slog.String("error", err.Error()))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logPath string, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer logging.SafeCloseWithLogging(ch, logger, "amqp_channel")

	if err := ch.Qos(50, 0, false); err != nil {
		logging.LogError(logger, "set QoS failed", err)
	}
	if _, err := ch.QueueDeclare(ReservationConfirmedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, ReservationConfirmedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	logger.Info("consuming reservation events", slog.String("queue", ReservationConfirmedQueue))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(d.Body, logPath); err != nil {
				logging.LogError(logger, "handle message failed", err, slog.String("message_id", d.MessageId))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(body []byte, logPath string) error {
	var ev ReservationConfirmedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ReservationNumber == "" {
		return errors.New("event without reservation number")
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatLine(ev ReservationConfirmedEvent) string {
	return fmt.Sprintf("[%s] Reservation confirmed | number=%s | %s->%s | passengers=%d | total=%s | seats=[%s]\n",
		ev.ConfirmedAt, ev.ReservationNumber, ev.Origin, ev.Destination,
		ev.PassengerCount, ev.TotalPrice.StringFixed(2), strings.Join(ev.SeatNumbers, ","))
}
