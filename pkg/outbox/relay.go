package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aisha-ai/aisha-crm/pkg/pglock"
)

const lastErrorMaxLen = 2048

// Relay claims pending outbox messages and hands them to the dispatcher.
// With SingleActive set, an advisory lock elects exactly one active relay
// per database; the rest idle until leadership frees up.
type Relay struct {
	pool       *pgxpool.Pool
	dispatcher Dispatcher
	opts       RelayOptions

	lockKey int64

	m *metrics
}

func NewRelay(pool *pgxpool.Pool, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	if pool == nil {
		return nil, invalidConfig("pool is required")
	}
	if dispatcher == nil {
		return nil, invalidConfig("dispatcher is required")
	}

	opts.setDefaults()

	r := &Relay{
		pool:       pool,
		dispatcher: dispatcher,
		opts:       opts,
		m:          getMetrics(),
		lockKey:    pglock.Key("outbox:" + Table),
	}
	if r.opts.Logger == nil {
		r.opts.Logger = logrusNop()
	}
	return r, nil
}

func (r *Relay) Run(ctx context.Context) error {
	if ctx == nil {
		return invalidConfig("ctx is required")
	}

	if r.opts.SingleActive {
		return r.runSingleActive(ctx)
	}

	r.m.relayLeader.Set(1)
	return r.runLoop(ctx, nil)
}

func (r *Relay) runSingleActive(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, err := r.pool.Acquire(ctx)
		if err != nil {
			r.opts.Logger.WithError(err).Warn("outbox: failed to acquire connection for single-active relay")
			if err := sleepOrDone(ctx, r.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		leader, err := pglock.TrySession(ctx, conn, r.lockKey)
		if err != nil {
			conn.Release()
			r.opts.Logger.WithError(err).Warn("outbox: failed to attempt advisory lock")
			if err := sleepOrDone(ctx, r.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		if !leader {
			r.m.relayLeader.Set(0)
			conn.Release()
			if err := sleepOrDone(ctx, r.opts.PollInterval); err != nil {
				return err
			}
			continue
		}

		r.m.relayLeader.Set(1)
		r.opts.Logger.Info("outbox: relay became leader")

		err = r.runLoop(ctx, conn)
		_ = pglock.ReleaseSession(context.Background(), conn, r.lockKey)
		conn.Release()
		return err
	}
}

func (r *Relay) runLoop(ctx context.Context, conn *pgxpool.Conn) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := r.observePending(ctx); err != nil {
			r.opts.Logger.WithError(err).Debug("outbox: observe pending failed")
		}

		if err := r.processOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.opts.Logger.WithError(err).Warn("outbox: process tick failed")
		}
	}
}

type claimed struct {
	TenantID uuid.UUID
	Topic    string
	Payload  []byte
	EventID  uuid.UUID
	Sequence int64
	Attempts int
}

func (r *Relay) processOnce(ctx context.Context) error {
	now := time.Now()
	cutoff := now.Add(-r.opts.LockTTL)

	items, err := r.claim(ctx, now, cutoff)
	if err != nil {
		return err
	}

	for _, c := range items {
		dispatchCtx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)

		start := time.Now()
		err := r.dispatcher.Dispatch(dispatchCtx, DispatchedMessage{
			Meta: Meta{
				TenantID: c.TenantID,
				Topic:    c.Topic,
				EventID:  c.EventID,
				Sequence: c.Sequence,
				Attempts: c.Attempts,
			},
			Payload: c.Payload,
		})
		cancel()

		latency := time.Since(start)
		if err == nil {
			r.recordDispatch(c.Topic, "success", latency)
			if ackErr := r.ack(ctx, c.Sequence); ackErr != nil {
				r.opts.Logger.WithError(ackErr).WithField("sequence", c.Sequence).Warn("outbox: ack failed")
			}
			continue
		}

		r.recordDispatch(c.Topic, "failure", latency)
		lastErr := truncateError(err, lastErrorMaxLen)

		if c.Attempts >= r.opts.MaxAttempts {
			r.m.deadTotal.WithLabelValues(c.Topic).Inc()
			if deadErr := r.dead(ctx, c.Sequence, lastErr); deadErr != nil {
				r.opts.Logger.WithError(deadErr).WithField("sequence", c.Sequence).Warn("outbox: dead update failed")
			}
			continue
		}

		next := time.Now().Add(backoff(c.Attempts, r.opts.MaxBackoff) + jitter(r.opts.Rand, r.opts.JitterMax))
		if nackErr := r.nack(ctx, c.Sequence, lastErr, next); nackErr != nil {
			r.opts.Logger.WithError(nackErr).WithField("sequence", c.Sequence).Warn("outbox: nack failed")
		}
	}

	return nil
}

func (r *Relay) claim(ctx context.Context, now, lockCutoff time.Time) ([]claimed, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `SELECT tenant_id, topic, payload, event_id, sequence, attempts
		   FROM ` + Table + `
		  WHERE published_at IS NULL
		    AND dead_at IS NULL
		    AND available_at <= $1
		    AND (locked_at IS NULL OR locked_at < $2)
		  ORDER BY available_at, sequence
		  LIMIT $3
		  FOR UPDATE SKIP LOCKED`
	rows, err := tx.Query(ctx, q, now, lockCutoff, r.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("outbox claim select: %w", err)
	}
	defer rows.Close()

	var items []claimed
	var sequences []int64
	for rows.Next() {
		var c claimed
		if err := rows.Scan(&c.TenantID, &c.Topic, &c.Payload, &c.EventID, &c.Sequence, &c.Attempts); err != nil {
			return nil, fmt.Errorf("outbox claim scan: %w", err)
		}
		c.Attempts++
		items = append(items, c)
		sequences = append(sequences, c.Sequence)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("outbox claim rows: %w", err)
	}
	rows.Close()

	if len(sequences) == 0 {
		return nil, tx.Commit(ctx)
	}

	const update = `UPDATE ` + Table + ` SET locked_at = $1, attempts = attempts + 1 WHERE sequence = ANY($2)`
	if _, err := tx.Exec(ctx, update, now, pgtype.FlatArray[int64](sequences)); err != nil {
		return nil, fmt.Errorf("outbox claim update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *Relay) ack(ctx context.Context, sequence int64) error {
	const q = `UPDATE ` + Table + `
	    SET published_at = now(),
	        locked_at = NULL,
	        last_error = NULL
	  WHERE sequence = $1 AND published_at IS NULL`
	_, err := r.pool.Exec(ctx, q, sequence)
	return err
}

func (r *Relay) nack(ctx context.Context, sequence int64, lastErr string, next time.Time) error {
	const q = `UPDATE ` + Table + `
	    SET locked_at = NULL,
	        last_error = $2,
	        available_at = $3
	  WHERE sequence = $1 AND published_at IS NULL`
	_, err := r.pool.Exec(ctx, q, sequence, lastErr, next)
	return err
}

func (r *Relay) dead(ctx context.Context, sequence int64, lastErr string) error {
	const q = `UPDATE ` + Table + `
	    SET locked_at = NULL,
	        last_error = $2,
	        dead_at = now()
	  WHERE sequence = $1 AND published_at IS NULL`
	_, err := r.pool.Exec(ctx, q, sequence, lastErr)
	return err
}

func (r *Relay) observePending(ctx context.Context) error {
	var pending int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM `+Table+` WHERE published_at IS NULL AND dead_at IS NULL`,
	).Scan(&pending)
	if err != nil {
		return err
	}
	r.m.pending.Set(float64(pending))
	return nil
}

func (r *Relay) recordDispatch(topic, result string, latency time.Duration) {
	r.m.dispatchTotal.WithLabelValues(topic, result).Inc()
	r.m.dispatchLatency.WithLabelValues(topic, result).Observe(latency.Seconds())
}

func truncateError(err error, maxLen int) string {
	msg := err.Error()
	if maxLen > 0 && len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}

func uuidZero() uuid.UUID {
	return uuid.UUID{}
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
