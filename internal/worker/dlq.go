package worker

// dlq.go: reports whose delivery was abandoned, and jobs no processor could
// read, are parked in a capped Redis list per source queue (dlq:{queue}).
// Report entries carry the agency and day so an operator can re-request them
// without opening the database.

import (
	"context"
	"encoding/json"
	"time"

	"pvcaisse/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"
	// dlqMax bounds each list; the oldest entries are dropped first.
	dlqMax = 500
)

// DLQEntry is one parked job. The report fields are empty for envelopes that
// could not be decoded.
type DLQEntry struct {
	Queue        string          `json:"queue"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	RapportID    string          `json:"rapport_id,omitempty"`
	AgenceID     string          `json:"agence_id,omitempty"`
	Date         string          `json:"date,omitempty"`
	Destinataire string          `json:"destinataire,omitempty"`
	Raison       string          `json:"raison"`
	Tentatives   int             `json:"tentatives"`
	EchoueLe     time.Time       `json:"echoue_le"`
}

// entreeRapport describes an abandoned report delivery.
func entreeRapport(r *model.RapportEnvoi, raison string, at time.Time) DLQEntry {
	payload, _ := json.Marshal(RapportJobPayload{RapportID: r.ID.String()})
	return DLQEntry{
		Queue:        QueueRapport,
		JobType:      JobRapport,
		Payload:      payload,
		RapportID:    r.ID.String(),
		AgenceID:     r.AgenceID.String(),
		Date:         r.Date.Format(time.DateOnly),
		Destinataire: r.Destinataire,
		Raison:       raison,
		Tentatives:   r.Tentatives,
		EchoueLe:     at.UTC(),
	}
}

// SendToDLQ parks e. Failures are logged, never returned: the caller has
// already given up on the job.
func SendToDLQ(ctx context.Context, rdb *redis.Client, e DLQEntry) {
	if e.EchoueLe.IsZero() {
		e.EchoueLe = time.Now().UTC()
	}
	ev := log.Warn().
		Str("queue", e.Queue).
		Str("job_type", e.JobType).
		Str("rapport_id", e.RapportID).
		Str("raison", e.Raison).
		Int("tentatives", e.Tentatives)
	if rdb == nil {
		ev.Msg("dlq: no redis client, entry dropped")
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("queue", e.Queue).Msg("dlq: failed to marshal entry")
		return
	}
	key := DLQPrefix + e.Queue
	_, err = rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, data)
		p.LTrim(ctx, key, 0, dlqMax-1)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("dlq_key", key).Msg("dlq: failed to push")
		return
	}
	ev.Msg("dlq: job parked")
}

// DLQLength returns the number of entries parked for queue.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ListDLQ returns up to n entries of queue, most recent first. Unreadable
// entries are skipped.
func ListDLQ(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DLQEntry, error) {
	if n <= 0 {
		n = 50
	}
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raw))
	for _, s := range raw {
		var e DLQEntry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("dlq: unreadable entry skipped")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
