package store

import (
	"context"
	"fmt"
	"time"
)

func (r *SQLEventRepo) AppendQuizEvent(ctx context.Context, data QuizEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO quiz_events
		(sequence, timestamp, epoch, kind, title, question_id, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixNano(), int64(data.Epoch), data.Kind,
		data.Title, data.QuestionID, data.Detail,
	)
	if err != nil {
		return fmt.Errorf("save quiz event: %w", err)
	}
	return nil
}

// QueryQuizEvents returns quiz lifecycle events newest first.
func (r *SQLEventRepo) QueryQuizEvents(ctx context.Context, opts QueryOpts) ([]QuizEventRecord, error) {
	where, args := whereClause(opts, "")
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, sequence, timestamp, epoch, kind, title, question_id, detail
		FROM quiz_events`+where+` ORDER BY sequence DESC`+limitClause(opts.Limit),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query quiz events: %w", err)
	}
	defer rows.Close()

	var records []QuizEventRecord
	for rows.Next() {
		var rec QuizEventRecord
		var ts, epoch int64
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &epoch, &rec.Kind,
			&rec.Title, &rec.QuestionID, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan quiz event: %w", err)
		}
		rec.Timestamp = time.Unix(0, ts)
		rec.Epoch = uint64(epoch)
		records = append(records, rec)
	}
	return records, rows.Err()
}
