package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo on SQLite with the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequence
}

func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// applyQueryOpts adds the common ledger filters to a selector.
func applyQueryOpts(sel *entsql.Selector, t *entsql.SelectTable, opts QueryOpts) {
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	if opts.After > 0 {
		sel.Where(entsql.GT(t.C("sequence"), opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT(t.C("sequence"), opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE(t.C("timestamp"), opts.From))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE(t.C("timestamp"), opts.To))
	}
}

func (r *eventRepo) AppendProgressionEvent(ctx context.Context, data ProgressionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	q, args := builder().Insert(tableProgression).
		Columns("sequence", "timestamp", "learner_id", "module_id", "submodule_id", "kind", "score", "xp", "module_completed").
		Values(seqNum, time.Now(), data.LearnerID, data.ModuleID, data.SubModuleID, data.Kind, data.Score, data.XP, data.ModuleCompleted).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save progression event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryProgressionEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]ProgressionEventRecord, error) {
	t := entsql.Table(tableProgression)
	sel := builder().Select(
		t.C("sequence"), t.C("timestamp"), t.C("learner_id"), t.C("module_id"),
		t.C("submodule_id"), t.C("kind"), t.C("score"), t.C("xp"), t.C("module_completed"),
	).From(t).
		Where(entsql.EQ(t.C("learner_id"), learnerID)).
		OrderBy(entsql.Desc(t.C("sequence")))
	applyQueryOpts(sel, t, opts)

	q, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query progression events: %w", err)
	}
	defer rows.Close()

	var records []ProgressionEventRecord
	for rows.Next() {
		var rec ProgressionEventRecord
		if err := rows.Scan(&rec.Sequence, &rec.Timestamp, &rec.LearnerID, &rec.ModuleID,
			&rec.SubModuleID, &rec.Kind, &rec.Score, &rec.XP, &rec.ModuleCompleted); err != nil {
			return nil, fmt.Errorf("scan progression event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) AppendXPEvent(ctx context.Context, data XPEventData) (bool, error) {
	if data.Key == "" {
		return false, fmt.Errorf("xp event: empty award key")
	}
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return false, fmt.Errorf("next sequence: %w", err)
	}

	q, args := builder().Insert(tableXP).
		Columns("sequence", "timestamp", "learner_id", "kind", "amount", "module_id", "submodule_id", "reason", "award_key").
		Values(seqNum, time.Now(), data.LearnerID, data.Kind, data.Amount, data.ModuleID, data.SubModuleID, data.Reason, data.Key).
		OnConflict(entsql.ConflictColumns("award_key"), entsql.DoNothing()).
		Query()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, fmt.Errorf("save xp event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save xp event: %w", err)
	}
	return n > 0, nil
}

func (r *eventRepo) QueryXPEvents(ctx context.Context, learnerID string, opts QueryOpts) ([]XPEventRecord, error) {
	t := entsql.Table(tableXP)
	sel := builder().Select(
		t.C("sequence"), t.C("timestamp"), t.C("learner_id"), t.C("kind"), t.C("amount"),
		t.C("module_id"), t.C("submodule_id"), t.C("reason"), t.C("award_key"),
	).From(t).
		Where(entsql.EQ(t.C("learner_id"), learnerID)).
		OrderBy(entsql.Desc(t.C("sequence")))
	applyQueryOpts(sel, t, opts)

	q, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query xp events: %w", err)
	}
	defer rows.Close()

	var records []XPEventRecord
	for rows.Next() {
		var rec XPEventRecord
		if err := rows.Scan(&rec.Sequence, &rec.Timestamp, &rec.LearnerID, &rec.Kind, &rec.Amount,
			&rec.ModuleID, &rec.SubModuleID, &rec.Reason, &rec.Key); err != nil {
			return nil, fmt.Errorf("scan xp event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) XPTotal(ctx context.Context, learnerID string) (int, error) {
	t := entsql.Table(tableXP)
	q, args := builder().Select(entsql.Sum(t.C("amount"))).
		From(t).
		Where(entsql.EQ(t.C("learner_id"), learnerID)).
		Query()

	var total sql.NullInt64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum xp: %w", err)
	}
	return int(total.Int64), nil
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	q, args := builder().Insert(tableLLM).
		Columns("sequence", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body").
		Values(seqNum, time.Now(), data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func llmColumns(t *entsql.SelectTable) []string {
	return []string{
		t.C("id"), t.C("sequence"), t.C("timestamp"), t.C("provider"), t.C("model"), t.C("purpose"),
		t.C("input_tokens"), t.C("output_tokens"), t.C("latency_ms"), t.C("success"),
		t.C("error_message"), t.C("request_body"), t.C("response_body"),
	}
}

func scanLLM(sc interface{ Scan(...any) error }) (LLMRequestEventRecord, error) {
	var rec LLMRequestEventRecord
	err := sc.Scan(&rec.ID, &rec.Sequence, &rec.Timestamp, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody)
	return rec, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	t := entsql.Table(tableLLM)
	sel := builder().Select(llmColumns(t)...).From(t).OrderBy(entsql.Desc(t.C("sequence")))
	applyQueryOpts(sel, t, opts)

	q, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var records []LLMRequestEventRecord
	for rows.Next() {
		rec, err := scanLLM(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	t := entsql.Table(tableLLM)
	q, args := builder().Select(llmColumns(t)...).From(t).Where(entsql.EQ(t.C("id"), id)).Query()

	rec, err := scanLLM(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LLM event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return &rec, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error) {
	events, err := r.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		return nil, err
	}

	byPurpose := make(map[string]*LLMUsageStats)
	latency := make(map[string]int64)
	for _, e := range events {
		st, ok := byPurpose[e.Purpose]
		if !ok {
			st = &LLMUsageStats{Purpose: e.Purpose}
			byPurpose[e.Purpose] = st
		}
		st.Requests++
		if !e.Success {
			st.Failures++
		}
		st.InputTokens += e.InputTokens
		st.OutputTokens += e.OutputTokens
		latency[e.Purpose] += e.LatencyMs
	}

	out := make([]LLMUsageStats, 0, len(byPurpose))
	for p, st := range byPurpose {
		st.AvgLatencyMs = latency[p] / int64(st.Requests)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out, nil
}

func (r *eventRepo) Reset(ctx context.Context, learnerID string) error {
	for _, table := range []string{tableProgression, tableXP} {
		q, args := builder().Delete(table).Where(entsql.EQ("learner_id", learnerID)).Query()
		if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
