package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
)

// PgxJournalRepository implements portsrepo.JournalRepositoryFacade. Entries
// are insert-only; a trigger rejects updates and deletes.
type PgxJournalRepository struct {
	BaseRepository
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `e.entry_id, e.sequence, e.idempotency_key, e.fingerprint, e.posting_date, e.description,
	e.classification_tag, e.base_currency, e.reverses_entry_id,
	e.created_at, e.created_by, e.last_updated_at, e.last_updated_by`

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID, &m.Sequence, &m.IdempotencyKey, &m.Fingerprint, &m.PostingDate, &m.Description,
		&m.ClassificationTag, &m.BaseCurrency, &m.ReversesEntryID,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveEntry inserts the header and its lines in one batch.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m, lines := mapping.ToModelJournalEntry(entry)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO journal_entries (
			entry_id, sequence, idempotency_key, fingerprint, posting_date, description,
			classification_tag, base_currency, reverses_entry_id,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.EntryID, m.Sequence, m.IdempotencyKey, m.Fingerprint, m.PostingDate, m.Description,
		m.ClassificationTag, m.BaseCurrency, m.ReversesEntryID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO journal_lines (
				entry_id, line_no, account_code, direction, amount, currency_code,
				base_amount, exchange_rate_id, is_rounding
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			l.EntryID, l.LineNo, l.AccountCode, l.Direction, l.Amount, l.CurrencyCode,
			l.BaseAmount, l.ExchangeRateID, l.IsRounding,
		)
	}
	// Close the batch results to surface the error of any queued command
	if err := r.q.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, "failed to save journal entry "+m.EntryID)
	}
	return nil
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, what, where string, arg any) (*domain.JournalEntry, error) {
	m, err := scanEntry(r.q.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries e WHERE `+where, arg))
	if err != nil {
		return nil, mapPgError(err, what)
	}
	lines, err := r.loadLines(ctx, []string{m.EntryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m, lines[m.EntryID])
	return &entry, nil
}

func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, "journal entry "+entryID, "e.entry_id = $1", entryID)
}

func (r *PgxJournalRepository) FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, "idempotency key "+key, "e.idempotency_key = $1", key)
}

func (r *PgxJournalRepository) FindReversalOf(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, "reversal of "+entryID, "e.reverses_entry_id = $1", entryID)
}

func (r *PgxJournalRepository) loadLines(ctx context.Context, entryIDs []string) (map[string][]models.JournalLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT entry_id, line_no, account_code, direction, amount, currency_code,
		       base_amount, exchange_rate_id, is_rounding
		FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no`, entryIDs)
	if err != nil {
		return nil, mapPgError(err, "failed to query journal lines")
	}
	defer rows.Close()

	out := make(map[string][]models.JournalLine, len(entryIDs))
	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(&l.EntryID, &l.LineNo, &l.AccountCode, &l.Direction, &l.Amount, &l.CurrencyCode,
			&l.BaseAmount, &l.ExchangeRateID, &l.IsRounding); err != nil {
			return nil, mapPgError(err, "failed to scan journal line")
		}
		out[l.EntryID] = append(out[l.EntryID], l)
	}
	return out, mapPgError(rows.Err(), "failed to iterate journal lines")
}

// ListEntries returns entries in sequence order after filter.AfterSequence.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.JournalEntry, error) {
	conds := []string{"e.sequence > $1"}
	args := []any{filter.AfterSequence}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		conds = append(conds, fmt.Sprintf("e.posting_date >= $%d", len(args)))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		conds = append(conds, fmt.Sprintf("e.posting_date <= $%d", len(args)))
	}
	if filter.AccountCode != "" {
		args = append(args, filter.AccountCode)
		conds = append(conds, fmt.Sprintf("EXISTS (SELECT 1 FROM journal_lines l WHERE l.entry_id = e.entry_id AND l.account_code = $%d)", len(args)))
	}
	query := `SELECT ` + entryColumns + ` FROM journal_entries e WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY e.sequence`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "failed to list journal entries")
	}
	var headers []models.JournalEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, mapPgError(err, "failed to scan journal entry")
		}
		headers = append(headers, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "failed to iterate journal entries")
	}

	entries := make([]domain.JournalEntry, 0, len(headers))
	if len(headers) == 0 {
		return entries, nil
	}
	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, h := range headers {
		entries = append(entries, mapping.ToDomainJournalEntry(h, lines[h.EntryID]))
	}
	return entries, nil
}

// SumLines aggregates line amounts per account in SQL.
func (r *PgxJournalRepository) SumLines(ctx context.Context, filter domain.LineFilter) ([]domain.AccountActivity, error) {
	conds := []string{"TRUE"}
	var args []any
	if len(filter.AccountCodes) > 0 {
		args = append(args, filter.AccountCodes)
		conds = append(conds, fmt.Sprintf("l.account_code = ANY($%d)", len(args)))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		conds = append(conds, fmt.Sprintf("e.posting_date >= $%d", len(args)))
	}
	if filter.ToDate != nil {
		args = append(args, *filter.ToDate)
		conds = append(conds, fmt.Sprintf("e.posting_date <= $%d", len(args)))
	}
	if filter.MaxSequence > 0 {
		args = append(args, filter.MaxSequence)
		conds = append(conds, fmt.Sprintf("e.sequence <= $%d", len(args)))
	}

	rows, err := r.q.Query(ctx, `
		SELECT l.account_code,
		       MIN(l.currency_code),
		       COALESCE(SUM(CASE WHEN l.direction = 'DEBIT' THEN l.amount END), 0)::BIGINT,
		       COALESCE(SUM(CASE WHEN l.direction = 'CREDIT' THEN l.amount END), 0)::BIGINT,
		       COALESCE(SUM(CASE WHEN l.direction = 'DEBIT' THEN l.base_amount END), 0)::BIGINT,
		       COALESCE(SUM(CASE WHEN l.direction = 'CREDIT' THEN l.base_amount END), 0)::BIGINT,
		       COUNT(*)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE `+strings.Join(conds, " AND ")+`
		GROUP BY l.account_code
		ORDER BY l.account_code`, args...)
	if err != nil {
		return nil, mapPgError(err, "failed to sum journal lines")
	}
	defer rows.Close()

	out := make([]domain.AccountActivity, 0)
	for rows.Next() {
		var a domain.AccountActivity
		if err := rows.Scan(&a.AccountCode, &a.CurrencyCode, &a.Debit, &a.Credit, &a.BaseDebit, &a.BaseCredit, &a.LineCount); err != nil {
			return nil, mapPgError(err, "failed to scan line totals")
		}
		out = append(out, a)
	}
	return out, mapPgError(rows.Err(), "failed to iterate line totals")
}

func (r *PgxJournalRepository) LastSequence(ctx context.Context) (int64, error) {
	var last int64
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(sequence), 0) FROM journal_entries`).Scan(&last); err != nil {
		return 0, mapPgError(err, "failed to read last sequence")
	}
	return last, nil
}
