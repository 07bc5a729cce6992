package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/wsr/cims/cims"
)

// =============================================================================
// EMAIL STORE (cims.EmailStore interface)
// =============================================================================

// ListProducerEmails returns the e-mails of the given producers.
func (s *Store) ListProducerEmails(ctx context.Context, producerKeys []string) ([]cims.ProducerEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("producer_key", producerKeys)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, producer_key, email_address, created_by, last_updated_by
		FROM producer_emails
		WHERE `+clause+`
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query producer emails: %w", err)
	}
	defer rows.Close()

	emails := []cims.ProducerEmail{}
	for rows.Next() {
		var e cims.ProducerEmail
		if err := rows.Scan(&e.ID, &e.ProducerKey, &e.EmailAddress, &e.CreatedBy, &e.LastUpdatedBy); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// ApplyEmailChanges writes inserts, updates and deletes in one transaction.
// Updates and deletes only touch rows of the change set's producer.
func (s *Store) ApplyEmailChanges(ctx context.Context, changes cims.EmailChanges) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, e := range changes.Insert {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO producer_emails (producer_key, email_address, created_by, created_at)
			VALUES (?, ?, ?, ?)`,
			changes.ProducerKey, e.EmailAddress, changes.Actor, now,
		); err != nil {
			return fmt.Errorf("failed to insert producer email: %w", err)
		}
	}

	for _, e := range changes.Update {
		res, err := sqlTx.ExecContext(ctx, `
			UPDATE producer_emails
			SET email_address = ?, last_updated_by = ?, updated_at = ?
			WHERE id = ? AND producer_key = ?`,
			e.EmailAddress, changes.Actor, now, e.ID, changes.ProducerKey,
		)
		if err != nil {
			return fmt.Errorf("failed to update producer email: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("email %d: %w", e.ID, cims.ErrEmailNotFound)
		}
	}

	for _, id := range changes.Delete {
		if _, err := sqlTx.ExecContext(ctx,
			"DELETE FROM producer_emails WHERE id = ? AND producer_key = ?",
			id, changes.ProducerKey,
		); err != nil {
			return fmt.Errorf("failed to delete producer email: %w", err)
		}
	}

	return sqlTx.Commit()
}
