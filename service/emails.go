package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wsr/cims/access"
	"github.com/wsr/cims/cims"
	"go.uber.org/zap"
)

// EmailEntry is one producer e-mail in a request or response.
// ID 0 marks a new address.
type EmailEntry struct {
	ID           int64  `json:"id"`
	EmailAddress string `json:"email_address"`
}

// EmailRequest replaces the e-mail list of a producer.
type EmailRequest struct {
	ProducerKey    string       `json:"policy_producer_key"`
	EmailAddresses []EmailEntry `json:"email_addresses"`
}

// EmailResponse is the producer's e-mail list after an update.
type EmailResponse struct {
	ProducerKey string       `json:"policy_producer_key"`
	Emails      []EmailEntry `json:"email"`
}

// UpsertPolicyProducerEmail makes the stored e-mails of a producer match the
// request: entries with ID 0 are inserted, known IDs are updated and stored
// addresses missing from the request are deleted. Addresses are stored upper
// case with the caller recorded as the audit user. The change set is
// applied atomically.
func (s *Service) UpsertPolicyProducerEmail(ctx context.Context, req EmailRequest) (*EmailResponse, error) {
	key := strings.TrimSpace(req.ProducerKey)
	if key == "" {
		return nil, &cims.FieldError{Field: "policy_producer_key", Reason: "required"}
	}
	for _, e := range req.EmailAddresses {
		if cims.IsBlank(e.EmailAddress) {
			return nil, &cims.FieldError{Field: "email_address", Reason: "must not be blank"}
		}
	}
	if err := s.authorize(ctx, key); err != nil {
		return nil, err
	}

	existing, err := s.store.ListProducerEmails(ctx, []string{key})
	if err != nil {
		return nil, fmt.Errorf("failed to list producer emails: %w", err)
	}

	changes := diffEmails(key, existing, req.EmailAddresses)
	changes.Actor = access.FromContext(ctx).Email

	if err := s.store.ApplyEmailChanges(ctx, changes); err != nil {
		return nil, fmt.Errorf("failed to save producer emails: %w", err)
	}
	s.metrics.RecordEmailChanges(len(changes.Insert), len(changes.Update), len(changes.Delete))
	s.logger.Info("producer emails updated",
		zap.String("producer_key", key),
		zap.String("actor", changes.Actor),
		zap.Int("inserted", len(changes.Insert)),
		zap.Int("updated", len(changes.Update)),
		zap.Int("deleted", len(changes.Delete)))

	stored, err := s.store.ListProducerEmails(ctx, []string{key})
	if err != nil {
		return nil, fmt.Errorf("failed to list producer emails: %w", err)
	}
	resp := &EmailResponse{ProducerKey: key, Emails: make([]EmailEntry, len(stored))}
	for i, e := range stored {
		resp.Emails[i] = EmailEntry{ID: e.ID, EmailAddress: e.EmailAddress}
	}
	return resp, nil
}

// diffEmails computes the change set turning existing into requested.
// Updates naming unknown ids are kept so the store rejects them.
func diffEmails(key string, existing []cims.ProducerEmail, requested []EmailEntry) cims.EmailChanges {
	changes := cims.EmailChanges{ProducerKey: key}
	kept := make(map[int64]bool)

	for _, e := range requested {
		address := strings.ToUpper(strings.TrimSpace(e.EmailAddress))
		if e.ID == 0 {
			changes.Insert = append(changes.Insert, cims.ProducerEmail{ProducerKey: key, EmailAddress: address})
			continue
		}
		kept[e.ID] = true
		changes.Update = append(changes.Update, cims.ProducerEmail{ID: e.ID, ProducerKey: key, EmailAddress: address})
	}

	for _, e := range existing {
		if !kept[e.ID] {
			changes.Delete = append(changes.Delete, e.ID)
		}
	}
	return changes
}

// GetPolicyProducerEmails returns the stored e-mails of the requested
// producers the caller may see.
func (s *Service) GetPolicyProducerEmails(ctx context.Context, producerKeys []string) ([]cims.ProducerEmail, error) {
	keys, err := s.restrict(ctx, producerKeys)
	if err != nil {
		return nil, err
	}
	emails, err := s.store.ListProducerEmails(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to list producer emails: %w", err)
	}
	return emails, nil
}
