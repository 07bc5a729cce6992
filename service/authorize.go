package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wsr/cims/access"
	"github.com/wsr/cims/cims"
	"go.uber.org/zap"
)

// scope maps the caller and an optional agent e-mail filter to the store
// access scope. ok is false when the caller can see nothing.
func (s *Service) scope(client access.Client, agentEmail string) (cims.AccessScope, bool) {
	agentEmail = strings.TrimSpace(agentEmail)
	sc := cims.AccessScope{Commodities: s.commodities}

	if client.IsAdmin {
		sc.AgencyEmail = agentEmail
		return sc, true
	}

	if cims.IsBlank(client.Email) {
		return sc, false
	}
	if agentEmail != "" && !strings.EqualFold(agentEmail, client.Email) {
		return sc, false
	}
	sc.AgencyEmail = client.Email
	return sc, true
}

// authorizedKeys returns the producer keys the caller may see.
func (s *Service) authorizedKeys(ctx context.Context, agentEmail string) ([]string, error) {
	client := access.FromContext(ctx)
	sc, ok := s.scope(client, agentEmail)
	if !ok {
		s.logger.Debug("caller has no producer scope",
			zap.String("email", client.Email),
			zap.String("agent_email", agentEmail))
		return []string{}, nil
	}

	keys, err := s.store.AuthorizedProducerKeys(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve authorized producers: %w", err)
	}
	return keys, nil
}

// authorize returns cims.ErrForbidden unless the caller may see producerKey.
func (s *Service) authorize(ctx context.Context, producerKey string) error {
	keys, err := s.authorizedKeys(ctx, "")
	if err != nil {
		return err
	}
	if !containsFold(keys, producerKey) {
		return fmt.Errorf("producer %s: %w", producerKey, cims.ErrForbidden)
	}
	return nil
}

// restrict keeps the requested keys the caller may see, in request order.
func (s *Service) restrict(ctx context.Context, requested []string) ([]string, error) {
	keys, err := s.authorizedKeys(ctx, "")
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, k := range cims.Distinct(requested) {
		if containsFold(keys, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}
