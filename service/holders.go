package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/wsr/cims/cims"
)

// Filters are the listing filters of a request. Keys match case-insensitively.
type Filters map[string]string

// Get returns the value of key, matching case-insensitively.
func (f Filters) Get(key string) string {
	if v, ok := f[key]; ok {
		return v
	}
	for k, v := range f {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// AgentEmailFilter narrows policy holders to one agency e-mail.
const AgentEmailFilter = "AgentEmail"

// PolicyHolders is a page of producers and their addresses.
type PolicyHolders struct {
	Producers []cims.Producer        `json:"policy_producers"`
	Addresses []cims.ProducerAddress `json:"policy_producer_addresses"`
}

// GetPolicyHolders returns the authorized producers, newest year first.
func (s *Service) GetPolicyHolders(ctx context.Context, skip, take int, filters Filters) (*PolicyHolders, error) {
	keys, err := s.authorizedKeys(ctx, filters.Get(AgentEmailFilter))
	if err != nil {
		return nil, err
	}

	producers, err := s.store.ListProducers(ctx, keys, skip, take)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy holders: %w", err)
	}

	pageKeys := make([]string, len(producers))
	for i, p := range producers {
		pageKeys[i] = p.ProducerKey
	}
	addresses, err := s.store.ListProducerAddresses(ctx, cims.Distinct(pageKeys))
	if err != nil {
		return nil, fmt.Errorf("failed to list policy holder addresses: %w", err)
	}

	return &PolicyHolders{Producers: producers, Addresses: addresses}, nil
}

// PolicyHolder is one producer for one year with its related records.
// Records that do not exist are returned empty.
type PolicyHolder struct {
	Producer     cims.Producer        `json:"policy_producer"`
	Address      cims.ProducerAddress `json:"policy_producer_address"`
	OtherPersons []cims.OtherPerson   `json:"policy_producer_other_persons"`
}

// GetPolicyHolder returns the first producer among the comma separated keys
// for the year.
func (s *Service) GetPolicyHolder(ctx context.Context, producerKeys, year string) (*PolicyHolder, error) {
	keys := cims.SplitList(producerKeys)
	if len(keys) == 0 {
		return nil, &cims.FieldError{Field: "aip_policy_producer_keys", Reason: "required"}
	}
	if cims.IsBlank(year) {
		return nil, &cims.FieldError{Field: "year", Reason: "required"}
	}

	holder := &PolicyHolder{OtherPersons: []cims.OtherPerson{}}

	producer, err := s.store.FindProducer(ctx, keys, year)
	if err != nil {
		return nil, fmt.Errorf("failed to find policy holder: %w", err)
	}
	if producer == nil {
		return holder, nil
	}
	if err := s.authorize(ctx, producer.ProducerKey); err != nil {
		return nil, err
	}
	holder.Producer = *producer

	address, err := s.store.GetProducerAddress(ctx, producer.ProducerKey, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get policy holder address: %w", err)
	}
	if address != nil {
		holder.Address = *address
	}

	others, err := s.store.ListOtherPersons(ctx, producer.ProducerKey, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list other persons: %w", err)
	}
	holder.OtherPersons = others
	return holder, nil
}
