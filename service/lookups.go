package service

import (
	"context"
	"fmt"

	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/policydetail"
)

// =============================================================================
// REFERENCE LOOKUPS
// =============================================================================

func (s *Service) GetStateDetails(ctx context.Context, codes []string) ([]cims.State, error) {
	states, err := s.store.States(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to get states: %w", err)
	}
	return states, nil
}

// GetCountyDetails returns counties by state and county codes.
func (s *Service) GetCountyDetails(ctx context.Context, refs []cims.CountyRef) ([]cims.County, error) {
	counties, err := s.store.Counties(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get counties: %w", err)
	}
	return counties, nil
}

func (s *Service) GetAgentDetails(ctx context.Context, refs []cims.AgentRef) ([]cims.Agent, error) {
	agents, err := s.store.Agents(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("failed to get agents: %w", err)
	}
	return agents, nil
}

// GetCommodityDetails returns commodities from the reference year table.
func (s *Service) GetCommodityDetails(ctx context.Context, codes []string) ([]cims.Commodity, error) {
	commodities, err := s.store.Commodities(ctx, codes, s.year)
	if err != nil {
		return nil, fmt.Errorf("failed to get commodities: %w", err)
	}
	return commodities, nil
}

func (s *Service) GetTypeDetails(ctx context.Context) ([]cims.TypeValue, error) {
	values, err := s.store.TypeValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get type values: %w", err)
	}
	return values, nil
}

// =============================================================================
// POLICY DETAIL NAMES
// =============================================================================

// referenceLookup resolves policy detail names from the store, memoizing
// per policy since counties of one policy repeat commodities.
type referenceLookup struct {
	store cims.ReferenceStore
	year  string
	cache map[string]string
}

var _ policydetail.Lookup = (*referenceLookup)(nil)

func (s *Service) lookup() *referenceLookup {
	return &referenceLookup{store: s.store, year: s.year, cache: make(map[string]string)}
}

func (l *referenceLookup) cached(key string, load func() (string, error)) (string, error) {
	if v, ok := l.cache[key]; ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return "", err
	}
	l.cache[key] = v
	return v, nil
}

func (l *referenceLookup) StateAbbreviation(ctx context.Context, code string) (string, error) {
	return l.cached("state:"+code, func() (string, error) {
		states, err := l.store.States(ctx, []string{code})
		if err != nil || len(states) == 0 {
			return "", err
		}
		return states[0].Abbreviation, nil
	})
}

func (l *referenceLookup) CommodityName(ctx context.Context, code string) (string, error) {
	return l.cached("commodity:"+code, func() (string, error) {
		commodities, err := l.store.Commodities(ctx, []string{code}, l.year)
		if err != nil || len(commodities) == 0 {
			return "", err
		}
		return commodities[0].CommodityName, nil
	})
}

func (l *referenceLookup) CountyName(ctx context.Context, state, county string) (string, error) {
	return l.cached("county:"+state+":"+county, func() (string, error) {
		counties, err := l.store.Counties(ctx, []cims.CountyRef{{StateCode: state, CountyCodes: []string{county}}})
		if err != nil || len(counties) == 0 {
			return "", err
		}
		return counties[0].Name, nil
	})
}
