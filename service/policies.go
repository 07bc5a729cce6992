package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/policydetail"
	"go.uber.org/zap"
)

// Name filters of the policy listing. Other filter keys name producer or
// insurance columns (cims.ProducerFields, cims.InsuranceFields) and take
// comma separated values.
const (
	InsuredNameFilter = "InsuredName"
	StateNameFilter   = "StateName"
	CountyNameFilter  = "CountyName"
	AgentNameFilter   = "AgentName"
)

// PolicyPage is one page of the policy listing with the total group count.
type PolicyPage struct {
	Count    int                  `json:"count"`
	Policies []cims.PolicySummary `json:"policies"`
}

// =============================================================================
// POLICY LISTING
// =============================================================================

// GetPolicies lists the authorized policies holding an eligible commodity.
// Producer/insurance rows are grouped per policy, agent and commodity; the
// counties and insurance keys of a group are comma joined. take <= 0
// returns every group from skip on.
func (s *Service) GetPolicies(ctx context.Context, skip, take int, filters Filters) (*PolicyPage, error) {
	keys, err := s.authorizedKeys(ctx, "")
	if err != nil {
		return nil, err
	}

	q, err := s.policyQuery(ctx, keys, filters)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.ListPolicyRows(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	groups := groupPolicies(rows)
	page := &PolicyPage{Count: len(groups), Policies: pageOf(groups, skip, take)}
	return page, nil
}

// policyQuery translates request filters into a store query.
func (s *Service) policyQuery(ctx context.Context, keys []string, filters Filters) (cims.PolicyRowQuery, error) {
	q := cims.PolicyRowQuery{ProducerKeys: keys, Commodities: s.commodities}

	// Fields shared by both records filter the producer side only; the
	// join on producer key and year carries them across.
	shared := make(map[cims.Field]bool)
	for _, f := range cims.ProducerFields {
		if v := filters.Get(string(f)); !cims.IsBlank(v) {
			q.ProducerConditions = append(q.ProducerConditions, cims.Condition{Field: f, Values: cims.SplitList(v)})
		}
		shared[f] = true
	}
	for _, f := range cims.InsuranceFields {
		if shared[f] {
			continue
		}
		if v := filters.Get(string(f)); !cims.IsBlank(v) {
			q.InsuranceConditions = append(q.InsuranceConditions, cims.Condition{Field: f, Values: cims.SplitList(v)})
		}
	}

	if v := strings.TrimSpace(filters.Get(InsuredNameFilter)); v != "" {
		q.ProducerPrefixes = append(q.ProducerPrefixes, cims.PrefixCondition{
			Fields: []cims.Field{cims.FieldBusinessName, cims.FieldFirstName},
			Prefix: v,
		})
	}

	if v := strings.TrimSpace(filters.Get(StateNameFilter)); v != "" {
		codes, err := s.store.StateCodesByName(ctx, v)
		if err != nil {
			return q, fmt.Errorf("failed to resolve state name: %w", err)
		}
		q.ProducerConditions = append(q.ProducerConditions, cims.Condition{Field: cims.FieldLocationStateCode, Values: codes})
	}

	if v := strings.TrimSpace(filters.Get(CountyNameFilter)); v != "" {
		counties, err := s.store.CountiesByName(ctx, v)
		if err != nil {
			return q, fmt.Errorf("failed to resolve county name: %w", err)
		}
		var states, codes []string
		for _, c := range counties {
			states = append(states, c.StateCode)
			codes = append(codes, c.Code)
		}
		q.ProducerConditions = append(q.ProducerConditions, cims.Condition{Field: cims.FieldLocationStateCode, Values: cims.Distinct(states)})
		q.InsuranceConditions = append(q.InsuranceConditions, cims.Condition{Field: cims.FieldLocationCountyCode, Values: cims.Distinct(codes)})
	}

	if v := strings.TrimSpace(filters.Get(AgentNameFilter)); v != "" {
		agentKeys, err := s.store.AgentKeysByName(ctx, v)
		if err != nil {
			return q, fmt.Errorf("failed to resolve agent name: %w", err)
		}
		q.InsuranceConditions = append(q.InsuranceConditions, cims.Condition{Field: cims.FieldAgentKey, Values: agentKeys})
	}

	return q, nil
}

type policyGroupKey struct {
	year, policy, aip, business, first, last, state, agent, commodity string
}

type policyGroup struct {
	summary   cims.PolicySummary
	counties  []string
	insurance []string
}

// groupPolicies groups rows in first appearance order, then orders the
// groups by reinsurance year, newest first.
func groupPolicies(rows []cims.PolicyRow) []cims.PolicySummary {
	index := make(map[policyGroupKey]*policyGroup)
	var order []*policyGroup

	for _, r := range rows {
		p, i := r.Producer, r.Insurance
		k := policyGroupKey{
			p.ReinsuranceYear, p.PolicyNumber, p.AIPCode, p.BusinessName, p.FirstName,
			p.LastName, p.LocationStateCode, i.AgentKey, i.CommodityCode,
		}
		g, ok := index[k]
		if !ok {
			g = &policyGroup{summary: cims.PolicySummary{
				ReinsuranceYear:   p.ReinsuranceYear,
				PolicyNumber:      p.PolicyNumber,
				AIPCode:           p.AIPCode,
				InsuredName:       p.InsuredName(),
				LocationStateCode: p.LocationStateCode,
				AgentKey:          i.AgentKey,
				CommodityCode:     i.CommodityCode,
			}}
			index[k] = g
			order = append(order, g)
		}
		g.counties = append(g.counties, i.LocationCountyCode)
		g.insurance = append(g.insurance, i.InsuranceKey)
	}

	out := make([]cims.PolicySummary, len(order))
	for n, g := range order {
		g.summary.LocationCountyCode = strings.Join(cims.Distinct(g.counties), ",")
		g.summary.InsuranceKeys = strings.Join(cims.Distinct(g.insurance), ",")
		out[n] = g.summary
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].ReinsuranceYear > out[b].ReinsuranceYear
	})
	return out
}

func pageOf(all []cims.PolicySummary, skip, take int) []cims.PolicySummary {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) {
		return []cims.PolicySummary{}
	}
	end := len(all)
	if take > 0 && skip+take < end {
		end = skip + take
	}
	return all[skip:end]
}

// =============================================================================
// POLICY DETAIL
// =============================================================================

// GetPolicy assembles the finalized policy view of the insurance records for
// the reinsurance year. The producer of the first record must be authorized;
// records of any other producer are left out of the view.
func (s *Service) GetPolicy(ctx context.Context, insuranceKeys []string, year string) (*policydetail.Policy, error) {
	keys := cims.Distinct(insuranceKeys)
	if len(keys) == 0 {
		return nil, &cims.FieldError{Field: "aip_insurance_in_force_keys", Reason: "required"}
	}
	if cims.IsBlank(year) {
		return nil, &cims.FieldError{Field: "reinsurance_year", Reason: "required"}
	}

	insurance, err := s.store.ListInsurance(ctx, keys, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load insurance: %w", err)
	}
	if len(insurance) == 0 {
		return nil, fmt.Errorf("keys %s, year %s: %w", strings.Join(keys, ","), year, cims.ErrInsuranceNotFound)
	}

	producerKey := insurance[0].ProducerKey
	if err := s.authorize(ctx, producerKey); err != nil {
		return nil, err
	}

	// The view covers one producer; records of other producers are dropped.
	owned := make([]cims.InsuranceInForce, 0, len(insurance))
	keys = make([]string, 0, len(insurance))
	for _, ins := range insurance {
		if !strings.EqualFold(ins.ProducerKey, producerKey) {
			s.logger.Debug("dropping insurance of another producer",
				zap.String("insurance_key", ins.InsuranceKey),
				zap.String("producer_key", ins.ProducerKey))
			continue
		}
		owned = append(owned, ins)
		keys = append(keys, ins.InsuranceKey)
	}
	insurance = owned

	producer, err := s.store.FindProducer(ctx, []string{producerKey}, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load producer: %w", err)
	}
	if producer == nil {
		producer = &cims.Producer{}
	}

	acreage, err := s.store.ListAcreage(ctx, keys, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load acreage: %w", err)
	}

	policy := policydetail.Assemble(*producer, insurance, acreage)
	if err := policydetail.Finalize(ctx, policy, s.lookup()); err != nil {
		return nil, err
	}

	s.metrics.RecordPolicy(policy.GridCount())
	s.logger.Debug("policy assembled",
		zap.String("producer_key", producerKey),
		zap.String("year", year),
		zap.Int("counties", len(policy.Counties)),
		zap.Int("grids", policy.GridCount()))
	return policy, nil
}

// =============================================================================
// PRODUCER COMMODITIES
// =============================================================================

// GetPolicyProducerCommodities returns the commodity abbreviations held by
// the requested producers the caller may see.
func (s *Service) GetPolicyProducerCommodities(ctx context.Context, producerKeys []string) ([]cims.ProducerCommodity, error) {
	keys, err := s.restrict(ctx, producerKeys)
	if err != nil {
		return nil, err
	}
	pcs, err := s.store.ListProducerCommodities(ctx, keys, s.year)
	if err != nil {
		return nil, fmt.Errorf("failed to list producer commodities: %w", err)
	}
	return pcs, nil
}
