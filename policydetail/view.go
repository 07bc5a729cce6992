/*
Package policydetail builds the nested policy view shown on the policy
detail screen.

PURPOSE:
  Denormalizes one producer, its insurance in force records and their
  acreage rows into Policy -> County -> Grid -> Interval. Assembly is pure
  and never fails; Finalize then numbers the nodes and attaches reference
  names through a Lookup.

PIPELINE:
  1. Assemble(producer, insurance, acreage)   flat records -> nested view
  2. Finalize(ctx, policy, lookup)            ids, names, premium totals

ABSENT VALUES:
  Grid quantities that come from "first non-blank row" searches are
  *string and stay nil when no row qualifies. Premium arithmetic treats
  malformed numbers as absent: the producer premium becomes "" and the
  grid total skips the interval.

SEE ALSO:
  - assemble.go: Record grouping and grid rules
  - strategies.go: Haying practice resolution order
  - finalize.go: Post-processing pass
  - practice/: Practice code table
*/
package policydetail

// Policy is the root of the view.
type Policy struct {
	ID                int      `json:"id"`
	InsuredName       string   `json:"insured_name"`
	ReinsuranceYear   string   `json:"reinsurance_year"`
	AIPCode           string   `json:"aip_code"`
	ProducerKey       string   `json:"aip_policy_producer_key"`
	AgentKey          string   `json:"aip_insurance_agent_key"`
	PolicyNumber      string   `json:"policy_number"`
	StateCode         string   `json:"state_code"`
	StateAbbreviation string   `json:"state_abbreviation"`
	Counties          []County `json:"policy_counties"`
}

// County is one insurance in force record (commodity in a county).
type County struct {
	ID            int    `json:"id"`
	InsuranceKey  string `json:"aip_insurance_in_force_key"`
	CommodityCode string `json:"commodity_code"`
	CommodityName string `json:"commodity_name"`
	CountyCode    string `json:"county_code"`
	CountyName    string `json:"county_name"`
	Grids         []Grid `json:"policy_grids"`
}

// Grid is a sub-county allocation within a county.
type Grid struct {
	ID                         int        `json:"id"`
	SubCountyCode              string     `json:"sub_county_code"`
	IntendedUse                string     `json:"intended_use"`
	IrrigationPractice         string     `json:"irrigation_practice"`
	OrganicPractice            string     `json:"organic_practice"`
	SharePercent               *string    `json:"share_percent"`
	TotalInsurableAcreage      *string    `json:"total_insurable_acreage"`
	TotalInsurableColonies     *string    `json:"total_insurable_colonies"`
	TotalInsuredAcreage        *string    `json:"total_insured_acreage"`
	TotalInsuredColonies       *string    `json:"total_insured_colonies"`
	CoverageLevelPercent       string     `json:"coverage_level_percent"`
	ProductivityFactor         string     `json:"productivity_factor"`
	TotalProducerPremiumAmount string     `json:"total_producer_premium_amount"`
	Intervals                  []Interval `json:"policy_intervals"`
}

// Interval is one insured acreage row of a grid.
type Interval struct {
	ID                    int    `json:"id"`
	AcreageKey            string `json:"aip_acreage_key"`
	IntervalCode          string `json:"interval_code"`
	IntervalName          string `json:"interval_name"`
	PercentOfInterval     string `json:"percent_of_interval"`
	TotalCoverage         string `json:"total_coverage"`
	TotalPremiumAmount    string `json:"total_premium_amount"`
	SubsidyAmount         string `json:"subsidy_amount"`
	ProducerPremiumAmount string `json:"producer_premium_amount"`
}

// GridCount returns the number of grids across all counties.
func (p *Policy) GridCount() int {
	n := 0
	for _, c := range p.Counties {
		n += len(c.Grids)
	}
	return n
}

// Value dereferences an optional quantity, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
