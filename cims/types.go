/*
Package cims defines the record types, store contracts and errors shared by the
policy data service.

PURPOSE:
  The records mirror the M13 data exchange files an AIP (Approved Insurance
  Provider) submits for each reinsurance year, plus the USDA reference tables
  used to turn codes into names. Every value stays text encoded exactly as it
  was received; numeric interpretation happens at the point of use through
  the helpers in text.go.

KEY TYPES:
  Producer:          M13 P10 policy producer (one per policy and year)
  InsuranceInForce:  M13 P14 commodity/county coverage for a producer
  Acreage:           M13 P11 sub-county (grid) allocation rows
  AgencyContact:     M13 P55A agent agency e-mail contacts
  State/County/Commodity/TypeValue: reference tables

RELATIONSHIPS:
  Producer 1--* InsuranceInForce   (producer key + reinsurance year)
  InsuranceInForce 1--* Acreage    (insurance key)
  InsuranceInForce *--1 Agent      (agent key)

SEE ALSO:
  - store.go: Storage contracts over these records
  - errors.go: Sentinel errors
  - policydetail/: Nested policy view built from these records
*/
package cims

// =============================================================================
// POLICY RECORDS
// =============================================================================

// Producer is an insured party for one reinsurance year.
type Producer struct {
	ProducerKey       string `json:"aip_policy_producer_key"`
	ReinsuranceYear   string `json:"reinsurance_year"`
	AIPCode           string `json:"aip_code"`
	PolicyNumber      string `json:"policy_number"`
	BusinessName      string `json:"business_name"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	LocationStateCode string `json:"location_state_code"`
}

// InsuredName is the display name used on policy headers and listings.
// Business and personal names are concatenated as received; only the
// surrounding whitespace is dropped.
func (p Producer) InsuredName() string {
	return InsuredName(p.BusinessName, p.FirstName, p.LastName)
}

// ProducerAddress is the mailing address of a producer.
type ProducerAddress struct {
	ProducerKey     string `json:"aip_policy_producer_key"`
	ReinsuranceYear string `json:"reinsurance_year"`
	AddressLine1    string `json:"address_line_1"`
	AddressLine2    string `json:"address_line_2"`
	City            string `json:"city"`
	StateAbbrev     string `json:"state_abbreviation"`
	PostalCode      string `json:"postal_code"`
	PhoneNumber     string `json:"phone_number"`
}

// OtherPerson is an additional person with an interest in a policy
// (spouse, power of attorney, ...).
type OtherPerson struct {
	ProducerKey     string `json:"aip_policy_producer_key"`
	ReinsuranceYear string `json:"reinsurance_year"`
	PersonType      string `json:"person_type"`
	BusinessName    string `json:"business_name"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// InsuranceInForce is one commodity/county coverage record of a producer.
type InsuranceInForce struct {
	InsuranceKey         string `json:"aip_insurance_in_force_key"`
	ProducerKey          string `json:"aip_policy_producer_key"`
	ReinsuranceYear      string `json:"reinsurance_year"`
	CommodityCode        string `json:"commodity_code"`
	LocationCountyCode   string `json:"location_county_code"`
	AgentKey             string `json:"aip_insurance_agent_key"`
	TypeCode             string `json:"type_code"`
	IntendedUseCode      string `json:"intended_use_code"`
	CoverageLevelPercent string `json:"coverage_level_percent"`
	PriceElectionPercent string `json:"price_election_percent"`
}

// IntendedUse is the type code when present, otherwise the intended use code.
func (i InsuranceInForce) IntendedUse() string {
	if !IsBlank(i.TypeCode) {
		return i.TypeCode
	}
	return i.IntendedUseCode
}

// Acreage is a sub-county allocation row of an insurance record.
// Numeric values are text encoded and may be empty or malformed.
type Acreage struct {
	AcreageKey             string `json:"aip_acreage_key"`
	InsuranceKey           string `json:"aip_insurance_in_force_key"`
	ReinsuranceYear        string `json:"reinsurance_year"`
	SubCountyCode          string `json:"sub_county_code"`
	PracticeCode           string `json:"practice_code"`
	OrganicPracticeCode    string `json:"organic_practice_code"`
	IrrigationPracticeCode string `json:"irrigation_practice_code"`
	NonPremiumAcreageCode  string `json:"non_premium_acreage_code"`
	InsuredSharePercent    string `json:"insured_share_percent"`
	ReportedAcreage        string `json:"reported_acreage"`
	ReportedColonies       string `json:"reported_colonies"`
	TotalInsuredAcreage    string `json:"total_insured_acreage"`
	TotalInsuredColonies   string `json:"total_insured_colonies"`
	IntervalCode           string `json:"interval_code"`
	PercentOfValue         string `json:"percent_of_value"`
	TotalPremiumAmount     string `json:"aip_total_premium_amount"`
	SubsidyAmount          string `json:"aip_subsidy_amount"`
}

// NonPremiumInsurable marks acreage that is insurable but carries no premium.
const NonPremiumInsurable = "I"

// Insured reports whether the row carries premium (empty non-premium code).
func (a Acreage) Insured() bool {
	return a.NonPremiumAcreageCode == ""
}

// Insurable reports whether the row is flagged insurable-only.
func (a Acreage) Insurable() bool {
	return a.NonPremiumAcreageCode == NonPremiumInsurable
}

// =============================================================================
// AGENTS
// =============================================================================

// Agent is an insurance agent as reported for a reinsurance year.
type Agent struct {
	AgentKey        string `json:"aip_insurance_agent_key"`
	ReinsuranceYear string `json:"reinsurance_year"`
	FirstName       string `json:"first_name"`
	MiddleName      string `json:"middle_name"`
	LastName        string `json:"last_name"`
}

// AgencyContact links an agent key to the agency e-mail used for sign-in.
type AgencyContact struct {
	AgentKey     string `json:"aip_insurance_agent_key"`
	AgencyName   string `json:"agency_name"`
	EmailAddress string `json:"email_address"`
}

// =============================================================================
// REFERENCE TABLES
// =============================================================================

// State is a USDA state.
type State struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// County is a USDA county within a state.
type County struct {
	StateCode string `json:"state_code"`
	Code      string `json:"code"`
	Name      string `json:"name"`
}

// Commodity is a USDA commodity for one reinsurance year.
type Commodity struct {
	ReinsuranceYear       string `json:"reinsurance_year"`
	CommodityCode         string `json:"commodity_code"`
	CommodityName         string `json:"commodity_name"`
	CommodityAbbreviation string `json:"commodity_abbreviation"`
}

// TypeValue is a display label for a coded value of a named type.
type TypeValue struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Value string `json:"value"`
}

// =============================================================================
// PRODUCER E-MAILS
// =============================================================================

// ProducerEmail is a contact address kept for a policy producer.
type ProducerEmail struct {
	ID            int64  `json:"id"`
	ProducerKey   string `json:"policy_producer_key"`
	EmailAddress  string `json:"email_address"`
	CreatedBy     string `json:"created_by,omitempty"`
	LastUpdatedBy string `json:"last_updated_by,omitempty"`
}

// =============================================================================
// POLICY LISTING
// =============================================================================

// PolicySummary is one row of the policy listing: a producer policy and
// commodity with every county and insurance record it spans.
type PolicySummary struct {
	ReinsuranceYear    string `json:"reinsurance_year"`
	PolicyNumber       string `json:"policy_number"`
	AIPCode            string `json:"aip_code"`
	InsuredName        string `json:"insured_name"`
	LocationStateCode  string `json:"location_state_code"`
	AgentKey           string `json:"aip_insurance_agent_key"`
	CommodityCode      string `json:"commodity_code"`
	LocationCountyCode string `json:"location_county_code"`
	InsuranceKeys      string `json:"aip_insurance_in_force_keys"`
}

// ProducerCommodity pairs a producer key with a commodity abbreviation.
type ProducerCommodity struct {
	ProducerKey           string `json:"aip_policy_producer_key"`
	CommodityAbbreviation string `json:"commodity_abbreviation"`
}

// =============================================================================
// DATASET
// =============================================================================

// Dataset is a batch of records loaded together, such as one data exchange
// file set or a sample scenario.
type Dataset struct {
	States         []State            `json:"states"`
	Counties       []County           `json:"counties"`
	Commodities    []Commodity        `json:"commodities"`
	TypeValues     []TypeValue        `json:"type_values"`
	Agents         []Agent            `json:"agents"`
	AgencyContacts []AgencyContact    `json:"agency_contacts"`
	Producers      []Producer         `json:"producers"`
	Addresses      []ProducerAddress  `json:"addresses"`
	OtherPersons   []OtherPerson      `json:"other_persons"`
	Insurance      []InsuranceInForce `json:"insurance"`
	Acreage        []Acreage          `json:"acreage"`
}

// Size returns the total number of records in the dataset.
func (d Dataset) Size() int {
	return len(d.States) + len(d.Counties) + len(d.Commodities) + len(d.TypeValues) +
		len(d.Agents) + len(d.AgencyContacts) + len(d.Producers) + len(d.Addresses) +
		len(d.OtherPersons) + len(d.Insurance) + len(d.Acreage)
}
