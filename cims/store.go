/*
store.go - Persistence interfaces for policy, reference and e-mail records

PURPOSE:
  Defines the interface between the service layer and the database. Policy
  and reference records are read-only here: they arrive through the M13
  data exchange load, not through this service. Producer e-mails are the
  only records the service writes.

KEY INTERFACES:
  PolicyStore:    Producers, insurance in force, acreage and listing rows
  ReferenceStore: States, counties, agents, commodities, type values
  EmailStore:     Producer contact e-mails (read + atomic change sets)
  Store:          All of the above

MATCHING:
  Code and name comparisons are case-insensitive. Name filters are prefix
  matches. A Condition with no values matches nothing, so a name filter
  that resolves to no codes empties the result instead of being ignored.

IMPLEMENTATIONS:
  - store/sqlite/: SQLite via database/sql

SEE ALSO:
  - service/: Uses these interfaces
  - types.go: Record definitions
*/
package cims

import "context"

// =============================================================================
// QUERY TYPES
// =============================================================================

// Field names a filterable record attribute. Values match the attribute
// names clients use as filter keys (compared case-insensitively).
type Field string

// Producer fields.
const (
	FieldProducerKey       Field = "AIPPolicyProducerKey"
	FieldReinsuranceYear   Field = "ReinsuranceYear"
	FieldAIPCode           Field = "AIPCode"
	FieldPolicyNumber      Field = "PolicyNumber"
	FieldBusinessName      Field = "BusinessName"
	FieldFirstName         Field = "FirstName"
	FieldLastName          Field = "LastName"
	FieldLocationStateCode Field = "LocationStateCode"
)

// Insurance in force fields. ReinsuranceYear and the producer key are
// shared with the producer record.
const (
	FieldInsuranceKey         Field = "AIPInsuranceInForceKey"
	FieldCommodityCode        Field = "CommodityCode"
	FieldLocationCountyCode   Field = "LocationCountyCode"
	FieldAgentKey             Field = "AIPInsuranceAgentKey"
	FieldTypeCode             Field = "TypeCode"
	FieldIntendedUseCode      Field = "IntendedUseCode"
	FieldCoverageLevelPercent Field = "CoverageLevelPercent"
	FieldPriceElectionPercent Field = "PriceElectionPercent"
)

// ProducerFields lists the producer attributes accepted as column filters.
var ProducerFields = []Field{
	FieldProducerKey, FieldReinsuranceYear, FieldAIPCode, FieldPolicyNumber,
	FieldBusinessName, FieldFirstName, FieldLastName, FieldLocationStateCode,
}

// InsuranceFields lists the insurance attributes accepted as column filters.
var InsuranceFields = []Field{
	FieldInsuranceKey, FieldProducerKey, FieldReinsuranceYear, FieldCommodityCode,
	FieldLocationCountyCode, FieldAgentKey, FieldTypeCode, FieldIntendedUseCode,
	FieldCoverageLevelPercent, FieldPriceElectionPercent,
}

// Condition restricts Field to one of Values. No values matches nothing.
type Condition struct {
	Field  Field
	Values []string
}

// PrefixCondition matches when any of Fields starts with Prefix.
type PrefixCondition struct {
	Fields []Field
	Prefix string
}

// AccessScope selects producers reachable by a caller.
// An empty AgencyEmail means every producer holding an eligible commodity.
type AccessScope struct {
	AgencyEmail string
	Commodities []string
}

// PolicyRowQuery selects producer and insurance pairs for the policy listing.
type PolicyRowQuery struct {
	ProducerKeys        []string
	Commodities         []string
	ProducerConditions  []Condition
	ProducerPrefixes    []PrefixCondition
	InsuranceConditions []Condition
}

// PolicyRow is a producer joined with one of its insurance records.
type PolicyRow struct {
	Producer  Producer
	Insurance InsuranceInForce
}

// CountyRef names counties within one state.
type CountyRef struct {
	StateCode   string
	CountyCodes []string
}

// AgentRef names an agent for a reinsurance year.
type AgentRef struct {
	AgentKey        string
	ReinsuranceYear string
}

// EmailChanges is an atomic change set for one producer's e-mails.
type EmailChanges struct {
	ProducerKey string
	Actor       string
	Insert      []ProducerEmail
	Update      []ProducerEmail
	Delete      []int64
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// PolicyStore reads M13 policy records.
type PolicyStore interface {
	// AuthorizedProducerKeys returns the distinct producer keys within scope.
	AuthorizedProducerKeys(ctx context.Context, scope AccessScope) ([]string, error)

	// ListProducers returns producers with the given keys, newest year and
	// highest policy number first, sliced by skip/take (take <= 0 means all).
	ListProducers(ctx context.Context, keys []string, skip, take int) ([]Producer, error)

	// FindProducer returns the first producer matching any key for the year, or nil.
	FindProducer(ctx context.Context, keys []string, year string) (*Producer, error)

	ListProducerAddresses(ctx context.Context, keys []string) ([]ProducerAddress, error)
	GetProducerAddress(ctx context.Context, key, year string) (*ProducerAddress, error)
	ListOtherPersons(ctx context.Context, key, year string) ([]OtherPerson, error)

	// ListInsurance returns insurance records by key for the year, in key order of storage.
	ListInsurance(ctx context.Context, insuranceKeys []string, year string) ([]InsuranceInForce, error)

	// ListAcreage returns acreage rows of the insurance records for the year.
	ListAcreage(ctx context.Context, insuranceKeys []string, year string) ([]Acreage, error)

	// ListPolicyRows returns producer/insurance pairs joined on producer key
	// and year, newest year and highest policy number first.
	ListPolicyRows(ctx context.Context, q PolicyRowQuery) ([]PolicyRow, error)

	// ListProducerCommodities returns distinct producer/commodity abbreviation
	// pairs using the commodity table of the given reference year.
	ListProducerCommodities(ctx context.Context, producerKeys []string, year string) ([]ProducerCommodity, error)
}

// ReferenceStore reads USDA reference tables and agent records.
type ReferenceStore interface {
	States(ctx context.Context, codes []string) ([]State, error)
	StateCodesByName(ctx context.Context, prefix string) ([]string, error)
	Counties(ctx context.Context, refs []CountyRef) ([]County, error)
	CountiesByName(ctx context.Context, prefix string) ([]County, error)
	Agents(ctx context.Context, refs []AgentRef) ([]Agent, error)
	AgentKeysByName(ctx context.Context, prefix string) ([]string, error)
	Commodities(ctx context.Context, codes []string, year string) ([]Commodity, error)
	TypeValues(ctx context.Context) ([]TypeValue, error)
}

// EmailStore persists producer contact e-mails.
type EmailStore interface {
	ListProducerEmails(ctx context.Context, producerKeys []string) ([]ProducerEmail, error)

	// ApplyEmailChanges writes the change set atomically.
	ApplyEmailChanges(ctx context.Context, changes EmailChanges) error
}

// Store is the full persistence contract of the service.
type Store interface {
	PolicyStore
	ReferenceStore
	EmailStore
}
