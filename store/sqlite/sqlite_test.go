package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var eligible = []string{"0088", "1191", "0332"}

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seed loads two producers: P1 (agent A1, pasture) in 2023 and 2024, and
// P2 (agent A2) holding only a non-eligible commodity.
func seed(t *testing.T, store *sqlite.Store) {
	t.Helper()
	d := cims.Dataset{
		States: []cims.State{
			{Code: "48", Name: "Texas", Abbreviation: "TX"},
			{Code: "40", Name: "Oklahoma", Abbreviation: "OK"},
		},
		Counties: []cims.County{
			{StateCode: "48", Code: "001", Name: "Anderson"},
			{StateCode: "48", Code: "003", Name: "Andrews"},
			{StateCode: "40", Code: "001", Name: "Adair"},
		},
		Commodities: []cims.Commodity{
			{ReinsuranceYear: "2023", CommodityCode: "0088", CommodityName: "Pasture,Rangeland,Forage", CommodityAbbreviation: "PRF"},
			{ReinsuranceYear: "2023", CommodityCode: "0041", CommodityName: "Corn", CommodityAbbreviation: "CORN"},
		},
		TypeValues: []cims.TypeValue{{Type: "IntendedUse", Code: "030", Value: "Haying"}},
		Agents: []cims.Agent{
			{AgentKey: "A1", ReinsuranceYear: "2024", FirstName: "Mary", MiddleName: "Q", LastName: "Jones"},
			{AgentKey: "A2", ReinsuranceYear: "2024", FirstName: "Bob", LastName: "Marsh"},
		},
		AgencyContacts: []cims.AgencyContact{
			{AgentKey: "A1", AgencyName: "Plains Agency", EmailAddress: "agent1@example.com"},
			{AgentKey: "A2", AgencyName: "Corn Agency", EmailAddress: "agent2@example.com"},
		},
		Producers: []cims.Producer{
			{ProducerKey: "P1", ReinsuranceYear: "2023", PolicyNumber: "100", AIPCode: "AA", FirstName: "Jane", LastName: "Doe", LocationStateCode: "48"},
			{ProducerKey: "P1", ReinsuranceYear: "2024", PolicyNumber: "100", AIPCode: "AA", FirstName: "Jane", LastName: "Doe", LocationStateCode: "48"},
			{ProducerKey: "P2", ReinsuranceYear: "2024", PolicyNumber: "200", AIPCode: "AA", BusinessName: "Acme Farms", LocationStateCode: "40"},
		},
		Addresses: []cims.ProducerAddress{
			{ProducerKey: "P1", ReinsuranceYear: "2024", City: "Austin"},
		},
		OtherPersons: []cims.OtherPerson{
			{ProducerKey: "P1", ReinsuranceYear: "2024", PersonType: "S", FirstName: "John"},
		},
		Insurance: []cims.InsuranceInForce{
			{InsuranceKey: "I1", ProducerKey: "P1", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "001", AgentKey: "A1", TypeCode: "030"},
			{InsuranceKey: "I2", ProducerKey: "P1", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "003", AgentKey: "A1", TypeCode: "030"},
			{InsuranceKey: "I0", ProducerKey: "P1", ReinsuranceYear: "2023", CommodityCode: "0088", LocationCountyCode: "001", AgentKey: "A1"},
			{InsuranceKey: "I3", ProducerKey: "P2", ReinsuranceYear: "2024", CommodityCode: "0041", LocationCountyCode: "001", AgentKey: "A2"},
		},
		Acreage: []cims.Acreage{
			{AcreageKey: "R2", InsuranceKey: "I1", ReinsuranceYear: "2024", SubCountyCode: "G2"},
			{AcreageKey: "R1", InsuranceKey: "I1", ReinsuranceYear: "2024", SubCountyCode: "G1"},
			{AcreageKey: "R3", InsuranceKey: "I2", ReinsuranceYear: "2024", SubCountyCode: "G1"},
			{AcreageKey: "R9", InsuranceKey: "I1", ReinsuranceYear: "2023", SubCountyCode: "G1"},
		},
	}
	require.NoError(t, store.Import(context.Background(), d))
}

// =============================================================================
// POLICY STORE
// =============================================================================

func TestAuthorizedProducerKeys(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	// GIVEN: No agency e-mail
	// THEN: Every producer with an eligible commodity
	keys, err := store.AuthorizedProducerKeys(ctx, cims.AccessScope{Commodities: eligible})
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, keys)

	// GIVEN: An agency e-mail in different case
	keys, err = store.AuthorizedProducerKeys(ctx, cims.AccessScope{AgencyEmail: "AGENT1@example.com", Commodities: eligible})
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, keys)

	// GIVEN: An agent whose producers hold no eligible commodity
	keys, err = store.AuthorizedProducerKeys(ctx, cims.AccessScope{AgencyEmail: "agent2@example.com", Commodities: eligible})
	require.NoError(t, err)
	assert.Empty(t, keys)

	// GIVEN: No eligible commodities at all
	keys, err = store.AuthorizedProducerKeys(ctx, cims.AccessScope{})
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestListProducers_OrderAndPaging(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	all, err := store.ListProducers(ctx, []string{"P1", "P2"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024", all[0].ReinsuranceYear)
	assert.Equal(t, "200", all[0].PolicyNumber)
	assert.Equal(t, "2023", all[2].ReinsuranceYear)

	page, err := store.ListProducers(ctx, []string{"P1", "P2"}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "P1", page[0].ProducerKey)
	assert.Equal(t, "2024", page[0].ReinsuranceYear)

	none, err := store.ListProducers(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFindProducerAndDetails(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	p, err := store.FindProducer(ctx, []string{"X", "p1"}, "2024")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Jane", p.FirstName)

	missing, err := store.FindProducer(ctx, []string{"P1"}, "2019")
	require.NoError(t, err)
	assert.Nil(t, missing)

	addr, err := store.GetProducerAddress(ctx, "P1", "2024")
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, "Austin", addr.City)

	noAddr, err := store.GetProducerAddress(ctx, "P2", "2024")
	require.NoError(t, err)
	assert.Nil(t, noAddr)

	others, err := store.ListOtherPersons(ctx, "P1", "2024")
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, "John", others[0].FirstName)

	addrs, err := store.ListProducerAddresses(ctx, []string{"P1", "P2"})
	require.NoError(t, err)
	assert.Len(t, addrs, 1)
}

func TestListInsuranceAndAcreage_LoadOrder(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	ins, err := store.ListInsurance(ctx, []string{"I2", "I1"}, "2024")
	require.NoError(t, err)
	require.Len(t, ins, 2)
	assert.Equal(t, "I1", ins[0].InsuranceKey)
	assert.Equal(t, "A1", ins[0].AgentKey)

	rows, err := store.ListAcreage(ctx, []string{"I1", "I2"}, "2024")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "R2", rows[0].AcreageKey)
	assert.Equal(t, "R1", rows[1].AcreageKey)
	assert.Equal(t, "R3", rows[2].AcreageKey)
}

func TestListPolicyRows(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	base := cims.PolicyRowQuery{ProducerKeys: []string{"P1", "P2"}, Commodities: eligible}

	// All eligible rows, newest year first
	rows, err := store.ListPolicyRows(ctx, base)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2024", rows[0].Producer.ReinsuranceYear)
	assert.Equal(t, "I1", rows[0].Insurance.InsuranceKey)
	assert.Equal(t, "I0", rows[2].Insurance.InsuranceKey)

	// Column condition on the insurance side
	q := base
	q.InsuranceConditions = []cims.Condition{{Field: cims.FieldLocationCountyCode, Values: []string{"003"}}}
	rows, err = store.ListPolicyRows(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "I2", rows[0].Insurance.InsuranceKey)

	// Prefix on producer names, case-insensitive
	q = base
	q.ProducerPrefixes = []cims.PrefixCondition{{Fields: []cims.Field{cims.FieldBusinessName, cims.FieldFirstName}, Prefix: "ja"}}
	q.ProducerConditions = []cims.Condition{{Field: cims.FieldReinsuranceYear, Values: []string{"2023"}}}
	rows, err = store.ListPolicyRows(ctx, q)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "I0", rows[0].Insurance.InsuranceKey)

	// A condition with no values matches nothing
	q = base
	q.ProducerConditions = []cims.Condition{{Field: cims.FieldLocationStateCode}}
	rows, err = store.ListPolicyRows(ctx, q)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Unknown fields are client errors
	q = base
	q.InsuranceConditions = []cims.Condition{{Field: "Password", Values: []string{"x"}}}
	_, err = store.ListPolicyRows(ctx, q)
	assert.True(t, cims.IsClientError(err))
}

func TestListPolicyRows_PrefixEscapesWildcards(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	q := cims.PolicyRowQuery{
		ProducerKeys:     []string{"P1"},
		Commodities:      eligible,
		ProducerPrefixes: []cims.PrefixCondition{{Fields: []cims.Field{cims.FieldFirstName}, Prefix: "%"}},
	}
	rows, err := store.ListPolicyRows(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListProducerCommodities(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	pcs, err := store.ListProducerCommodities(context.Background(), []string{"P1", "P2"}, "2023")
	require.NoError(t, err)
	assert.Equal(t, []cims.ProducerCommodity{
		{ProducerKey: "P1", CommodityAbbreviation: "PRF"},
		{ProducerKey: "P2", CommodityAbbreviation: "CORN"},
	}, pcs)
}

// =============================================================================
// REFERENCE STORE
// =============================================================================

func TestReferenceLookups(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	states, err := store.States(ctx, []string{"48"})
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, "TX", states[0].Abbreviation)

	codes, err := store.StateCodesByName(ctx, "tex")
	require.NoError(t, err)
	assert.Equal(t, []string{"48"}, codes)

	counties, err := store.Counties(ctx, []cims.CountyRef{{StateCode: "48", CountyCodes: []string{"001", "003"}}})
	require.NoError(t, err)
	require.Len(t, counties, 2)
	assert.Equal(t, "Anderson", counties[0].Name)

	byName, err := store.CountiesByName(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, byName, 3)

	agents, err := store.Agents(ctx, []cims.AgentRef{{AgentKey: "A1", ReinsuranceYear: "2024"}})
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Jones", agents[0].LastName)

	keys, err := store.AgentKeysByName(ctx, "mar")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, keys)

	commodities, err := store.Commodities(ctx, []string{"0088"}, "2023")
	require.NoError(t, err)
	require.Len(t, commodities, 1)
	assert.Equal(t, "PRF", commodities[0].CommodityAbbreviation)

	values, err := store.TypeValues(ctx)
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

// =============================================================================
// EMAIL STORE
// =============================================================================

func TestApplyEmailChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: Two inserted addresses
	require.NoError(t, store.ApplyEmailChanges(ctx, cims.EmailChanges{
		ProducerKey: "P1",
		Actor:       "agent1@example.com",
		Insert:      []cims.ProducerEmail{{EmailAddress: "A@X.COM"}, {EmailAddress: "B@X.COM"}},
	}))
	emails, err := store.ListProducerEmails(ctx, []string{"P1"})
	require.NoError(t, err)
	require.Len(t, emails, 2)
	assert.Equal(t, "agent1@example.com", emails[0].CreatedBy)

	// WHEN: Updating the first and deleting the second
	require.NoError(t, store.ApplyEmailChanges(ctx, cims.EmailChanges{
		ProducerKey: "P1",
		Actor:       "admin@example.com",
		Update:      []cims.ProducerEmail{{ID: emails[0].ID, EmailAddress: "C@X.COM"}},
		Delete:      []int64{emails[1].ID},
	}))

	// THEN: One address remains with the audit user recorded
	emails, err = store.ListProducerEmails(ctx, []string{"P1"})
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "C@X.COM", emails[0].EmailAddress)
	assert.Equal(t, "admin@example.com", emails[0].LastUpdatedBy)
}

func TestApplyEmailChanges_RollsBackOnUnknownID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.ApplyEmailChanges(ctx, cims.EmailChanges{
		ProducerKey: "P1",
		Insert:      []cims.ProducerEmail{{EmailAddress: "A@X.COM"}},
		Update:      []cims.ProducerEmail{{ID: 42, EmailAddress: "B@X.COM"}},
	})
	require.ErrorIs(t, err, cims.ErrEmailNotFound)

	emails, err := store.ListProducerEmails(ctx, []string{"P1"})
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	ctx := context.Background()

	require.NoError(t, store.Reset(ctx))

	producers, err := store.ListProducers(ctx, []string{"P1", "P2"}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, producers)
}
