package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wsr/cims/cims"
)

// =============================================================================
// FILTERABLE COLUMNS
// =============================================================================

var producerColumns = map[cims.Field]string{
	cims.FieldProducerKey:       "p.producer_key",
	cims.FieldReinsuranceYear:   "p.reinsurance_year",
	cims.FieldAIPCode:           "p.aip_code",
	cims.FieldPolicyNumber:      "p.policy_number",
	cims.FieldBusinessName:      "p.business_name",
	cims.FieldFirstName:         "p.first_name",
	cims.FieldLastName:          "p.last_name",
	cims.FieldLocationStateCode: "p.location_state_code",
}

var insuranceColumns = map[cims.Field]string{
	cims.FieldInsuranceKey:         "i.insurance_key",
	cims.FieldProducerKey:          "i.producer_key",
	cims.FieldReinsuranceYear:      "i.reinsurance_year",
	cims.FieldCommodityCode:        "i.commodity_code",
	cims.FieldLocationCountyCode:   "i.location_county_code",
	cims.FieldAgentKey:             "i.agent_key",
	cims.FieldTypeCode:             "i.type_code",
	cims.FieldIntendedUseCode:      "i.intended_use_code",
	cims.FieldCoverageLevelPercent: "i.coverage_level_percent",
	cims.FieldPriceElectionPercent: "i.price_election_percent",
}

func conditionClauses(columns map[cims.Field]string, conds []cims.Condition) ([]string, []any, error) {
	var clauses []string
	var args []any
	for _, c := range conds {
		column, ok := columns[c.Field]
		if !ok {
			return nil, nil, &cims.FieldError{Field: string(c.Field), Reason: "not filterable"}
		}
		clause, a := inClause(column, c.Values)
		clauses = append(clauses, clause)
		args = append(args, a...)
	}
	return clauses, args, nil
}

func prefixClauses(columns map[cims.Field]string, conds []cims.PrefixCondition) ([]string, []any, error) {
	var clauses []string
	var args []any
	for _, c := range conds {
		var parts []string
		for _, f := range c.Fields {
			column, ok := columns[f]
			if !ok {
				return nil, nil, &cims.FieldError{Field: string(f), Reason: "not filterable"}
			}
			parts = append(parts, column+` LIKE ? ESCAPE '\'`)
			args = append(args, likePrefix(c.Prefix))
		}
		if len(parts) == 0 {
			continue
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	return clauses, args, nil
}

// =============================================================================
// POLICY STORE (cims.PolicyStore interface)
// =============================================================================

// AuthorizedProducerKeys returns the distinct producer keys within scope.
func (s *Store) AuthorizedProducerKeys(ctx context.Context, scope cims.AccessScope) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	commodities, args := inClause("i.commodity_code", scope.Commodities)

	var query string
	if scope.AgencyEmail == "" {
		query = `
			SELECT DISTINCT p.producer_key
			FROM producers p
			JOIN insurance_in_force i ON i.producer_key = p.producer_key
			WHERE ` + commodities + `
			ORDER BY p.producer_key
		`
	} else {
		query = `
			SELECT DISTINCT i.producer_key
			FROM insurance_in_force i
			JOIN agency_contacts a ON a.agent_key = i.agent_key
			WHERE a.email_address = ? AND ` + commodities + `
			ORDER BY i.producer_key
		`
		args = append([]any{scope.AgencyEmail}, args...)
	}

	keys, err := queryStrings(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query authorized producers: %w", err)
	}
	return keys, nil
}

const producerColumnsSQL = `p.producer_key, p.reinsurance_year, p.aip_code, p.policy_number,
	p.business_name, p.first_name, p.last_name, p.location_state_code`

func scanProducer(row interface{ Scan(...any) error }, p *cims.Producer) error {
	return row.Scan(&p.ProducerKey, &p.ReinsuranceYear, &p.AIPCode, &p.PolicyNumber,
		&p.BusinessName, &p.FirstName, &p.LastName, &p.LocationStateCode)
}

// ListProducers returns producers with the given keys, newest first.
func (s *Store) ListProducers(ctx context.Context, keys []string, skip, take int) ([]cims.Producer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("p.producer_key", keys)
	query := `SELECT ` + producerColumnsSQL + `
		FROM producers p
		WHERE ` + clause + `
		ORDER BY p.reinsurance_year DESC, p.policy_number DESC
		LIMIT ? OFFSET ?`

	limit := take
	if limit <= 0 {
		limit = -1
	}
	if skip < 0 {
		skip = 0
	}
	args = append(args, limit, skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query producers: %w", err)
	}
	defer rows.Close()

	producers := []cims.Producer{}
	for rows.Next() {
		var p cims.Producer
		if err := scanProducer(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan producer: %w", err)
		}
		producers = append(producers, p)
	}
	return producers, rows.Err()
}

// FindProducer returns the first producer matching any key for the year.
func (s *Store) FindProducer(ctx context.Context, keys []string, year string) (*cims.Producer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("p.producer_key", keys)
	query := `SELECT ` + producerColumnsSQL + `
		FROM producers p
		WHERE ` + clause + ` AND p.reinsurance_year = ?
		ORDER BY p.rowid
		LIMIT 1`
	args = append(args, year)

	var p cims.Producer
	err := scanProducer(s.db.QueryRowContext(ctx, query, args...), &p)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const addressColumnsSQL = `producer_key, reinsurance_year, address_line_1, address_line_2,
	city, state_abbreviation, postal_code, phone_number`

func scanAddress(row interface{ Scan(...any) error }, a *cims.ProducerAddress) error {
	return row.Scan(&a.ProducerKey, &a.ReinsuranceYear, &a.AddressLine1, &a.AddressLine2,
		&a.City, &a.StateAbbrev, &a.PostalCode, &a.PhoneNumber)
}

// ListProducerAddresses returns the addresses of the given producers, every year.
func (s *Store) ListProducerAddresses(ctx context.Context, keys []string) ([]cims.ProducerAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("producer_key", keys)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressColumnsSQL+` FROM producer_addresses WHERE `+clause+` ORDER BY rowid`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []cims.ProducerAddress{}
	for rows.Next() {
		var a cims.ProducerAddress
		if err := scanAddress(rows, &a); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// GetProducerAddress returns the producer's address for the year, or nil.
func (s *Store) GetProducerAddress(ctx context.Context, key, year string) (*cims.ProducerAddress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var a cims.ProducerAddress
	err := scanAddress(s.db.QueryRowContext(ctx,
		`SELECT `+addressColumnsSQL+` FROM producer_addresses WHERE producer_key = ? AND reinsurance_year = ?`,
		key, year), &a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListOtherPersons returns the other persons of a producer for the year.
func (s *Store) ListOtherPersons(ctx context.Context, key, year string) ([]cims.OtherPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT producer_key, reinsurance_year, person_type, business_name, first_name, last_name
		FROM producer_other_persons
		WHERE producer_key = ? AND reinsurance_year = ?
		ORDER BY id`, key, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	persons := []cims.OtherPerson{}
	for rows.Next() {
		var o cims.OtherPerson
		if err := rows.Scan(&o.ProducerKey, &o.ReinsuranceYear, &o.PersonType,
			&o.BusinessName, &o.FirstName, &o.LastName); err != nil {
			return nil, err
		}
		persons = append(persons, o)
	}
	return persons, rows.Err()
}

const insuranceColumnsSQL = `i.insurance_key, i.producer_key, i.reinsurance_year, i.commodity_code,
	i.location_county_code, i.agent_key, i.type_code, i.intended_use_code,
	i.coverage_level_percent, i.price_election_percent`

func scanInsurance(row interface{ Scan(...any) error }, i *cims.InsuranceInForce) error {
	return row.Scan(&i.InsuranceKey, &i.ProducerKey, &i.ReinsuranceYear, &i.CommodityCode,
		&i.LocationCountyCode, &i.AgentKey, &i.TypeCode, &i.IntendedUseCode,
		&i.CoverageLevelPercent, &i.PriceElectionPercent)
}

// ListInsurance returns insurance records by key for the year, in load order.
func (s *Store) ListInsurance(ctx context.Context, insuranceKeys []string, year string) ([]cims.InsuranceInForce, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("i.insurance_key", insuranceKeys)
	args = append(args, year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+insuranceColumnsSQL+`
		FROM insurance_in_force i
		WHERE `+clause+` AND i.reinsurance_year = ?
		ORDER BY i.rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query insurance: %w", err)
	}
	defer rows.Close()

	var records []cims.InsuranceInForce
	for rows.Next() {
		var i cims.InsuranceInForce
		if err := scanInsurance(rows, &i); err != nil {
			return nil, fmt.Errorf("failed to scan insurance: %w", err)
		}
		records = append(records, i)
	}
	return records, rows.Err()
}

// ListAcreage returns acreage rows of the insurance records for the year, in load order.
func (s *Store) ListAcreage(ctx context.Context, insuranceKeys []string, year string) ([]cims.Acreage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("insurance_key", insuranceKeys)
	args = append(args, year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT acreage_key, insurance_key, reinsurance_year, sub_county_code, practice_code,
		       organic_practice_code, irrigation_practice_code, non_premium_acreage_code,
		       insured_share_percent, reported_acreage, reported_colonies,
		       total_insured_acreage, total_insured_colonies, interval_code, percent_of_value,
		       total_premium_amount, subsidy_amount
		FROM acreage
		WHERE `+clause+` AND reinsurance_year = ?
		ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query acreage: %w", err)
	}
	defer rows.Close()

	var records []cims.Acreage
	for rows.Next() {
		var a cims.Acreage
		if err := rows.Scan(&a.AcreageKey, &a.InsuranceKey, &a.ReinsuranceYear, &a.SubCountyCode,
			&a.PracticeCode, &a.OrganicPracticeCode, &a.IrrigationPracticeCode,
			&a.NonPremiumAcreageCode, &a.InsuredSharePercent, &a.ReportedAcreage,
			&a.ReportedColonies, &a.TotalInsuredAcreage, &a.TotalInsuredColonies,
			&a.IntervalCode, &a.PercentOfValue, &a.TotalPremiumAmount, &a.SubsidyAmount); err != nil {
			return nil, fmt.Errorf("failed to scan acreage: %w", err)
		}
		records = append(records, a)
	}
	return records, rows.Err()
}

// ListPolicyRows returns producer/insurance pairs for the policy listing.
func (s *Store) ListPolicyRows(ctx context.Context, q cims.PolicyRowQuery) ([]cims.PolicyRow, error) {
	var clauses []string
	var args []any

	add := func(c []string, a []any) {
		clauses = append(clauses, c...)
		args = append(args, a...)
	}

	producerKeys, a := inClause("p.producer_key", q.ProducerKeys)
	add([]string{producerKeys}, a)
	insuranceKeys, a := inClause("i.producer_key", q.ProducerKeys)
	add([]string{insuranceKeys}, a)
	commodities, a := inClause("i.commodity_code", q.Commodities)
	add([]string{commodities}, a)

	c, a, err := conditionClauses(producerColumns, q.ProducerConditions)
	if err != nil {
		return nil, err
	}
	add(c, a)
	c, a, err = prefixClauses(producerColumns, q.ProducerPrefixes)
	if err != nil {
		return nil, err
	}
	add(c, a)
	c, a, err = conditionClauses(insuranceColumns, q.InsuranceConditions)
	if err != nil {
		return nil, err
	}
	add(c, a)

	query := `
		SELECT ` + producerColumnsSQL + `, ` + insuranceColumnsSQL + `
		FROM producers p
		JOIN insurance_in_force i
		  ON i.producer_key = p.producer_key AND i.reinsurance_year = p.reinsurance_year
		` + where(clauses) + `
		ORDER BY p.reinsurance_year DESC, p.policy_number DESC, i.rowid`

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var out []cims.PolicyRow
	for rows.Next() {
		var r cims.PolicyRow
		p, i := &r.Producer, &r.Insurance
		if err := rows.Scan(&p.ProducerKey, &p.ReinsuranceYear, &p.AIPCode, &p.PolicyNumber,
			&p.BusinessName, &p.FirstName, &p.LastName, &p.LocationStateCode,
			&i.InsuranceKey, &i.ProducerKey, &i.ReinsuranceYear, &i.CommodityCode,
			&i.LocationCountyCode, &i.AgentKey, &i.TypeCode, &i.IntendedUseCode,
			&i.CoverageLevelPercent, &i.PriceElectionPercent); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListProducerCommodities returns distinct producer/commodity abbreviation pairs.
func (s *Store) ListProducerCommodities(ctx context.Context, producerKeys []string, year string) ([]cims.ProducerCommodity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("i.producer_key", producerKeys)
	args = append(args, year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT i.producer_key, c.commodity_abbreviation
		FROM insurance_in_force i
		JOIN commodities c ON c.commodity_code = i.commodity_code
		WHERE `+clause+` AND c.reinsurance_year = ?
		ORDER BY i.producer_key, c.commodity_abbreviation`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []cims.ProducerCommodity{}
	for rows.Next() {
		var pc cims.ProducerCommodity
		if err := rows.Scan(&pc.ProducerKey, &pc.CommodityAbbreviation); err != nil {
			return nil, err
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
