package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/wsr/cims/cims"
)

// =============================================================================
// REFERENCE STORE (cims.ReferenceStore interface)
// =============================================================================

// States returns the states with the given codes.
func (s *Store) States(ctx context.Context, codes []string) ([]cims.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("code", codes)
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, name, abbreviation FROM states WHERE `+clause+` ORDER BY code`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	states := []cims.State{}
	for rows.Next() {
		var st cims.State
		if err := rows.Scan(&st.Code, &st.Name, &st.Abbreviation); err != nil {
			return nil, err
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// StateCodesByName returns codes of states whose name starts with prefix.
func (s *Store) StateCodesByName(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return queryStrings(ctx, s.db,
		`SELECT code FROM states WHERE name LIKE ? ESCAPE '\' ORDER BY code`, likePrefix(prefix))
}

// Counties returns the named counties. County codes are matched within
// their own state only.
func (s *Store) Counties(ctx context.Context, refs []cims.CountyRef) ([]cims.County, error) {
	var clauses []string
	var args []any
	for _, ref := range refs {
		clause, a := inClause("code", ref.CountyCodes)
		clauses = append(clauses, "(state_code = ? AND "+clause+")")
		args = append(append(args, ref.StateCode), a...)
	}
	if len(clauses) == 0 {
		return []cims.County{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT state_code, code, name FROM counties WHERE ` +
		strings.Join(clauses, " OR ") + ` ORDER BY state_code, code`
	return s.queryCounties(ctx, query, args...)
}

// CountiesByName returns counties whose name starts with prefix.
func (s *Store) CountiesByName(ctx context.Context, prefix string) ([]cims.County, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryCounties(ctx,
		`SELECT state_code, code, name FROM counties WHERE name LIKE ? ESCAPE '\' ORDER BY state_code, code`,
		likePrefix(prefix))
}

func (s *Store) queryCounties(ctx context.Context, query string, args ...any) ([]cims.County, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query counties: %w", err)
	}
	defer rows.Close()

	counties := []cims.County{}
	for rows.Next() {
		var c cims.County
		if err := rows.Scan(&c.StateCode, &c.Code, &c.Name); err != nil {
			return nil, err
		}
		counties = append(counties, c)
	}
	return counties, rows.Err()
}

// Agents returns agents by key and reinsurance year.
func (s *Store) Agents(ctx context.Context, refs []cims.AgentRef) ([]cims.Agent, error) {
	var clauses []string
	var args []any
	for _, ref := range refs {
		clauses = append(clauses, "(agent_key = ? AND reinsurance_year = ?)")
		args = append(args, ref.AgentKey, ref.ReinsuranceYear)
	}
	if len(clauses) == 0 {
		return []cims.Agent{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_key, reinsurance_year, first_name, middle_name, last_name
		FROM agents
		WHERE `+strings.Join(clauses, " OR ")+`
		ORDER BY agent_key, reinsurance_year`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close()

	agents := []cims.Agent{}
	for rows.Next() {
		var a cims.Agent
		if err := rows.Scan(&a.AgentKey, &a.ReinsuranceYear, &a.FirstName, &a.MiddleName, &a.LastName); err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

// AgentKeysByName returns keys of agents whose first, middle or last name
// starts with prefix.
func (s *Store) AgentKeysByName(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	like := likePrefix(prefix)
	return queryStrings(ctx, s.db, `
		SELECT DISTINCT agent_key FROM agents
		WHERE first_name LIKE ? ESCAPE '\'
		   OR last_name LIKE ? ESCAPE '\'
		   OR middle_name LIKE ? ESCAPE '\'
		ORDER BY agent_key`, like, like, like)
}

// Commodities returns commodities with the given codes for one reinsurance year.
func (s *Store) Commodities(ctx context.Context, codes []string, year string) ([]cims.Commodity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clause, args := inClause("commodity_code", codes)
	args = append(args, year)
	rows, err := s.db.QueryContext(ctx, `
		SELECT reinsurance_year, commodity_code, commodity_name, commodity_abbreviation
		FROM commodities
		WHERE `+clause+` AND reinsurance_year = ?
		ORDER BY commodity_code`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commodities: %w", err)
	}
	defer rows.Close()

	commodities := []cims.Commodity{}
	for rows.Next() {
		var c cims.Commodity
		if err := rows.Scan(&c.ReinsuranceYear, &c.CommodityCode, &c.CommodityName, &c.CommodityAbbreviation); err != nil {
			return nil, err
		}
		commodities = append(commodities, c)
	}
	return commodities, rows.Err()
}

// TypeValues returns every type value.
func (s *Store) TypeValues(ctx context.Context) ([]cims.TypeValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT type, code, value FROM type_values ORDER BY type, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []cims.TypeValue{}
	for rows.Next() {
		var v cims.TypeValue
		if err := rows.Scan(&v.Type, &v.Code, &v.Value); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
