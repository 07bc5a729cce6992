package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/wsr/cims/cims"
)

// =============================================================================
// RECORD LOADING (data exchange import, scenarios, tests)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Import writes every record of the dataset atomically. Existing records
// with the same keys are replaced.
func (s *Store) Import(ctx context.Context, d cims.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := importDataset(ctx, sqlTx, d); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func importDataset(ctx context.Context, db execer, d cims.Dataset) error {
	for _, v := range d.States {
		if err := saveState(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Counties {
		if err := saveCounty(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Commodities {
		if err := saveCommodity(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.TypeValues {
		if err := saveTypeValue(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Agents {
		if err := saveAgent(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.AgencyContacts {
		if err := saveAgencyContact(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Producers {
		if err := saveProducer(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Addresses {
		if err := saveAddress(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.OtherPersons {
		if err := saveOtherPerson(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Insurance {
		if err := saveInsurance(ctx, db, v); err != nil {
			return err
		}
	}
	for _, v := range d.Acreage {
		if err := saveAcreage(ctx, db, v); err != nil {
			return err
		}
	}
	return nil
}

// SaveProducer saves a producer.
func (s *Store) SaveProducer(ctx context.Context, p cims.Producer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveProducer(ctx, s.db, p)
}

// SaveInsurance saves an insurance in force record.
func (s *Store) SaveInsurance(ctx context.Context, i cims.InsuranceInForce) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveInsurance(ctx, s.db, i)
}

// SaveAcreage saves an acreage row.
func (s *Store) SaveAcreage(ctx context.Context, a cims.Acreage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAcreage(ctx, s.db, a)
}

func saveProducer(ctx context.Context, db execer, p cims.Producer) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO producers (producer_key, reinsurance_year, aip_code, policy_number,
			business_name, first_name, last_name, location_state_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(producer_key, reinsurance_year) DO UPDATE SET
			aip_code = excluded.aip_code,
			policy_number = excluded.policy_number,
			business_name = excluded.business_name,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			location_state_code = excluded.location_state_code`,
		p.ProducerKey, p.ReinsuranceYear, p.AIPCode, p.PolicyNumber,
		p.BusinessName, p.FirstName, p.LastName, p.LocationStateCode,
	)
	if err != nil {
		return fmt.Errorf("failed to save producer %s: %w", p.ProducerKey, err)
	}
	return nil
}

func saveAddress(ctx context.Context, db execer, a cims.ProducerAddress) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO producer_addresses (producer_key, reinsurance_year, address_line_1,
			address_line_2, city, state_abbreviation, postal_code, phone_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(producer_key, reinsurance_year) DO UPDATE SET
			address_line_1 = excluded.address_line_1,
			address_line_2 = excluded.address_line_2,
			city = excluded.city,
			state_abbreviation = excluded.state_abbreviation,
			postal_code = excluded.postal_code,
			phone_number = excluded.phone_number`,
		a.ProducerKey, a.ReinsuranceYear, a.AddressLine1, a.AddressLine2,
		a.City, a.StateAbbrev, a.PostalCode, a.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to save address %s: %w", a.ProducerKey, err)
	}
	return nil
}

func saveOtherPerson(ctx context.Context, db execer, o cims.OtherPerson) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO producer_other_persons (producer_key, reinsurance_year, person_type,
			business_name, first_name, last_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		o.ProducerKey, o.ReinsuranceYear, o.PersonType, o.BusinessName, o.FirstName, o.LastName,
	)
	if err != nil {
		return fmt.Errorf("failed to save other person %s: %w", o.ProducerKey, err)
	}
	return nil
}

func saveInsurance(ctx context.Context, db execer, i cims.InsuranceInForce) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO insurance_in_force (insurance_key, producer_key, reinsurance_year,
			commodity_code, location_county_code, agent_key, type_code, intended_use_code,
			coverage_level_percent, price_election_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(insurance_key, reinsurance_year) DO UPDATE SET
			producer_key = excluded.producer_key,
			commodity_code = excluded.commodity_code,
			location_county_code = excluded.location_county_code,
			agent_key = excluded.agent_key,
			type_code = excluded.type_code,
			intended_use_code = excluded.intended_use_code,
			coverage_level_percent = excluded.coverage_level_percent,
			price_election_percent = excluded.price_election_percent`,
		i.InsuranceKey, i.ProducerKey, i.ReinsuranceYear, i.CommodityCode,
		i.LocationCountyCode, i.AgentKey, i.TypeCode, i.IntendedUseCode,
		i.CoverageLevelPercent, i.PriceElectionPercent,
	)
	if err != nil {
		return fmt.Errorf("failed to save insurance %s: %w", i.InsuranceKey, err)
	}
	return nil
}

func saveAcreage(ctx context.Context, db execer, a cims.Acreage) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO acreage (acreage_key, insurance_key, reinsurance_year, sub_county_code,
			practice_code, organic_practice_code, irrigation_practice_code,
			non_premium_acreage_code, insured_share_percent, reported_acreage,
			reported_colonies, total_insured_acreage, total_insured_colonies,
			interval_code, percent_of_value, total_premium_amount, subsidy_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(acreage_key, reinsurance_year) DO UPDATE SET
			insurance_key = excluded.insurance_key,
			sub_county_code = excluded.sub_county_code,
			practice_code = excluded.practice_code,
			organic_practice_code = excluded.organic_practice_code,
			irrigation_practice_code = excluded.irrigation_practice_code,
			non_premium_acreage_code = excluded.non_premium_acreage_code,
			insured_share_percent = excluded.insured_share_percent,
			reported_acreage = excluded.reported_acreage,
			reported_colonies = excluded.reported_colonies,
			total_insured_acreage = excluded.total_insured_acreage,
			total_insured_colonies = excluded.total_insured_colonies,
			interval_code = excluded.interval_code,
			percent_of_value = excluded.percent_of_value,
			total_premium_amount = excluded.total_premium_amount,
			subsidy_amount = excluded.subsidy_amount`,
		a.AcreageKey, a.InsuranceKey, a.ReinsuranceYear, a.SubCountyCode,
		a.PracticeCode, a.OrganicPracticeCode, a.IrrigationPracticeCode,
		a.NonPremiumAcreageCode, a.InsuredSharePercent, a.ReportedAcreage,
		a.ReportedColonies, a.TotalInsuredAcreage, a.TotalInsuredColonies,
		a.IntervalCode, a.PercentOfValue, a.TotalPremiumAmount, a.SubsidyAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to save acreage %s: %w", a.AcreageKey, err)
	}
	return nil
}

func saveAgent(ctx context.Context, db execer, a cims.Agent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO agents (agent_key, reinsurance_year, first_name, middle_name, last_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(agent_key, reinsurance_year) DO UPDATE SET
			first_name = excluded.first_name,
			middle_name = excluded.middle_name,
			last_name = excluded.last_name`,
		a.AgentKey, a.ReinsuranceYear, a.FirstName, a.MiddleName, a.LastName,
	)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", a.AgentKey, err)
	}
	return nil
}

func saveAgencyContact(ctx context.Context, db execer, c cims.AgencyContact) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO agency_contacts (agent_key, agency_name, email_address)
		VALUES (?, ?, ?)
		ON CONFLICT(agent_key, email_address) DO UPDATE SET
			agency_name = excluded.agency_name`,
		c.AgentKey, c.AgencyName, c.EmailAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to save agency contact %s: %w", c.AgentKey, err)
	}
	return nil
}

func saveState(ctx context.Context, db execer, st cims.State) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO states (code, name, abbreviation) VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET name = excluded.name, abbreviation = excluded.abbreviation`,
		st.Code, st.Name, st.Abbreviation,
	)
	if err != nil {
		return fmt.Errorf("failed to save state %s: %w", st.Code, err)
	}
	return nil
}

func saveCounty(ctx context.Context, db execer, c cims.County) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO counties (state_code, code, name) VALUES (?, ?, ?)
		ON CONFLICT(state_code, code) DO UPDATE SET name = excluded.name`,
		c.StateCode, c.Code, c.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to save county %s/%s: %w", c.StateCode, c.Code, err)
	}
	return nil
}

func saveCommodity(ctx context.Context, db execer, c cims.Commodity) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO commodities (reinsurance_year, commodity_code, commodity_name, commodity_abbreviation)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(reinsurance_year, commodity_code) DO UPDATE SET
			commodity_name = excluded.commodity_name,
			commodity_abbreviation = excluded.commodity_abbreviation`,
		c.ReinsuranceYear, c.CommodityCode, c.CommodityName, c.CommodityAbbreviation,
	)
	if err != nil {
		return fmt.Errorf("failed to save commodity %s: %w", c.CommodityCode, err)
	}
	return nil
}

func saveTypeValue(ctx context.Context, db execer, v cims.TypeValue) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO type_values (type, code, value) VALUES (?, ?, ?)
		ON CONFLICT(type, code) DO UPDATE SET value = excluded.value`,
		v.Type, v.Code, v.Value,
	)
	if err != nil {
		return fmt.Errorf("failed to save type value %s/%s: %w", v.Type, v.Code, err)
	}
	return nil
}
