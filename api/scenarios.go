/*
scenarios.go - Sample dataset loaders for testing and demonstrations

PURPOSE:
  Provides pre-built datasets that populate the database with realistic
  pasture, rangeland and forage policies. Each scenario shows how a
  different kind of grid is presented in the policy detail view.

AVAILABLE SCENARIOS:
  haying-organic:  Haying grids labelled by organic/irrigation codes
  haying-practice: Haying grids labelled by the practice code table
  grazing:         Grazing grids with an insurable-only row
  multi-county:    One producer, two counties and two agents

HOW SCENARIOS WORK:
  1. Reset database (clear all data)
  2. Import the shared reference tables and agents
  3. Import the scenario producers, insurance and acreage

USAGE VIA API:
  POST /api/v2/scenarios/load
  {"scenario_id": "haying-organic"}

USAGE VIA CLI:
  cims seed --scenario grazing

NOTE:
  Scenarios reset the database. Only use in development/demo environments.
  Loading requires an administrator client.

SEE ALSO:
  - handlers.go: Handler context
  - cmd/server/main.go: seed command
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wsr/cims/access"
	"github.com/wsr/cims/cims"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "haying-organic",
		Name:        "Haying (Organic Codes)",
		Description: "Certified organic irrigated haying grid with two intervals",
		Category:    "haying",
	},
	{
		ID:          "haying-practice",
		Name:        "Haying (Practice Table)",
		Description: "Transitional non-irrigated haying labelled from practice codes",
		Category:    "haying",
	},
	{
		ID:          "grazing",
		Name:        "Grazing",
		Description: "Grazing grid with insured and insurable-only acreage",
		Category:    "grazing",
	},
	{
		ID:          "multi-county",
		Name:        "Multi-County",
		Description: "One producer insured in two counties through two agents",
		Category:    "grazing",
	},
}

// Scenarios returns the available sample datasets.
func Scenarios() []ScenarioDTO {
	return scenarios
}

// ScenarioDataset returns the records of a sample dataset.
func ScenarioDataset(id string) (cims.Dataset, bool) {
	var d cims.Dataset
	switch id {
	case "haying-organic":
		d = hayingOrganicDataset()
	case "haying-practice":
		d = hayingPracticeDataset()
	case "grazing":
		d = grazingDataset()
	case "multi-county":
		d = multiCountyDataset()
	default:
		return cims.Dataset{}, false
	}
	withReference(&d)
	return d, true
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a sample dataset. Only
// administrators may load scenarios.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if !access.FromContext(r.Context()).IsAdmin {
		writeError(w, http.StatusForbidden, "Loading scenarios requires an administrator", cims.ErrForbidden)
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, ok := ScenarioDataset(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := h.Store.Import(ctx, d); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Logger.Info("scenario loaded", zap.String("scenario", req.ScenarioID), zap.Int("records", d.Size()))

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SHARED REFERENCE DATA
// =============================================================================

func withReference(d *cims.Dataset) {
	d.States = []cims.State{
		{Code: "48", Name: "Texas", Abbreviation: "TX"},
		{Code: "40", Name: "Oklahoma", Abbreviation: "OK"},
		{Code: "20", Name: "Kansas", Abbreviation: "KS"},
	}
	d.Counties = []cims.County{
		{StateCode: "48", Code: "001", Name: "Anderson"},
		{StateCode: "48", Code: "003", Name: "Andrews"},
		{StateCode: "48", Code: "453", Name: "Travis"},
		{StateCode: "40", Code: "005", Name: "Atoka"},
		{StateCode: "20", Code: "173", Name: "Sedgwick"},
	}
	d.Commodities = []cims.Commodity{
		{ReinsuranceYear: "2023", CommodityCode: "0088", CommodityName: "Pasture,Rangeland,Forage", CommodityAbbreviation: "PRF"},
		{ReinsuranceYear: "2023", CommodityCode: "1191", CommodityName: "Apiculture", CommodityAbbreviation: "API"},
		{ReinsuranceYear: "2023", CommodityCode: "0332", CommodityName: "Annual Forage", CommodityAbbreviation: "AF"},
	}
	d.TypeValues = []cims.TypeValue{
		{Type: "IntendedUse", Code: "007", Value: "Grazing"},
		{Type: "IntendedUse", Code: "030", Value: "Haying"},
		{Type: "NonPremiumAcreage", Code: "I", Value: "Insurable"},
	}
	d.Agents = []cims.Agent{
		{AgentKey: "AG100", ReinsuranceYear: "2023", FirstName: "Mary", MiddleName: "Q", LastName: "Jones"},
		{AgentKey: "AG100", ReinsuranceYear: "2024", FirstName: "Mary", MiddleName: "Q", LastName: "Jones"},
		{AgentKey: "AG200", ReinsuranceYear: "2024", FirstName: "Luis", LastName: "Ortega"},
	}
	d.AgencyContacts = []cims.AgencyContact{
		{AgentKey: "AG100", AgencyName: "High Plains Insurance", EmailAddress: "mary.jones@highplains.example.com"},
		{AgentKey: "AG200", AgencyName: "Red River Agency", EmailAddress: "luis@redriver.example.com"},
	}
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func hayingOrganicDataset() cims.Dataset {
	return cims.Dataset{
		Producers: []cims.Producer{
			{ProducerKey: "PP1001", ReinsuranceYear: "2024", AIPCode: "AA", PolicyNumber: "7100101", FirstName: "Ada", LastName: "Whitfield", LocationStateCode: "48"},
		},
		Addresses: []cims.ProducerAddress{
			{ProducerKey: "PP1001", ReinsuranceYear: "2024", AddressLine1: "1200 Ranch Rd", City: "Austin", StateAbbrev: "TX", PostalCode: "78701"},
		},
		Insurance: []cims.InsuranceInForce{
			{InsuranceKey: "IF1001", ProducerKey: "PP1001", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "453",
				AgentKey: "AG100", TypeCode: "030", CoverageLevelPercent: "0.90", PriceElectionPercent: "1.50"},
		},
		Acreage: []cims.Acreage{
			{AcreageKey: "AC1001", InsuranceKey: "IF1001", ReinsuranceYear: "2024", SubCountyCode: "25412",
				OrganicPracticeCode: "001", IrrigationPracticeCode: "002", InsuredSharePercent: "1.000",
				TotalInsuredAcreage: "320", IntervalCode: "465", PercentOfValue: "50", TotalPremiumAmount: "812.40", SubsidyAmount: "414.32"},
			{AcreageKey: "AC1002", InsuranceKey: "IF1001", ReinsuranceYear: "2024", SubCountyCode: "25412",
				OrganicPracticeCode: "001", IrrigationPracticeCode: "002", InsuredSharePercent: "1.000",
				TotalInsuredAcreage: "320", IntervalCode: "468", PercentOfValue: "50", TotalPremiumAmount: "644.10", SubsidyAmount: "328.49"},
		},
	}
}

func hayingPracticeDataset() cims.Dataset {
	return cims.Dataset{
		Producers: []cims.Producer{
			{ProducerKey: "PP2001", ReinsuranceYear: "2024", AIPCode: "AA", PolicyNumber: "7200201", BusinessName: "Cedar Creek Farms", LocationStateCode: "20"},
		},
		Addresses: []cims.ProducerAddress{
			{ProducerKey: "PP2001", ReinsuranceYear: "2024", AddressLine1: "PO Box 88", City: "Wichita", StateAbbrev: "KS", PostalCode: "67202"},
		},
		OtherPersons: []cims.OtherPerson{
			{ProducerKey: "PP2001", ReinsuranceYear: "2024", PersonType: "P", FirstName: "Owen", LastName: "Barrett"},
		},
		Insurance: []cims.InsuranceInForce{
			{InsuranceKey: "IF2001", ProducerKey: "PP2001", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "173",
				AgentKey: "AG200", IntendedUseCode: "030", CoverageLevelPercent: "0.85", PriceElectionPercent: "1.20"},
		},
		Acreage: []cims.Acreage{
			{AcreageKey: "AC2001", InsuranceKey: "IF2001", ReinsuranceYear: "2024", SubCountyCode: "18107",
				PracticeCode: "588", InsuredSharePercent: "0.500", TotalInsuredAcreage: "160", PercentOfValue: "60",
				TotalPremiumAmount: "301.77", SubsidyAmount: "153.90"},
			{AcreageKey: "AC2002", InsuranceKey: "IF2001", ReinsuranceYear: "2024", SubCountyCode: "18107",
				PracticeCode: "591", InsuredSharePercent: "0.500", TotalInsuredAcreage: "160", PercentOfValue: "40",
				TotalPremiumAmount: "188.23", SubsidyAmount: "96.00"},
		},
	}
}

func grazingDataset() cims.Dataset {
	return cims.Dataset{
		Producers: []cims.Producer{
			{ProducerKey: "PP3001", ReinsuranceYear: "2024", AIPCode: "AA", PolicyNumber: "7300301", FirstName: "Caleb", LastName: "Rhodes", LocationStateCode: "40"},
		},
		Addresses: []cims.ProducerAddress{
			{ProducerKey: "PP3001", ReinsuranceYear: "2024", AddressLine1: "RR 2", City: "Atoka", StateAbbrev: "OK", PostalCode: "74525"},
		},
		Insurance: []cims.InsuranceInForce{
			{InsuranceKey: "IF3001", ProducerKey: "PP3001", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "005",
				AgentKey: "AG200", TypeCode: "007", CoverageLevelPercent: "0.80", PriceElectionPercent: "1.00"},
		},
		Acreage: []cims.Acreage{
			{AcreageKey: "AC3001", InsuranceKey: "IF3001", ReinsuranceYear: "2024", SubCountyCode: "20811",
				InsuredSharePercent: "1.000", TotalInsuredAcreage: "640", IntervalCode: "629", PercentOfValue: "70",
				TotalPremiumAmount: "950.00", SubsidyAmount: "484.50"},
			{AcreageKey: "AC3002", InsuranceKey: "IF3001", ReinsuranceYear: "2024", SubCountyCode: "20811",
				InsuredSharePercent: "1.000", TotalInsuredAcreage: "640", IntervalCode: "633", PercentOfValue: "30",
				TotalPremiumAmount: "402.10", SubsidyAmount: "205.07"},
			{AcreageKey: "AC3003", InsuranceKey: "IF3001", ReinsuranceYear: "2024", SubCountyCode: "20811",
				NonPremiumAcreageCode: cims.NonPremiumInsurable, ReportedAcreage: "1200"},
		},
	}
}

func multiCountyDataset() cims.Dataset {
	return cims.Dataset{
		Producers: []cims.Producer{
			{ProducerKey: "PP4001", ReinsuranceYear: "2023", AIPCode: "AA", PolicyNumber: "7400401", BusinessName: "Double Bar Cattle Co", LocationStateCode: "48"},
			{ProducerKey: "PP4001", ReinsuranceYear: "2024", AIPCode: "AA", PolicyNumber: "7400401", BusinessName: "Double Bar Cattle Co", LocationStateCode: "48"},
		},
		Addresses: []cims.ProducerAddress{
			{ProducerKey: "PP4001", ReinsuranceYear: "2024", AddressLine1: "500 County Rd 12", City: "Andrews", StateAbbrev: "TX", PostalCode: "79714"},
		},
		Insurance: []cims.InsuranceInForce{
			{InsuranceKey: "IF4001", ProducerKey: "PP4001", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "001",
				AgentKey: "AG100", TypeCode: "007", CoverageLevelPercent: "0.90", PriceElectionPercent: "1.30"},
			{InsuranceKey: "IF4002", ProducerKey: "PP4001", ReinsuranceYear: "2024", CommodityCode: "0088", LocationCountyCode: "003",
				AgentKey: "AG200", TypeCode: "007", CoverageLevelPercent: "0.90", PriceElectionPercent: "1.30"},
			{InsuranceKey: "IF4000", ProducerKey: "PP4001", ReinsuranceYear: "2023", CommodityCode: "0088", LocationCountyCode: "001",
				AgentKey: "AG100", TypeCode: "007", CoverageLevelPercent: "0.85", PriceElectionPercent: "1.00"},
		},
		Acreage: []cims.Acreage{
			{AcreageKey: "AC4001", InsuranceKey: "IF4001", ReinsuranceYear: "2024", SubCountyCode: "24713",
				InsuredSharePercent: "1.000", TotalInsuredAcreage: "480", IntervalCode: "625", PercentOfValue: "50",
				TotalPremiumAmount: "520.00", SubsidyAmount: "265.20"},
			{AcreageKey: "AC4002", InsuranceKey: "IF4001", ReinsuranceYear: "2024", SubCountyCode: "24713",
				InsuredSharePercent: "1.000", TotalInsuredAcreage: "480", IntervalCode: "630", PercentOfValue: "50",
				TotalPremiumAmount: "488.00", SubsidyAmount: "248.88"},
			{AcreageKey: "AC4003", InsuranceKey: "IF4002", ReinsuranceYear: "2024", SubCountyCode: "23102",
				InsuredSharePercent: "0.750", TotalInsuredAcreage: "900", IntervalCode: "627", PercentOfValue: "100",
				TotalPremiumAmount: "1310.45", SubsidyAmount: "668.33"},
			{AcreageKey: "AC4000", InsuranceKey: "IF4000", ReinsuranceYear: "2023", SubCountyCode: "24713",
				InsuredSharePercent: "1.000", TotalInsuredAcreage: "480", IntervalCode: "625", PercentOfValue: "100",
				TotalPremiumAmount: "905.00", SubsidyAmount: "461.55"},
		},
	}
}
