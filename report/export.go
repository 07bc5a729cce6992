package report

import (
	"fmt"
	"io"

	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/policydetail"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbooks.
const (
	PoliciesSheet  = "Policies"
	PolicySheet    = "Policy"
	GridsSheet     = "Grids"
	IntervalsSheet = "Intervals"
)

// ContentType is the media type of the exported workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var policyHeaders = []string{
	"Reinsurance Year", "Policy Number", "AIP Code", "Insured Name", "State Code",
	"Agent Key", "Commodity Code", "County Codes", "Insurance Keys",
}

// WritePolicies writes the policy listing as an XLSX workbook.
func WritePolicies(w io.Writer, policies []cims.PolicySummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PoliciesSheet); err != nil {
		return err
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}
	if err := writeHeader(f, PoliciesSheet, policyHeaders, style); err != nil {
		return err
	}

	for i, p := range policies {
		if err := writeRow(f, PoliciesSheet, i+2,
			p.ReinsuranceYear, p.PolicyNumber, p.AIPCode, p.InsuredName, p.LocationStateCode,
			p.AgentKey, p.CommodityCode, p.LocationCountyCode, p.InsuranceKeys,
		); err != nil {
			return err
		}
	}

	f.SetColWidth(PoliciesSheet, "A", "C", 15)
	f.SetColWidth(PoliciesSheet, "D", "D", 30)
	f.SetColWidth(PoliciesSheet, "E", "I", 18)

	return f.Write(w)
}

var gridHeaders = []string{
	"County Id", "Commodity", "County", "Grid Id", "Sub-County Code", "Intended Use",
	"Irrigation Practice", "Organic Practice", "Share Percent", "Insurable Acreage",
	"Insurable Colonies", "Insured Acreage", "Insured Colonies", "Coverage Level",
	"Productivity Factor", "Producer Premium",
}

var intervalHeaders = []string{
	"Grid Id", "Interval Id", "Acreage Key", "Interval Code", "Interval Name",
	"Percent Of Interval", "Total Coverage", "Total Premium", "Subsidy", "Producer Premium",
}

// WritePolicyDetail writes a finalized policy view as an XLSX workbook with
// a header sheet, one row per grid and one row per interval.
func WritePolicyDetail(w io.Writer, p *policydetail.Policy) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PolicySheet); err != nil {
		return err
	}
	for _, name := range []string{GridsSheet, IntervalsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	summary := [][2]string{
		{"Insured Name", p.InsuredName},
		{"Reinsurance Year", p.ReinsuranceYear},
		{"Policy Number", p.PolicyNumber},
		{"AIP Code", p.AIPCode},
		{"Producer Key", p.ProducerKey},
		{"Agent Key", p.AgentKey},
		{"State", p.StateAbbreviation},
	}
	for i, kv := range summary {
		if err := writeRow(f, PolicySheet, i+1, kv[0], kv[1]); err != nil {
			return err
		}
	}
	f.SetColStyle(PolicySheet, "A", style)
	f.SetColWidth(PolicySheet, "A", "A", 20)
	f.SetColWidth(PolicySheet, "B", "B", 35)

	if err := writeHeader(f, GridsSheet, gridHeaders, style); err != nil {
		return err
	}
	if err := writeHeader(f, IntervalsSheet, intervalHeaders, style); err != nil {
		return err
	}

	gridRow, intervalRow := 2, 2
	for _, c := range p.Counties {
		for _, g := range c.Grids {
			if err := writeRow(f, GridsSheet, gridRow,
				c.ID, c.CommodityName, c.CountyName, g.ID, g.SubCountyCode, g.IntendedUse,
				g.IrrigationPractice, g.OrganicPractice, policydetail.Value(g.SharePercent),
				policydetail.Value(g.TotalInsurableAcreage), policydetail.Value(g.TotalInsurableColonies),
				policydetail.Value(g.TotalInsuredAcreage), policydetail.Value(g.TotalInsuredColonies),
				g.CoverageLevelPercent, g.ProductivityFactor, g.TotalProducerPremiumAmount,
			); err != nil {
				return err
			}
			gridRow++

			for _, iv := range g.Intervals {
				if err := writeRow(f, IntervalsSheet, intervalRow,
					g.ID, iv.ID, iv.AcreageKey, iv.IntervalCode, iv.IntervalName,
					iv.PercentOfInterval, iv.TotalCoverage, iv.TotalPremiumAmount,
					iv.SubsidyAmount, iv.ProducerPremiumAmount,
				); err != nil {
					return err
				}
				intervalRow++
			}
		}
	}

	f.SetColWidth(GridsSheet, "A", "P", 16)
	f.SetColWidth(IntervalsSheet, "A", "J", 16)

	return f.Write(w)
}

// =============================================================================
// HELPERS
// =============================================================================

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values...); err != nil {
		return err
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
