package policydetail

import (
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/practice"
)

// Assemble builds the nested view of one producer's policy.
//
// The header takes the agent from the first insurance record. Each insurance
// record becomes one county whose grids come from the acreage rows carrying
// its insurance key; rows of other keys are ignored.
func Assemble(producer cims.Producer, insurance []cims.InsuranceInForce, acreage []cims.Acreage) *Policy {
	p := &Policy{
		InsuredName:     producer.InsuredName(),
		ReinsuranceYear: producer.ReinsuranceYear,
		AIPCode:         producer.AIPCode,
		ProducerKey:     producer.ProducerKey,
		PolicyNumber:    producer.PolicyNumber,
		StateCode:       producer.LocationStateCode,
		Counties:        []County{},
	}
	if len(insurance) > 0 {
		p.AgentKey = insurance[0].AgentKey
	}

	byInsurance := make(map[string][]cims.Acreage)
	for _, a := range acreage {
		byInsurance[a.InsuranceKey] = append(byInsurance[a.InsuranceKey], a)
	}

	for _, ins := range insurance {
		p.Counties = append(p.Counties, County{
			InsuranceKey:  ins.InsuranceKey,
			CommodityCode: ins.CommodityCode,
			CountyCode:    ins.LocationCountyCode,
			Grids:         buildGrids(ins, byInsurance[ins.InsuranceKey]),
		})
	}
	return p
}

// buildGrids groups a county's acreage by sub-county code.
func buildGrids(ins cims.InsuranceInForce, rows []cims.Acreage) []Grid {
	var codes []string
	bySubCounty := make(map[string][]cims.Acreage)
	for _, a := range rows {
		if a.SubCountyCode == "" {
			continue
		}
		if _, seen := bySubCounty[a.SubCountyCode]; !seen {
			codes = append(codes, a.SubCountyCode)
		}
		bySubCounty[a.SubCountyCode] = append(bySubCounty[a.SubCountyCode], a)
	}

	intendedUse := ins.IntendedUse()

	// Insurable quantities are searched across the whole county, not the grid.
	insurableAcres := firstNonBlank(rows, cims.Acreage.Insurable, func(a cims.Acreage) string { return a.ReportedAcreage })
	insurableColonies := firstNonBlank(rows, cims.Acreage.Insurable, func(a cims.Acreage) string { return a.ReportedColonies })

	grids := make([]Grid, 0, len(codes))
	for _, code := range codes {
		gridRows := bySubCounty[code]
		labels := resolveLabels(intendedUse, gridRows)

		grids = append(grids, Grid{
			SubCountyCode:          code,
			IntendedUse:            labels.intendedUse,
			IrrigationPractice:     labels.irrigation,
			OrganicPractice:        labels.organic,
			SharePercent:           firstNonBlank(gridRows, anyRow, func(a cims.Acreage) string { return a.InsuredSharePercent }),
			TotalInsurableAcreage:  insurableAcres,
			TotalInsurableColonies: insurableColonies,
			TotalInsuredAcreage:    firstNonBlank(gridRows, cims.Acreage.Insured, func(a cims.Acreage) string { return a.TotalInsuredAcreage }),
			TotalInsuredColonies:   firstNonBlank(gridRows, cims.Acreage.Insured, func(a cims.Acreage) string { return a.TotalInsuredColonies }),
			CoverageLevelPercent:   ins.CoverageLevelPercent,
			ProductivityFactor:     ins.PriceElectionPercent,
			Intervals:              buildIntervals(gridRows),
		})
	}
	return grids
}

// resolveLabels decides the intended use, irrigation and organic labels of a grid.
func resolveLabels(intendedUse string, rows []cims.Acreage) practiceLabels {
	switch intendedUse {
	case practice.Grazing:
		return practiceLabels{"Grazing", practice.Unspecified, practice.Unspecified}
	case practice.Haying:
		for _, strategy := range hayingStrategies {
			if labels, ok := strategy(rows); ok {
				return labels
			}
		}
		return practiceLabels{"Haying", practice.Unspecified, practice.Unspecified}
	default:
		return practiceLabels{intendedUse, "", ""}
	}
}

// buildIntervals emits one interval per insured row, in input order.
func buildIntervals(rows []cims.Acreage) []Interval {
	intervals := []Interval{}
	for _, a := range rows {
		if !a.Insured() {
			continue
		}
		code := a.IntervalCode
		if a.PracticeCode != "" {
			code = a.PracticeCode
		}
		coverage := a.TotalInsuredAcreage
		if a.TotalInsuredColonies != "" {
			coverage = a.TotalInsuredColonies
		}
		intervals = append(intervals, Interval{
			AcreageKey:            a.AcreageKey,
			IntervalCode:          code,
			PercentOfInterval:     a.PercentOfValue,
			TotalCoverage:         coverage,
			TotalPremiumAmount:    a.TotalPremiumAmount,
			SubsidyAmount:         a.SubsidyAmount,
			ProducerPremiumAmount: ProducerPremium(a.TotalPremiumAmount, a.SubsidyAmount),
		})
	}
	return intervals
}

// ProducerPremium is premium minus subsidy, or "" if either does not parse.
func ProducerPremium(premium, subsidy string) string {
	p, ok := cims.ParseAmount(premium)
	if !ok {
		return ""
	}
	s, ok := cims.ParseAmount(subsidy)
	if !ok {
		return ""
	}
	return p.Sub(s).String()
}

func anyRow(cims.Acreage) bool { return true }

// firstNonBlank returns the first non-blank value among rows accepted by keep.
func firstNonBlank(rows []cims.Acreage, keep func(cims.Acreage) bool, get func(cims.Acreage) string) *string {
	for _, a := range rows {
		if !keep(a) {
			continue
		}
		if v := get(a); !cims.IsBlank(v) {
			return &v
		}
	}
	return nil
}
