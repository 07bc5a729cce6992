package policydetail

import (
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/practice"
)

type practiceLabels struct {
	intendedUse string
	irrigation  string
	organic     string
}

// practiceStrategy derives haying labels from a grid's rows. ok is false
// when the rows carry nothing the strategy can use.
type practiceStrategy func(rows []cims.Acreage) (practiceLabels, bool)

// hayingStrategies are tried in order; the first definite result wins.
var hayingStrategies = []practiceStrategy{
	fromPracticeFields,
	fromPracticeCode,
}

var organicLabels = map[string]string{
	"997": practice.NotOrganic,
	"001": practice.Certified,
	"002": practice.Transitional,
}

var irrigationLabels = map[string]string{
	"002": practice.Irrigated,
	"003": practice.NonIrrigated,
}

// fromPracticeFields reads the organic and irrigation codes of the first row
// that reports an organic practice. Codes without a label stay Unspecified.
func fromPracticeFields(rows []cims.Acreage) (practiceLabels, bool) {
	for _, a := range rows {
		if cims.IsBlank(a.OrganicPracticeCode) {
			continue
		}
		labels := practiceLabels{"Haying", practice.Unspecified, practice.Unspecified}
		if l, ok := organicLabels[a.OrganicPracticeCode]; ok {
			labels.organic = l
		}
		if l, ok := irrigationLabels[a.IrrigationPracticeCode]; ok {
			labels.irrigation = l
		}
		return labels, true
	}
	return practiceLabels{}, false
}

// fromPracticeCode decodes the first non-blank practice code of the grid.
func fromPracticeCode(rows []cims.Acreage) (practiceLabels, bool) {
	for _, a := range rows {
		if cims.IsBlank(a.PracticeCode) {
			continue
		}
		d := practice.Resolve(practice.Haying, a.PracticeCode)
		return practiceLabels{d.IntendedUse, d.Irrigation, d.Organic}, true
	}
	return practiceLabels{}, false
}
