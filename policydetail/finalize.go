package policydetail

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/practice"
)

// Lookup resolves reference names for Finalize. Missing entries resolve to "".
type Lookup interface {
	StateAbbreviation(ctx context.Context, stateCode string) (string, error)
	CommodityName(ctx context.Context, commodityCode string) (string, error)
	CountyName(ctx context.Context, stateCode, countyCode string) (string, error)
}

// Finalize numbers the view and attaches reference names.
//
// Ids start at 1 for each level and run depth-first across the whole policy,
// so the second county's first grid continues after the first county's last
// grid. Calling Finalize again renumbers from 1.
func Finalize(ctx context.Context, p *Policy, lookup Lookup) error {
	abbrev, err := lookup.StateAbbreviation(ctx, p.StateCode)
	if err != nil {
		return fmt.Errorf("state %q: %w", p.StateCode, err)
	}
	p.StateAbbreviation = abbrev
	p.ID = 1

	countyID, gridID, intervalID := 1, 1, 1
	for ci := range p.Counties {
		county := &p.Counties[ci]
		county.ID = countyID
		countyID++

		county.CommodityName = ""
		if county.CommodityCode != "" {
			if county.CommodityName, err = lookup.CommodityName(ctx, county.CommodityCode); err != nil {
				return fmt.Errorf("commodity %q: %w", county.CommodityCode, err)
			}
		}
		county.CountyName = ""
		if county.CountyCode != "" {
			if county.CountyName, err = lookup.CountyName(ctx, p.StateCode, county.CountyCode); err != nil {
				return fmt.Errorf("county %q: %w", county.CountyCode, err)
			}
		}

		for gi := range county.Grids {
			grid := &county.Grids[gi]
			grid.ID = gridID
			gridID++

			total := decimal.Zero
			for ii := range grid.Intervals {
				interval := &grid.Intervals[ii]
				interval.ID = intervalID
				intervalID++

				if interval.IntervalCode != "" {
					interval.IntervalName = practice.IntervalName(interval.IntervalCode)
				}
				if v, ok := cims.ParseAmount(interval.ProducerPremiumAmount); ok {
					total = total.Add(v)
				}
			}
			grid.TotalProducerPremiumAmount = total.String()
		}
	}
	return nil
}
