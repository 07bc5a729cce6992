/*
Package practice resolves RMA practice codes to display labels.

PURPOSE:
  Pasture, rangeland and forage policies encode the intended use, the
  two-month rainfall interval, the irrigation practice and the organic
  practice of a grid in a single three digit practice code. This package
  holds the static table that decodes those codes.

TABLE LAYOUT:
  Each practice family owns eleven consecutive codes, one per interval:

    base+0  "Jan - Feb"
    base+1  "Feb - Mar"
    ...
    base+10 "Nov - Dec"

  Haying ("030") families:
    625 Unspecified / Unspecified
    425 Irrigated / Not Organic
    465 Irrigated / Certified
    485 Irrigated / Transitional
    525 Non-Irrigated / Not Organic
    565 Non-Irrigated / Certified
    585 Non-Irrigated / Transitional

  Grazing ("007") has the single 625 family.

UNKNOWN CODES:
  Resolve is total. Pairs outside the table resolve to Unknown.

USAGE:
  d := practice.Resolve(practice.Haying, "465")
  // d.IntendedUse == "Haying", d.Interval == "Jan - Feb",
  // d.Irrigation == "Irrigated", d.Organic == "Certified"
*/
package practice

import "strconv"

// Intended use type codes with table entries.
const (
	Grazing = "007"
	Haying  = "030"
)

// Unspecified is the label for anything the table does not decode.
const Unspecified = "Unspecified"

// Irrigation and organic labels.
const (
	Irrigated    = "Irrigated"
	NonIrrigated = "Non-Irrigated"
	NotOrganic   = "Not Organic"
	Certified    = "Certified"
	Transitional = "Transitional"
)

// Detail is the decoded form of a practice code.
type Detail struct {
	IntendedUse string `json:"intended_use"`
	Interval    string `json:"interval"`
	Irrigation  string `json:"irrigation_practice"`
	Organic     string `json:"organic_practice"`
}

// Unknown is returned for codes outside the table.
var Unknown = Detail{
	IntendedUse: Unspecified,
	Interval:    Unspecified,
	Irrigation:  Unspecified,
	Organic:     Unspecified,
}

// Intervals are the eleven two-month bands in code order.
var Intervals = [...]string{
	"Jan - Feb", "Feb - Mar", "Mar - Apr", "Apr - May", "May - Jun", "Jun - Jul",
	"Jul - Aug", "Aug - Sep", "Sep - Oct", "Oct - Nov", "Nov - Dec",
}

type family struct {
	base       int
	irrigation string
	organic    string
}

type key struct {
	typeCode     string
	practiceCode string
}

var table = build()

func build() map[key]Detail {
	families := map[string][]family{
		Grazing: {
			{625, Unspecified, Unspecified},
		},
		Haying: {
			{625, Unspecified, Unspecified},
			{425, Irrigated, NotOrganic},
			{465, Irrigated, Certified},
			{485, Irrigated, Transitional},
			{525, NonIrrigated, NotOrganic},
			{565, NonIrrigated, Certified},
			{585, NonIrrigated, Transitional},
		},
	}
	labels := map[string]string{Grazing: "Grazing", Haying: "Haying"}

	t := make(map[key]Detail)
	for typeCode, fams := range families {
		for _, f := range fams {
			for offset, interval := range Intervals {
				t[key{typeCode, strconv.Itoa(f.base + offset)}] = Detail{
					IntendedUse: labels[typeCode],
					Interval:    interval,
					Irrigation:  f.irrigation,
					Organic:     f.organic,
				}
			}
		}
	}
	return t
}

// Resolve decodes a practice code under an intended use type code.
func Resolve(typeCode, practiceCode string) Detail {
	if d, ok := table[key{typeCode, practiceCode}]; ok {
		return d
	}
	return Unknown
}

// IntervalName returns the interval band of a code under the haying table,
// which covers every family the grazing table has.
func IntervalName(practiceCode string) string {
	return Resolve(Haying, practiceCode).Interval
}

// Len returns the number of table entries.
func Len() int {
	return len(table)
}
