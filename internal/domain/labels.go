package domain

// LabelBand is one threshold band of a label table: a value in
// [Minimum, Maximum] earns Label. Bands are ordered and the first
// match wins.
type LabelBand struct {
	Minimum float64 `json:"minimum" yaml:"minimum"`
	Maximum float64 `json:"maximum" yaml:"maximum"`
	Label   string  `json:"label"   yaml:"label"`
}

// LabelTable is an ordered list of bands for one category and metric.
type LabelTable []LabelBand

// Clone returns a value copy of the table. The stored tables are shared
// reference data; any per-classification scaling must operate on a
// copy.
func (t LabelTable) Clone() LabelTable {
	if t == nil {
		return nil
	}
	out := make(LabelTable, len(t))
	copy(out, t)
	return out
}

// LabelStructure is the per-country threshold document, with separate
// tables for carbon emission and energy expenditure per category. The
// "overall" table of a classification pass is derived by merging the
// scaled per-category bands (same label name, summed bounds).
type LabelStructure struct {
	CountryID      string                  `json:"countryId"      yaml:"countryId"`
	CarbonEmission map[Category]LabelTable `json:"carbonEmission" yaml:"carbonEmission"`
	EnergyExpended map[Category]LabelTable `json:"energyExpended" yaml:"energyExpended"`
}
