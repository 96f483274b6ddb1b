package models

import "strconv"

// Header is the fixed column order of the dataset.
var Header = []string{
	"release", "class_name", "size", "LOC_touched", "NR", "NAuth",
	"LOC_added", "MAX_LOC_added", "AVG_LOC_added", "churn", "MAX_churn", "buggy",
}

// FeatureRow is one labeled (release, class) sample.
type FeatureRow struct {
	Release     int    `json:"release"`
	ClassPath   string `json:"class_name"`
	Size        int    `json:"size"`
	LOCTouched  int    `json:"loc_touched"`
	NR          int    `json:"nr"`
	NAuth       int    `json:"nauth"`
	LOCAdded    int    `json:"loc_added"`
	MaxLOCAdded int    `json:"max_loc_added"`
	AvgLOCAdded int    `json:"avg_loc_added"`
	Churn       int    `json:"churn"`
	MaxChurn    int    `json:"max_churn"`
	Buggy       bool   `json:"buggy"`
}

// Key returns the row's join key.
func (r FeatureRow) Key() CompositeKey {
	return Key(r.Release, r.ClassPath)
}

// Record renders the row in Header order.
func (r FeatureRow) Record() []string {
	buggy := "no"
	if r.Buggy {
		buggy = "yes"
	}
	return []string{
		strconv.Itoa(r.Release),
		r.ClassPath,
		strconv.Itoa(r.Size),
		strconv.Itoa(r.LOCTouched),
		strconv.Itoa(r.NR),
		strconv.Itoa(r.NAuth),
		strconv.Itoa(r.LOCAdded),
		strconv.Itoa(r.MaxLOCAdded),
		strconv.Itoa(r.AvgLOCAdded),
		strconv.Itoa(r.Churn),
		strconv.Itoa(r.MaxChurn),
		buggy,
	}
}
