package metrics

import "fmt"

// Kind identifies one of the nine per-file metrics.
type Kind int

const (
	Size Kind = iota
	LOCTouched
	NR
	NAuth
	LOCAdded
	MaxLOCAdded
	AvgLOCAdded
	Churn
	MaxChurn

	numKinds
)

// AllKinds lists every metric in output column order.
var AllKinds = []Kind{Size, LOCTouched, NR, NAuth, LOCAdded, MaxLOCAdded, AvgLOCAdded, Churn, MaxChurn}

var kindNames = [numKinds]string{
	Size:        "size",
	LOCTouched:  "LOC_touched",
	NR:          "NR",
	NAuth:       "NAuth",
	LOCAdded:    "LOC_added",
	MaxLOCAdded: "MAX_LOC_added",
	AvgLOCAdded: "AVG_LOC_added",
	Churn:       "churn",
	MaxChurn:    "MAX_churn",
}

// String returns the column name of the metric.
func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a column name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}
