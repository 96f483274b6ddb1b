package dataset

import (
	"sort"

	"github.com/panbanda/defectmine/pkg/metrics"
	"github.com/panbanda/defectmine/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// MetricSummary describes the distribution of one metric column.
type MetricSummary struct {
	Name   string  `json:"name" yaml:"name"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Median float64 `json:"median" yaml:"median"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summary describes a dataset.
type Summary struct {
	Rows       int             `json:"rows" yaml:"rows"`
	Buggy      int             `json:"buggy" yaml:"buggy"`
	BuggyRatio float64         `json:"buggy_ratio" yaml:"buggy_ratio"`
	Releases   int             `json:"releases" yaml:"releases"`
	Metrics    []MetricSummary `json:"metrics" yaml:"metrics"`
}

// Summarize computes per-metric statistics over rows.
func Summarize(rows []models.FeatureRow) Summary {
	s := Summary{Rows: len(rows)}
	releases := make(map[int]struct{})
	for _, r := range rows {
		releases[r.Release] = struct{}{}
		if r.Buggy {
			s.Buggy++
		}
	}
	s.Releases = len(releases)
	if len(rows) == 0 {
		return s
	}
	s.BuggyRatio = float64(s.Buggy) / float64(len(rows))

	for _, kind := range metrics.AllKinds {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = float64(column(r, kind))
		}
		sort.Float64s(values)
		mean, std := stat.MeanStdDev(values, nil)
		if len(values) < 2 {
			std = 0
		}
		s.Metrics = append(s.Metrics, MetricSummary{
			Name:   kind.String(),
			Mean:   mean,
			StdDev: std,
			Median: stat.Quantile(0.5, stat.Empirical, values, nil),
			Max:    values[len(values)-1],
		})
	}
	return s
}

func column(r models.FeatureRow, kind metrics.Kind) int {
	switch kind {
	case metrics.Size:
		return r.Size
	case metrics.LOCTouched:
		return r.LOCTouched
	case metrics.NR:
		return r.NR
	case metrics.NAuth:
		return r.NAuth
	case metrics.LOCAdded:
		return r.LOCAdded
	case metrics.MaxLOCAdded:
		return r.MaxLOCAdded
	case metrics.AvgLOCAdded:
		return r.AvgLOCAdded
	case metrics.Churn:
		return r.Churn
	case metrics.MaxChurn:
		return r.MaxChurn
	default:
		return 0
	}
}
