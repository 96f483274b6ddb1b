// Package dataset assembles labeled feature rows and writes them out.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/defectmine/pkg/metrics"
	"github.com/panbanda/defectmine/pkg/models"
)

// Labels answers buggy-set membership.
type Labels interface {
	Contains(key models.CompositeKey) bool
}

// Merge emits one row per key of the size column, ordered by release and
// then by tree order within a release. Metrics never computed for a key
// are zero.
func Merge(table *metrics.Table, labels Labels) []models.FeatureRow {
	keys := table.Keys()
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Release < keys[j].Release
	})

	rows := make([]models.FeatureRow, 0, len(keys))
	for _, key := range keys {
		v := func(k metrics.Kind) int {
			n, _ := table.Value(key, k)
			return n
		}
		rows = append(rows, models.FeatureRow{
			Release:     key.Release,
			ClassPath:   key.Path,
			Size:        v(metrics.Size),
			LOCTouched:  v(metrics.LOCTouched),
			NR:          v(metrics.NR),
			NAuth:       v(metrics.NAuth),
			LOCAdded:    v(metrics.LOCAdded),
			MaxLOCAdded: v(metrics.MaxLOCAdded),
			AvgLOCAdded: v(metrics.AvgLOCAdded),
			Churn:       v(metrics.Churn),
			MaxChurn:    v(metrics.MaxChurn),
			Buggy:       labels != nil && labels.Contains(key),
		})
	}
	return rows
}

// WriteCSV writes the header and every row.
func WriteCSV(w io.Writer, rows []models.FeatureRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write row %s: %w", r.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Fingerprint is an order-sensitive digest of rows. Two runs over the same
// repository and ticket snapshot produce the same value.
func Fingerprint(rows []models.FeatureRow) uint64 {
	d := xxhash.New()
	for _, r := range rows {
		for _, field := range r.Record() {
			_, _ = d.WriteString(field)
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.Write([]byte{'\n'})
	}
	return d.Sum64()
}
