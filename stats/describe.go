package stats

import (
	"math"
	"sort"

	"github.com/pivolan/review_analyzer/domain/models"
)

// ScoreQuantiles are the levels reported by DescribeScores.
var ScoreQuantiles = []float64{0.1, 0.25, 0.75, 0.9}

// ScoreStats describes the distribution of the numeric scores of a row set.
type ScoreStats struct {
	Count     int
	Average   float64
	Median    float64
	Min       float64
	Max       float64
	Quantiles map[float64]float64
	IQR       float64 // interquartile range
	Outliers  []float64
}

// DescribeScores summarizes present scores; nil when no row has one.
func DescribeScores(rows []models.NormalizedRecord) *ScoreStats {
	var numbers []float64
	for _, row := range rows {
		if row.Score != nil {
			numbers = append(numbers, *row.Score)
		}
	}
	if len(numbers) == 0 {
		return nil
	}

	sorted := make([]float64, len(numbers))
	copy(sorted, numbers)
	sort.Float64s(sorted)

	sum := 0.0
	for _, num := range numbers {
		sum += num
	}

	var median float64
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	} else {
		median = sorted[len(sorted)/2]
	}

	quantiles := make(map[float64]float64, len(ScoreQuantiles))
	for _, p := range ScoreQuantiles {
		quantiles[p] = roundToTwo(calculateQuantile(sorted, p))
	}
	iqr := quantiles[0.75] - quantiles[0.25]

	return &ScoreStats{
		Count:     len(numbers),
		Average:   roundToTwo(sum / float64(len(numbers))),
		Median:    roundToTwo(median),
		Min:       sorted[0],
		Max:       sorted[len(sorted)-1],
		Quantiles: quantiles,
		IQR:       roundToTwo(iqr),
		Outliers:  findOutliers(sorted, quantiles[0.25], quantiles[0.75], iqr),
	}
}

// calculateQuantile interpolates linearly between the closest ranks.
func calculateQuantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	floor := math.Floor(pos)
	ceil := math.Ceil(pos)
	if floor == ceil {
		return sorted[int(pos)]
	}
	lower := sorted[int(floor)]
	upper := sorted[int(ceil)]
	return lower + (pos-floor)*(upper-lower)
}

// findOutliers returns the distinct values outside 1.5 IQR of the quartiles.
func findOutliers(sorted []float64, q1, q3, iqr float64) []float64 {
	lowerBound := q1 - 1.5*iqr
	upperBound := q3 + 1.5*iqr

	var outliers []float64
	for i, num := range sorted {
		if i > 0 && num == sorted[i-1] {
			continue
		}
		if num < lowerBound || num > upperBound {
			outliers = append(outliers, num)
		}
	}
	return outliers
}

func roundToTwo(num float64) float64 {
	return math.Round(num*100) / 100
}
