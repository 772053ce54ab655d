package valuation

import (
	"math"
	"time"
)

// DataQualityTier grades how useful a comparable is as market evidence.
type DataQualityTier string

const (
	TierExcellent DataQualityTier = "excellent"
	TierGood      DataQualityTier = "good"
	TierFair      DataQualityTier = "fair"
	TierPoor      DataQualityTier = "poor"
)

// ComparableQuality is the recency and size grading of one comparable.
type ComparableQuality struct {
	ComparableID string          `json:"comparable_id"`
	MonthsOld    int             `json:"months_old"`
	Recency      DataQualityTier `json:"recency"`
	// SizeDifference is nil when the subject has no square footage.
	SizeDifference *float64        `json:"size_difference"`
	SizeSimilarity DataQualityTier `json:"size_similarity"`
}

// ComparableStatistics describes the adjusted price-per-square-foot series
// of a comparable set.
type ComparableStatistics struct {
	SampleSize             int     `json:"sample_size"`
	MeanPricePerSqFt       float64 `json:"mean_price_per_sqft"`
	StandardDeviation      float64 `json:"standard_deviation"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	// WeightTotal is the raw sum of comparable weights. It is never
	// normalised.
	WeightTotal float64             `json:"weight_total"`
	Quality     []ComparableQuality `json:"quality"`
}

// MonthsOld returns whole 30-day months between saleDate and asOf.
func MonthsOld(saleDate, asOf time.Time) int {
	days := asOf.Sub(saleDate).Hours() / 24
	return int(math.Floor(days / DaysPerMonth))
}

// RecencyTier grades a sale by its age in months.
func RecencyTier(monthsOld int) DataQualityTier {
	switch {
	case monthsOld <= RecencyExcellentMonths:
		return TierExcellent
	case monthsOld <= RecencyGoodMonths:
		return TierGood
	case monthsOld <= RecencyFairMonths:
		return TierFair
	}
	return TierPoor
}

// SizeSimilarityTier grades a comparable by its relative size difference
// from the subject. A subject without square footage grades poor and ok is
// false.
func SizeSimilarityTier(compSqFt, subjectSqFt float64) (tier DataQualityTier, diff float64, ok bool) {
	if subjectSqFt <= 0 {
		return TierPoor, 0, false
	}
	diff = math.Abs(compSqFt-subjectSqFt) / subjectSqFt
	switch {
	case diff <= SizeExcellentDiff:
		return TierExcellent, diff, true
	case diff <= SizeGoodDiff:
		return TierGood, diff, true
	case diff <= SizeFairDiff:
		return TierFair, diff, true
	}
	return TierPoor, diff, true
}

// Analyze computes statistics over comps relative to subject, aging sales
// against asOf. An empty set yields zero statistics.
func Analyze(comps []Comparable, subject SubjectProperty, asOf time.Time) ComparableStatistics {
	stats := ComparableStatistics{
		SampleSize: len(comps),
		Quality:    make([]ComparableQuality, 0, len(comps)),
	}

	series := make([]float64, 0, len(comps))
	for _, c := range comps {
		adjusted := AdjustComparable(c, subject.SquareFootage)
		series = append(series, adjusted.AdjustedPricePerSqFt)
		stats.WeightTotal += c.Weight

		months := MonthsOld(c.SaleDate, asOf)
		q := ComparableQuality{
			ComparableID: c.ID,
			MonthsOld:    months,
			Recency:      RecencyTier(months),
		}
		tier, diff, ok := SizeSimilarityTier(c.SquareFootage, subject.SquareFootage)
		q.SizeSimilarity = tier
		if ok {
			q.SizeDifference = &diff
		}
		stats.Quality = append(stats.Quality, q)
	}

	stats.MeanPricePerSqFt, stats.StandardDeviation = meanStdDev(series)
	if stats.MeanPricePerSqFt != 0 {
		stats.CoefficientOfVariation = stats.StandardDeviation / stats.MeanPricePerSqFt * 100
	}
	return stats
}
