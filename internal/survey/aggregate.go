package survey

import (
	"math"
	"slices"
	"strings"

	"github.com/zheruizz/another.ai-app/internal/models"
)

const (
	// z95 is the standard normal quantile for a two-sided 95% interval.
	z95             = 1.96
	maxClusterCount = 5
)

// Tally accumulates one persona's samples across all questions of a run.
type Tally struct {
	Total      int
	CountA     int
	CountB     int
	Rationales []string
}

// Add counts sample. Empty rationales are not kept.
func (t *Tally) Add(sample Sample) {
	t.Total++
	if sample.Preference == models.VariantB {
		t.CountB++
	} else {
		t.CountA++
	}
	if rationale := strings.TrimSpace(sample.Rationale); rationale != "" {
		t.Rationales = append(t.Rationales, sample.Rationale)
	}
}

// Summary is the aggregated outcome of a Tally.
type Summary struct {
	VariantAPreference float64
	VariantBPreference float64
	// ConfidenceInterval is the Wilson half-width around the majority share.
	ConfidenceInterval float64
	RationaleClusters  []models.RationaleCluster
}

// Aggregate computes the preference shares, the 95% Wilson half-width and the top rationale clusters of t.
func Aggregate(t Tally) Summary {
	var pA float64
	if t.Total > 0 {
		pA = float64(t.CountA) / float64(t.Total)
	}
	pB := 1 - pA
	return Summary{
		VariantAPreference: pA,
		VariantBPreference: pB,
		ConfidenceInterval: WilsonHalfWidth(t.Total, max(pA, pB), z95),
		RationaleClusters:  ClusterRationales(t.Rationales, maxClusterCount),
	}
}

// WilsonHalfWidth returns the half-width of the Wilson score interval for proportion p over n trials.
func WilsonHalfWidth(n int, p float64, z float64) float64 {
	if n <= 0 {
		return 0
	}
	trials := float64(n)
	z2 := z * z
	denominator := 1 + z2/trials
	return z * math.Sqrt(p*(1-p)/trials+z2/(4*trials*trials)) / denominator
}

// ClusterRationales groups rationales by case-insensitive trimmed text and returns at most k clusters, largest first.
// Ties keep the order in which the texts first appeared.
func ClusterRationales(rationales []string, k int) []models.RationaleCluster {
	clusters := []models.RationaleCluster{}
	index := make(map[string]int)
	for _, rationale := range rationales {
		key := strings.ToLower(strings.TrimSpace(rationale))
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			clusters[i].Count++
			continue
		}
		index[key] = len(clusters)
		clusters = append(clusters, models.RationaleCluster{Text: key, Count: 1})
	}
	slices.SortStableFunc(clusters, func(a, b models.RationaleCluster) int {
		return b.Count - a.Count
	})
	if len(clusters) > k {
		clusters = clusters[:max(k, 0)]
	}
	return clusters
}
