// Package analytics aggregates persisted analyses into summary statistics.
package analytics

import (
	"math"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/domain"
)

// Summarize folds history records into an AnalyticsSummary. Records with a
// zero avg_age or processing time do not count towards those averages.
func Summarize(records []domain.AnalysisHistory) domain.AnalyticsSummary {
	summary := domain.AnalyticsSummary{
		EmotionDistribution: map[string]int{},
		RaceDistribution:    map[string]int{},
	}
	if len(records) == 0 {
		return summary
	}

	var (
		ageSum, timeSum     float64
		ageCount, timeCount int
	)

	for _, r := range records {
		summary.TotalAnalyses++
		summary.TotalFaces += r.FacesCount

		if r.AvgAge != 0 {
			ageSum += r.AvgAge
			ageCount++
		}
		if r.ProcessingTimeMs != 0 {
			timeSum += r.ProcessingTimeMs
			timeCount++
		}

		for _, e := range r.Emotions {
			summary.EmotionDistribution[e]++
		}
		for _, c := range r.Races {
			summary.RaceDistribution[c]++
		}
	}

	summary.AvgAge = round(mean(ageSum, ageCount), 1)
	summary.AvgProcessingTime = round(mean(timeSum, timeCount), 2)

	return summary
}

// AverageAge is the mean age of the faces of one analysis, 0 when empty.
func AverageAge(faces []domain.FaceAnalysisResult) float64 {
	if len(faces) == 0 {
		return 0
	}
	var sum int
	for _, f := range faces {
		sum += f.Age.Value
	}
	return float64(sum) / float64(len(faces))
}

// TotalConfidence sums the detection confidence of every face.
func TotalConfidence(faces []domain.FaceAnalysisResult) float64 {
	var total float64
	for _, f := range faces {
		total += f.Confidence
	}
	return total
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
