package certificates

type GradeLabel string

const (
	GradeExcellent    GradeLabel = "Excellent"
	GradeVeryGood     GradeLabel = "Very Good"
	GradeGood         GradeLabel = "Good"
	GradePass         GradeLabel = "Pass"
	GradeInsufficient GradeLabel = "Insufficient"
)

// gradeBands is ordered by descending inclusive lower bound
var gradeBands = []struct {
	min   float64
	label GradeLabel
}{
	{90, GradeExcellent},
	{80, GradeVeryGood},
	{70, GradeGood},
	{60, GradePass},
}

// Grade maps a score to its band. Scores are compared as given.
func Grade(score float64) GradeLabel {
	for _, band := range gradeBands {
		if score >= band.min {
			return band.label
		}
	}
	return GradeInsufficient
}
