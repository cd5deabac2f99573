package certificates

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  GradeLabel
	}{
		{100, GradeExcellent},
		{90, GradeExcellent},
		{89.99, GradeVeryGood},
		{80, GradeVeryGood},
		{79.5, GradeGood},
		{70, GradeGood},
		{69.999, GradePass},
		{60, GradePass},
		{59.99, GradeInsufficient},
		{0, GradeInsufficient},
		{-10, GradeInsufficient},
		{120, GradeExcellent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %v", tt.score)
	}
}
