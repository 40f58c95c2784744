// Package weights turns ranked daily selections into target weight
// vectors keyed by execution date.
package weights

import (
	"fmt"

	"github.com/wonny/feval/internal/contracts"
)

// Selection is one chosen instrument with its signal rank
type Selection struct {
	Code string
	Rank int
}

// Scheme converts a selection list into a weight vector summing to 1
type Scheme interface {
	Name() string
	Weights(selected []Selection) contracts.WeightVector
}

// NewScheme resolves a config scheme name
func NewScheme(name string) (Scheme, error) {
	switch name {
	case "equal":
		return EqualWeight{}, nil
	case "score":
		return ScoreProportional{}, nil
	default:
		return nil, fmt.Errorf("unknown weighting scheme %q", name)
	}
}

// EqualWeight assigns 1/len(selected) to every pick.
// 선택 종목이 부족해도 분모는 실제 선택 수 — 합은 항상 1
type EqualWeight struct{}

func (EqualWeight) Name() string { return "equal" }

func (EqualWeight) Weights(selected []Selection) contracts.WeightVector {
	if len(selected) == 0 {
		return contracts.WeightVector{}
	}
	w := make(contracts.WeightVector, len(selected))
	share := 1.0 / float64(len(selected))
	for _, s := range selected {
		w[s.Code] = share
	}
	return w
}

// ScoreProportional weights picks by inverse rank (rank 0 scores 1,
// rank 1 scores 1/2, ...) then normalizes to sum 1
type ScoreProportional struct{}

func (ScoreProportional) Name() string { return "score" }

func (ScoreProportional) Weights(selected []Selection) contracts.WeightVector {
	if len(selected) == 0 {
		return contracts.WeightVector{}
	}

	scores := make(map[string]float64, len(selected))
	total := 0.0
	for _, s := range selected {
		score := 1.0 / float64(s.Rank+1)
		scores[s.Code] = score
		total += score
	}

	w := make(contracts.WeightVector, len(selected))
	for code, score := range scores {
		w[code] = score / total
	}
	return w
}
