package classifier

import "math"

const (
	gradientIterations = 2000
	learningRate       = 0.1
)

// scaler standardizes features to zero mean and unit variance. Parameters
// are exported so model snapshots serialize cleanly.
type scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func (s *scaler) fit(samples [][]float64) {
	dims := len(samples[0])
	s.Mean = make([]float64, dims)
	s.Std = make([]float64, dims)
	n := float64(len(samples))
	for _, row := range samples {
		for d, v := range row {
			s.Mean[d] += v
		}
	}
	for d := range s.Mean {
		s.Mean[d] /= n
	}
	for _, row := range samples {
		for d, v := range row {
			diff := v - s.Mean[d]
			s.Std[d] += diff * diff
		}
	}
	for d := range s.Std {
		s.Std[d] = math.Sqrt(s.Std[d] / n)
		if s.Std[d] == 0 {
			// Constant feature: leave it centered but unscaled.
			s.Std[d] = 1
		}
	}
}

func (s *scaler) transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for d, v := range row {
		out[d] = (v - s.Mean[d]) / s.Std[d]
	}
	return out
}

// logisticModel is a binary logistic-regression model fitted by
// deterministic full-batch gradient descent, so repeated training on the
// same data yields identical coefficients.
type logisticModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

func (m *logisticModel) fit(samples [][]float64, labels []float64) {
	dims := len(samples[0])
	m.Weights = make([]float64, dims)
	m.Intercept = 0
	n := float64(len(samples))

	for iter := 0; iter < gradientIterations; iter++ {
		grad := make([]float64, dims)
		var gradIntercept float64
		for i, row := range samples {
			err := sigmoid(m.decision(row)) - labels[i]
			for d, v := range row {
				grad[d] += err * v
			}
			gradIntercept += err
		}
		for d := range m.Weights {
			m.Weights[d] -= learningRate * grad[d] / n
		}
		m.Intercept -= learningRate * gradIntercept / n
	}
}

func (m *logisticModel) decision(row []float64) float64 {
	z := m.Intercept
	for d, v := range row {
		z += m.Weights[d] * v
	}
	return z
}

func (m *logisticModel) probability(row []float64) float64 {
	return sigmoid(m.decision(row))
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// accuracy is the fraction of samples whose 0.5-thresholded probability
// matches the label.
func accuracy(probs, labels []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	correct := 0
	for i, p := range probs {
		pred := 0.0
		if p >= 0.5 {
			pred = 1.0
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(probs))
}

// aucROC computes the area under the ROC curve via the rank-sum identity:
// the probability that a random positive scores above a random negative,
// counting ties as half.
func aucROC(probs, labels []float64) float64 {
	var pos, neg, wins float64
	for i, pi := range probs {
		if labels[i] != 1 {
			continue
		}
		pos++
		for j, pj := range probs {
			if labels[j] == 1 {
				continue
			}
			switch {
			case pi > pj:
				wins++
			case pi == pj:
				wins += 0.5
			}
		}
	}
	for _, l := range labels {
		if l != 1 {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}
	return wins / (pos * neg)
}
