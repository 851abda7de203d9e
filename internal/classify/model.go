package classify

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTemperature scales squared distances before the softmax. With
// 32x32 inputs in [0,1] it spreads typical confidences over a usable range.
const DefaultTemperature = 10.0

// Model scores a preprocessed input vector against every class.
type Model interface {
	Labels() []string
	InputSize() int
	Scores(x []float32) ([]float64, error)
}

// Scored is one class with its probability.
type Scored struct {
	Label string
	Score float64
}

// Prediction is the best class and the runners-up.
type Prediction struct {
	Label      string
	Confidence float64
	Top        []Scored
}

// TemplateModel is a nearest-centroid classifier: one mean image per
// class, scored by a softmax over negative squared distance.
type TemplateModel struct {
	Names       []string
	Size        int
	Temperature float64
	Templates   [][]float32
	Samples     []int
}

func (m *TemplateModel) Labels() []string { return m.Names }
func (m *TemplateModel) InputSize() int   { return m.Size }

func (m *TemplateModel) Scores(x []float32) ([]float64, error) {
	if len(x) != m.Size*m.Size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), m.Size*m.Size)
	}
	temp := m.Temperature
	if temp <= 0 {
		temp = DefaultTemperature
	}

	logits := make([]float64, len(m.Templates))
	for i, t := range m.Templates {
		var d float64
		for j, v := range t {
			diff := float64(x[j] - v)
			d += diff * diff
		}
		logits[i] = -d / temp
	}
	return softmax(logits), nil
}

func softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	max := logits[0]
	for _, v := range logits {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Predict runs m on x and keeps the k best classes.
func Predict(m Model, x []float32, k int) (*Prediction, error) {
	if m == nil {
		return nil, ErrNoModel
	}
	scores, err := m.Scores(x)
	if err != nil {
		return nil, err
	}
	top := TopK(m.Labels(), scores, k)
	if len(top) == 0 {
		return nil, fmt.Errorf("%w: model has no classes", ErrNoModel)
	}
	return &Prediction{Label: top[0].Label, Confidence: top[0].Score, Top: top}, nil
}

// TopK returns the k highest-scoring labels, best first. Ties keep class
// order.
func TopK(labels []string, scores []float64, k int) []Scored {
	n := len(scores)
	if len(labels) < n {
		n = len(labels)
	}
	all := make([]Scored, n)
	for i := 0; i < n; i++ {
		all[i] = Scored{Label: labels[i], Score: scores[i]}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })
	if k > 0 && k < len(all) {
		all = all[:k]
	}
	return all
}

// FormatConfidence renders a probability as a percentage with two
// decimals, e.g. 0.9234 -> "92.34%".
func FormatConfidence(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}
