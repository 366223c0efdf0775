// Package rating loads the pre-trained guest-satisfaction model and serves
// predictions from it.
//
// The artifact is a linear model over the four booking features, trained
// offline and exported as YAML:
//
//	intercept: 3.2
//	coefficients:
//	  guests: -0.08
//	  nights: 0.04
//	  room_type: 0.35
//	  price: 0.0001
//	min: 1
//	max: 5
//
// Predictions are clamped to [min, max].
package rating

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/havensuites/concierge/internal/domain"

	"gopkg.in/yaml.v3"
)

// Coefficients weighs each feature.
type Coefficients struct {
	Guests   float64 `yaml:"guests"`
	Nights   float64 `yaml:"nights"`
	RoomType float64 `yaml:"room_type"`
	Price    float64 `yaml:"price"`
}

// Model is an immutable linear rating model.
type Model struct {
	Intercept    float64      `yaml:"intercept"`
	Coefficients Coefficients `yaml:"coefficients"`
	Min          float64      `yaml:"min"`
	Max          float64      `yaml:"max"`
}

// LoadModel reads and validates a model artifact. A missing or malformed
// artifact is a startup error.
func LoadModel(path string) (*Model, error) {
	if path == "" {
		return nil, &domain.ErrMisconfigured{Resource: "rating model", Reason: "no artifact path"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ErrMisconfigured{Resource: "rating model", Reason: err.Error()}
	}

	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &domain.ErrMisconfigured{Resource: "rating model", Reason: "parse " + path + ": " + err.Error()}
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that the bounds are usable and all weights are finite.
func (m *Model) Validate() error {
	for name, v := range map[string]float64{
		"intercept": m.Intercept,
		"guests":    m.Coefficients.Guests,
		"nights":    m.Coefficients.Nights,
		"room_type": m.Coefficients.RoomType,
		"price":     m.Coefficients.Price,
		"min":       m.Min,
		"max":       m.Max,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &domain.ErrMisconfigured{Resource: "rating model", Reason: name + " is not finite"}
		}
	}
	if m.Min >= m.Max {
		return &domain.ErrMisconfigured{
			Resource: "rating model",
			Reason:   fmt.Sprintf("min (%g) must be below max (%g)", m.Min, m.Max),
		}
	}
	return nil
}

// Predict scores one feature vector. It is a pure function of the model.
func (m *Model) Predict(f domain.RatingFeatures) float64 {
	y := m.Intercept +
		m.Coefficients.Guests*float64(f.Guests) +
		m.Coefficients.Nights*float64(f.Nights) +
		m.Coefficients.RoomType*float64(f.RoomType) +
		m.Coefficients.Price*float64(f.Price)
	return math.Min(m.Max, math.Max(m.Min, y))
}

// LocalPredictor serves predictions in-process from a loaded Model.
type LocalPredictor struct {
	model *Model
}

// NewLocalPredictor wraps a model as a port.RatingPredictor.
func NewLocalPredictor(m *Model) *LocalPredictor {
	return &LocalPredictor{model: m}
}

// Predict returns the model's rating. It honours an already-expired context
// so callers see the same timeout behaviour as with a remote predictor.
func (p *LocalPredictor) Predict(ctx context.Context, f domain.RatingFeatures) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return p.model.Predict(f), nil
}
