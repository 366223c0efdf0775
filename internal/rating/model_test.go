package rating_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/rating"
)

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadModel_Predict(t *testing.T) {
	path := writeModel(t, `intercept: 3
coefficients:
  guests: -0.1
  nights: 0.05
  room_type: 0.5
  price: 0.0001
min: 1
max: 5
`)

	m, err := rating.LoadModel(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// 3 - 0.2 + 0.05 + 0.5 + 0.28 = 3.63
	got := m.Predict(domain.RatingFeatures{Guests: 2, Nights: 1, RoomType: 1, Price: 2800})
	if math.Abs(got-3.63) > 1e-9 {
		t.Errorf("expected 3.63, got %f", got)
	}
}

func TestPredict_Clamps(t *testing.T) {
	m := &rating.Model{Intercept: 10, Min: 1, Max: 5}
	if got := m.Predict(domain.RatingFeatures{}); got != 5 {
		t.Errorf("expected clamp to 5, got %f", got)
	}

	m = &rating.Model{Intercept: -10, Min: 1, Max: 5}
	if got := m.Predict(domain.RatingFeatures{}); got != 1 {
		t.Errorf("expected clamp to 1, got %f", got)
	}
}

func TestLoadModel_Misconfigured(t *testing.T) {
	cases := map[string]string{
		"bounds":  "intercept: 1\nmin: 5\nmax: 1\n",
		"garbage": "intercept: [oops\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := rating.LoadModel(writeModel(t, body))
			var mis *domain.ErrMisconfigured
			if !errors.As(err, &mis) {
				t.Fatalf("expected ErrMisconfigured, got %v", err)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := rating.LoadModel(filepath.Join(t.TempDir(), "absent.yaml"))
		var mis *domain.ErrMisconfigured
		if !errors.As(err, &mis) {
			t.Fatalf("expected ErrMisconfigured, got %v", err)
		}
	})
}

func TestLocalPredictor_ContextCancelled(t *testing.T) {
	p := rating.NewLocalPredictor(&rating.Model{Intercept: 4, Min: 1, Max: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Predict(ctx, domain.RatingFeatures{}); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}

	got, err := p.Predict(context.Background(), domain.RatingFeatures{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != 4 {
		t.Errorf("expected 4, got %f", got)
	}
}

func TestLoadModel_ShippedAsset(t *testing.T) {
	m, err := rating.LoadModel("../../assets/rating_model.yaml")
	if err != nil {
		t.Fatalf("expected shipped model to load, got %v", err)
	}
	got := m.Predict(domain.RatingFeatures{Guests: 3, Nights: 1, RoomType: 1, Price: 2800})
	if got < m.Min || got > m.Max {
		t.Errorf("prediction %f outside [%f, %f]", got, m.Min, m.Max)
	}
}
