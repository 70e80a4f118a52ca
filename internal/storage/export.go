package storage

import (
	"encoding/json"
	"errors"
	"io"
	"os"
)

type ExportData struct {
	ID            string             `json:"id"`
	Source        string             `json:"source"`
	FieldConstant float64            `json:"field_constant"`
	TickMs        int                `json:"tick_ms"`
	Ticks         int                `json:"ticks"`
	Duration      float64            `json:"duration"`
	Times         []float64          `json:"times"`
	Charges       []ExportCharge     `json:"charges"`
	Metrics       map[string]float64 `json:"metrics"`
}

type ExportCharge struct {
	Kind string    `json:"kind"`
	Q    float64   `json:"q"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// Export gathers a stored run into one document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	tr, err := s.LoadTrajectory(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{
		ID:            meta.ID,
		Source:        meta.Source,
		FieldConstant: meta.FieldConstant,
		TickMs:        meta.TickMs,
		Ticks:         meta.Ticks,
		Duration:      meta.Duration,
		Times:         tr.Times,
		Charges:       make([]ExportCharge, len(tr.X)),
		Metrics:       meta.Metrics,
	}

	// Runs saved without an arrangement still export their tracks.
	arr, err := s.LoadArrangement(runID)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for i := range tr.X {
		data.Charges[i] = ExportCharge{X: tr.X[i], Y: tr.Y[i]}
		if arr != nil && i < len(arr.Charges) {
			data.Charges[i].Kind = arr.Charges[i].Kind().String()
			data.Charges[i].Q = arr.Charges[i].Q()
		}
	}
	return data, nil
}

func ExportJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
