package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cellgrav/internal/config"
	"github.com/san-kum/cellgrav/internal/sim"
)

type ExportData struct {
	Meta    RunMetadata        `json:"meta"`
	Config  ExportConfig       `json:"config"`
	Ticks   []TickRecord       `json:"ticks"`
	Metrics map[string]float64 `json:"metrics"`
}

type ExportConfig struct {
	CellSize          float64 `json:"cell_size"`
	Density           float64 `json:"density"`
	MaxCellOffset     float64 `json:"max_cell_offset"`
	MaxDeltaTime      float64 `json:"max_delta_time"`
	Expansion         bool    `json:"expansion"`
	PropagationWindow int     `json:"propagation_window"`
}

func newExportConfig(cfg *config.Config) ExportConfig {
	return ExportConfig{
		CellSize:          cfg.CellSize,
		Density:           cfg.Density,
		MaxCellOffset:     cfg.MaxCellOffset,
		MaxDeltaTime:      cfg.MaxDeltaTime,
		Expansion:         cfg.Expansion,
		PropagationWindow: cfg.PropagationWindow,
	}
}

func newExportData(name string, cfg *config.Config, result *sim.Result) ExportData {
	return ExportData{
		Meta:    NewMetadata(name, cfg, result),
		Config:  newExportConfig(cfg),
		Ticks:   Records(result),
		Metrics: result.Metrics,
	}
}

// Export assembles a stored run for JSON output.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.LoadConfig(runID)
	if err != nil {
		return nil, err
	}
	ticks, err := s.LoadTicks(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Meta: *meta, Config: newExportConfig(cfg), Ticks: ticks, Metrics: meta.Metrics}, nil
}

// EncodeJSON writes data as indented JSON.
func EncodeJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path, name string, cfg *config.Config, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, name, cfg, result)
}

func WriteJSON(w io.Writer, name string, cfg *config.Config, result *sim.Result) error {
	data := newExportData(name, cfg, result)
	return EncodeJSON(w, &data)
}
