package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/cellgrav/internal/config"
	"github.com/san-kum/cellgrav/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Timestamp   time.Time          `json:"timestamp"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Force       string             `json:"force"`
	Window      int                `json:"propagation_window"`
	Gravity     float64            `json:"gravity"`
	Seed        int64              `json:"seed"`
	Ticks       int                `json:"ticks"`
	SimTime     float64            `json:"sim_time"`
	InitialMass float64            `json:"initial_mass"`
	FinalMass   float64            `json:"final_mass"`
	MassDrift   float64            `json:"mass_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

// TickRecord is one row of ticks.csv.
type TickRecord struct {
	Tick        int     `csv:"tick"`
	Time        float64 `csv:"time"`
	Dt          float64 `csv:"dt"`
	Mass        float64 `csv:"total_mass"`
	MaxMass     float64 `csv:"max_mass"`
	MaxVelocity float64 `csv:"max_velocity"`
	MaxAccel    float64 `csv:"max_accel"`
}

func NewTickRecord(r sim.TickResult) TickRecord {
	return TickRecord{
		Tick:        r.Tick,
		Time:        r.Time,
		Dt:          r.Dt,
		Mass:        r.Mass,
		MaxMass:     r.Stats.MaxMass,
		MaxVelocity: r.Stats.MaxVelocity,
		MaxAccel:    r.Stats.MaxAccel,
	}
}

func Records(result *sim.Result) []TickRecord {
	records := make([]TickRecord, len(result.Ticks))
	for i, r := range result.Ticks {
		records[i] = NewTickRecord(r)
	}
	return records
}

func NewMetadata(name string, cfg *config.Config, result *sim.Result) RunMetadata {
	meta := RunMetadata{
		ID:          fmt.Sprintf("%s_%d", name, time.Now().UnixNano()),
		Name:        name,
		Timestamp:   time.Now(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Force:       cfg.Force,
		Window:      cfg.PropagationWindow,
		Gravity:     cfg.Gravity,
		Seed:        cfg.Seed.Seed,
		Ticks:       result.TicksTaken,
		InitialMass: result.InitialMass,
		FinalMass:   result.FinalMass,
		MassDrift:   result.MassDrift,
		Metrics:     result.Metrics,
	}
	if n := len(result.Ticks); n > 0 {
		meta.SimTime = result.Ticks[n-1].Time
	}
	return meta
}

// Save writes metadata.json, ticks.csv and config.yaml into a new run directory and
// returns its id.
func (s *Store) Save(name string, cfg *config.Config, result *sim.Result) (string, error) {
	meta := NewMetadata(name, cfg, result)
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "ticks.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	records := Records(result)
	if err := gocsv.MarshalFile(&records, csvFile); err != nil {
		return "", fmt.Errorf("writing ticks.csv: %w", err)
	}

	if err := config.Save(filepath.Join(runDir, "config.yaml"), cfg); err != nil {
		return "", fmt.Errorf("writing config.yaml: %w", err)
	}

	return meta.ID, nil
}

// List returns stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTicks(runID string) ([]TickRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "ticks.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records := []TickRecord{}
	if err := gocsv.UnmarshalFile(file, &records); err != nil {
		return nil, fmt.Errorf("reading ticks.csv: %w", err)
	}
	return records, nil
}

// LoadConfig reads the configuration a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, "config.yaml"))
}
