package storage

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/logger"
	"github.com/san-kum/cellgrav/internal/sim"
)

// TelemetryWriter streams one CSV row per tick. It is a sim.Observer.
type TelemetryWriter struct {
	file          *os.File
	every         int
	headerWritten bool
	err           error
}

// NewTelemetryWriter creates path and writes every n-th tick (n < 1 means
// every tick).
func NewTelemetryWriter(path string, every int) (*TelemetryWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry file: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &TelemetryWriter{file: f, every: every}, nil
}

func (w *TelemetryWriter) OnTick(r sim.TickResult, g *grid.Grid) {
	if w.err != nil || r.Tick%w.every != 0 {
		return
	}
	records := []TickRecord{NewTickRecord(r)}
	if !w.headerWritten {
		w.err = gocsv.Marshal(records, w.file)
		w.headerWritten = true
	} else {
		w.err = gocsv.MarshalWithoutHeaders(records, w.file)
	}
	if w.err != nil {
		logger.WithComponent("telemetry").Error("write failed", "tick", r.Tick, "error", w.err)
	}
}

// Close flushes the file and reports the first write error, if any.
func (w *TelemetryWriter) Close() error {
	if err := w.file.Close(); err != nil && w.err == nil {
		return err
	}
	return w.err
}
