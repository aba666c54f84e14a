package analysis

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/logger"
	"golang.org/x/sync/errgroup"
)

// BatchConfig describes a sweep: resolution doubles from MinResolution to
// MaxResolution, the exponent runs over [MinExponent, MaxExponent] and the
// sample size doubles from 2 up to resolution/4.
type BatchConfig struct {
	MinResolution int
	MaxResolution int
	MinExponent   int
	MaxExponent   int
	Iterations    int
	Seed          int64
	Parallel      int
}

func DefaultBatch() BatchConfig {
	return BatchConfig{
		MinResolution: 256,
		MaxResolution: 1024,
		MinExponent:   1,
		MaxExponent:   3,
		Iterations:    10,
		Seed:          1,
		Parallel:      2,
	}
}

// Plan lists the parameter sets of a sweep in output order.
func (c BatchConfig) Plan() []Params {
	var plan []Params
	for res := c.MinResolution; res > 0 && res <= c.MaxResolution; res *= 2 {
		for exp := c.MinExponent; exp <= c.MaxExponent; exp++ {
			for sample := 2; sample <= res/4; sample *= 2 {
				plan = append(plan, Params{
					Resolution: res,
					Exponent:   exp,
					SampleSize: sample,
					Iterations: c.Iterations,
					Seed:       c.Seed + int64(len(plan)),
				})
			}
		}
	}
	return plan
}

// RunBatch evaluates every planned parameter set, at most Parallel at a
// time. Reports keep plan order.
func RunBatch(ctx context.Context, b compute.Backend, c BatchConfig) ([]Report, error) {
	plan := c.Plan()
	reports := make([]Report, len(plan))
	log := logger.WithComponent("precision")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.Parallel))

	for i, p := range plan {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = Compare(b, p)
			log.Debug("batch step done", "resolution", p.Resolution, "exponent", p.Exponent, "sample", p.SampleSize)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// WriteReports writes space separated rows
// "resolution exponent sampleSize positionError valueError".
func WriteReports(w io.Writer, reports []Report, header bool) error {
	cw := csv.NewWriter(w)
	cw.Comma = ' '
	out := gocsv.NewSafeCSVWriter(cw)
	if header {
		return gocsv.MarshalCSV(&reports, out)
	}
	return gocsv.MarshalCSVWithoutHeaders(&reports, out)
}

// AppendReports appends rows to path, creating it if needed.
func AppendReports(path string, reports []Report) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if err := WriteReports(f, reports, false); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadReports parses rows written by WriteReports without a header.
func ReadReports(r io.Reader) ([]Report, error) {
	cr := csv.NewReader(r)
	cr.Comma = ' '
	reports := []Report{}
	err := gocsv.UnmarshalCSVWithoutHeaders(gocsv.CSVReader(cr), &reports)
	return reports, err
}
