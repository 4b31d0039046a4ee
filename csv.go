package heatgrid

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/twpayne/go-heatgrid/internal/ctxlog"
)

var (
	gridsLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heatgrid_grids_loaded_total",
		Help: "The total number of grids loaded",
	}, []string{"format"})
	gridLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heatgrid_grid_load_failures_total",
		Help: "The total number of grids that failed to load",
	}, []string{"format"})
)

// A ParseError is returned when a field cannot be parsed as a number.
type ParseError struct {
	Filename string
	Line     int
	Column   int
	Field    string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %q: %v", e.Filename, e.Line, e.Column, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type csvOptions struct {
	comma   rune
	comment rune
}

// A CSVOption sets an option on LoadCSV.
type CSVOption func(*csvOptions)

// WithComma sets the field delimiter.
func WithComma(comma rune) CSVOption {
	return func(o *csvOptions) {
		o.comma = comma
	}
}

// WithComment sets the comment character. Zero disables comments.
func WithComment(comment rune) CSVOption {
	return func(o *csvOptions) {
		o.comment = comment
	}
}

// LoadCSV loads a grid from the delimited text file filename in fsys.
func LoadCSV(ctx context.Context, fsys fs.FS, filename string, options ...CSVOption) (*Grid, error) {
	g, err := loadCSV(ctx, fsys, filename, options...)
	if err != nil {
		gridLoadFailures.WithLabelValues("csv").Inc()
		return nil, err
	}
	gridsLoaded.WithLabelValues("csv").Inc()
	return g, nil
}

func loadCSV(ctx context.Context, fsys fs.FS, filename string, options ...CSVOption) (*Grid, error) {
	o := csvOptions{
		comma:   ',',
		comment: '#',
	}
	for _, option := range options {
		option(&o)
	}

	file, err := fsys.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comma = o.comma
	r.Comment = o.comment
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	var values []float64
	rows, cols := 0, 0
	for {
		record, err := r.Read()
		var csvParseError *csv.ParseError
		switch {
		case errors.Is(err, io.EOF):
			if rows == 0 {
				return nil, fmt.Errorf("%s: %w", filename, ErrEmpty)
			}
			ctxlog.FromContext(ctx).Debug("loaded grid", "filename", filename, "rows", rows, "cols", cols)
			return NewGrid(rows, cols, values)
		case errors.As(err, &csvParseError) && errors.Is(csvParseError.Err, csv.ErrFieldCount):
			return nil, fmt.Errorf("%s:%d: %w", filename, csvParseError.Line, ErrNotRectangular)
		case err != nil:
			return nil, fmt.Errorf("%s: %w", filename, err)
		}

		if rows == 0 {
			cols = len(record)
			values = make([]float64, 0, cols)
		}
		line, _ := r.FieldPos(0)
		for i, field := range record {
			value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if errors.Is(err, strconv.ErrRange) {
				// Out of range values are kept as ±Inf or ±0.
				err = nil
			}
			if err != nil {
				var numError *strconv.NumError
				if errors.As(err, &numError) {
					err = numError.Err
				}
				return nil, &ParseError{
					Filename: filename,
					Line:     line,
					Column:   i + 1,
					Field:    field,
					Err:      err,
				}
			}
			values = append(values, value)
		}
		rows++
	}
}
