package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kavikulu/shadowmine/internal/domain"
	"github.com/kavikulu/shadowmine/pkg/retrier"
)

const fetchTimeout = 30 * time.Second

// Loader reads named sequences from local csv/json files or http sources.
type Loader struct {
	l          *zap.Logger
	httpClient *http.Client
	retrier    *retrier.Retrier
}

// NewLoader creates a Loader.
func NewLoader(l *zap.Logger) *Loader {
	return &Loader{
		l:          l,
		httpClient: &http.Client{Timeout: fetchTimeout},
		retrier:    retrier.New(),
	}
}

// Load reads sequences from the given source, an http(s) url or a local
// file path. The format is taken from the extension, csv or json.
func (ld *Loader) Load(ctx context.Context, source string) ([]domain.NamedSequence, error) {
	var (
		sequences []domain.NamedSequence
		err       error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		sequences, err = ld.fetch(ctx, source)
	} else {
		sequences, err = ld.loadFile(source)
	}
	if err != nil {
		return nil, err
	}

	ld.l.Info("dataset loaded",
		zap.String("source", source),
		zap.Int("sequences", len(sequences)))

	return sequences, nil
}

// LoadAll reads every source in order and concatenates the sequences.
func (ld *Loader) LoadAll(ctx context.Context, sources []string) ([]domain.NamedSequence, error) {
	var all []domain.NamedSequence
	for _, source := range sources {
		sequences, err := ld.Load(ctx, source)
		if err != nil {
			return nil, err
		}
		all = append(all, sequences...)
	}
	return all, nil
}

func (ld *Loader) loadFile(p string) ([]domain.NamedSequence, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrap(err, "read dataset file")
	}
	return parse(data, filepath.Ext(p))
}

func (ld *Loader) fetch(ctx context.Context, source string) ([]domain.NamedSequence, error) {
	data, err := retrier.DoWithData(ld.retrier, ctx, func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create HTTP request")
		}

		resp, err := ld.httpClient.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "HTTP request failed")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read response body")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("dataset source returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		return body, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetch dataset %s", source)
	}

	ext := ""
	if u, err := url.Parse(source); err == nil {
		ext = path.Ext(u.Path)
	}
	if ext == "" {
		// endpoints without an extension are assumed to serve json
		ext = ".json"
	}

	return parse(data, ext)
}

func parse(data []byte, ext string) ([]domain.NamedSequence, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return parseCSV(data)
	case ".json":
		return parseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (expected .csv or .json)", ext)
	}
}

// parseCSV reads one sequence per column: the header row names the
// sequences, every following row contributes one value per column.
// Empty cells are skipped, so columns may have different lengths.
func parseCSV(data []byte) ([]domain.NamedSequence, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	sequences := make([]domain.NamedSequence, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("csv column %d has no name", i+1)
		}
		sequences[i].Name = name
	}

	row := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read csv row %d", row+1)
		}
		row++

		for i, cell := range record {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("incorrect value %q in csv column %q row %d: %w", cell, sequences[i].Name, row, err)
			}
			v, _ := d.Float64()
			sequences[i].Values = append(sequences[i].Values, v)
		}
	}

	return sequences, nil
}

func parseJSON(data []byte) ([]domain.NamedSequence, error) {
	var sequences []domain.NamedSequence
	if err := json.Unmarshal(data, &sequences); err != nil {
		return nil, errors.Wrap(err, "decode json dataset")
	}

	for i, s := range sequences {
		if s.Name == "" {
			return nil, fmt.Errorf("json sequence %d has no name", i)
		}
	}

	return sequences, nil
}
