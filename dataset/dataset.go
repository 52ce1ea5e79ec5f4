// Package dataset reads node and edge records from JSON, YAML or TOML
// files.
//
// Records are kept as generic maps so unknown keys survive into node and
// edge attributes. Numbers are normalised to float64 whatever the source
// format decoded them as.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"graphview/core"
)

// Format is a supported file encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatTOML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownFormat = errors.New("unknown dataset format")
	ErrInvalid       = errors.New("invalid dataset")
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Dataset is a graph as read from disk.
type Dataset struct {
	Nodes []core.Record
	Edges []core.Record
}

type document struct {
	Nodes []map[string]any `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges []map[string]any `json:"edges" yaml:"edges" toml:"edges"`
}

// Load reads and validates the dataset at path.
func Load(path string) (*Dataset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	ds, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Decode reads a dataset in the given format without validating it.
func Decode(r io.Reader, format Format) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s dataset: %w", format, err)
	}

	ds := &Dataset{
		Nodes: make([]core.Record, 0, len(doc.Nodes)),
		Edges: make([]core.Record, 0, len(doc.Edges)),
	}
	for _, n := range doc.Nodes {
		ds.Nodes = append(ds.Nodes, core.Record(normalizeMap(n)))
	}
	for _, e := range doc.Edges {
		ds.Edges = append(ds.Edges, core.Record(normalizeMap(e)))
	}
	return ds, nil
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// normalize converts decoder-specific numbers to float64 and nested maps
// to map[string]any.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case map[string]any:
		return normalizeMap(x)
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeMap(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}

type nodeRef struct {
	ID string `validate:"omitempty,max=256"`
}

type edgeRef struct {
	Source string `validate:"required"`
	Target string `validate:"required"`
}

type envelope struct {
	Nodes []nodeRef `validate:"required,min=1,dive"`
	Edges []edgeRef `validate:"dive"`
}

var validate = validator.New()

// Validate checks that there is at least one node, that every edge names
// both endpoints and that every named endpoint exists. Node ids are
// optional; the engine assigns them.
func (d *Dataset) Validate() error {
	env := envelope{
		Nodes: make([]nodeRef, 0, len(d.Nodes)),
		Edges: make([]edgeRef, 0, len(d.Edges)),
	}
	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		id := n.ID()
		env.Nodes = append(env.Nodes, nodeRef{ID: id})
		if id != "" {
			ids[id] = true
		}
	}
	for _, e := range d.Edges {
		env.Edges = append(env.Edges, edgeRef{Source: e.String("source"), Target: e.String("target")})
	}

	if err := validate.Struct(env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	for _, e := range env.Edges {
		for _, id := range []string{e.Source, e.Target} {
			if !ids[id] {
				return fmt.Errorf("%w: %w", ErrInvalid, &core.UnknownEntityError{Kind: core.KindNode, ID: id})
			}
		}
	}
	return nil
}
