package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphview/core"
)

const jsonDoc = `{
  "nodes": [
    {"id": "a", "label": "Alpha", "x": 10, "meta": {"rank": 2}},
    {"id": "b", "type": "person"}
  ],
  "edges": [{"id": "e", "source": "a", "target": "b"}]
}`

const yamlDoc = `
nodes:
  - id: a
    label: Alpha
    x: 10
    meta:
      rank: 2
  - id: b
    type: person
edges:
  - id: e
    source: a
    target: b
`

const tomlDoc = `
[[nodes]]
id = "a"
label = "Alpha"
x = 10
[nodes.meta]
rank = 2

[[nodes]]
id = "b"
type = "person"

[[edges]]
id = "e"
source = "a"
target = "b"
`

func want() *Dataset {
	return &Dataset{
		Nodes: []core.Record{
			{"id": "a", "label": "Alpha", "x": 10.0, "meta": map[string]any{"rank": 2.0}},
			{"id": "b", "type": "person"},
		},
		Edges: []core.Record{
			{"id": "e", "source": "a", "target": "b"},
		},
	}
}

func TestDecode_FormatsAgree(t *testing.T) {
	tests := []struct {
		format Format
		doc    string
	}{
		{FormatJSON, jsonDoc},
		{FormatYAML, yamlDoc},
		{FormatTOML, tomlDoc},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.doc), tt.format)
			require.NoError(t, err)
			if diff := cmp.Diff(want(), got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, got.Validate())
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"g.json", FormatJSON, false},
		{"g.YAML", FormatYAML, false},
		{"dir/g.yml", FormatYAML, false},
		{"g.toml", FormatTOML, false},
		{"g.csv", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.err {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		ds      Dataset
		unknown string
	}{
		{"no nodes", Dataset{}, ""},
		{"edge without target", Dataset{
			Nodes: []core.Record{{"id": "a"}},
			Edges: []core.Record{{"source": "a"}},
		}, ""},
		{"dangling edge", Dataset{
			Nodes: []core.Record{{"id": "a"}},
			Edges: []core.Record{{"source": "a", "target": "z"}},
		}, "z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ds.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			if tt.unknown != "" {
				var ue *core.UnknownEntityError
				require.True(t, errors.As(err, &ue))
				assert.Equal(t, tt.unknown, ue.ID)
			}
		})
	}
}

func TestValidate_NodesWithoutIDs(t *testing.T) {
	ds := Dataset{Nodes: []core.Record{{"label": "anonymous"}}}
	assert.NoError(t, ds.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Nodes, 2)
	assert.Equal(t, "a", ds.Nodes[0].ID())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"nodes": []}`), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(filepath.Join(dir, "graph.txt"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
