package design_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/db47h/hde/design"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *design.Document {
	d := design.New("half adder")
	d.Nodes = []design.Node{
		{ID: 0, Tag: "SWITCH", X: 0, Y: 0},
		{ID: 1, Tag: "NOT", X: 100, Y: 0, Rotation: 1},
	}
	d.Wires = []design.Wire{
		{SrcID: 0, SrcPort: "O", DstID: 1, DstPort: "I", Direction: design.Horizontal, Bend: 0.5},
	}
	return d
}

func TestSaveLoad(t *testing.T) {
	d := sample()
	path := filepath.Join(t.TempDir(), "design.yaml")
	require.NoError(t, design.Save(path, d))

	got, err := design.Load(path)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestRead_yaml(t *testing.T) {
	src := `
id: 6f1c2a9e-8d3b-4d6e-9a47-1b2c3d4e5f60
nodes:
  - {id: 3, tag: AND, x: 10, y: 20, rotation: 2}
  - {id: 7, tag: JUNCTION, x: 0, y: 0}
wires:
  - {src_id: 3, src_port: O, dst_id: 7, dst_port: P2, direction: vertical, bend: 1}
`
	d, err := design.Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, d.Nodes, 2)
	assert.Equal(t, design.Node{ID: 3, Tag: "AND", X: 10, Y: 20, Rotation: 2}, d.Nodes[0])
	require.Len(t, d.Wires, 1)
	assert.Equal(t, design.Vertical, d.Wires[0].Direction)
	assert.Equal(t, 1.0, d.Wires[0].Bend)
}

func TestValidate(t *testing.T) {
	td := []struct {
		name   string
		mutate func(d *design.Document)
		errMsg string
	}{
		{"bad id", func(d *design.Document) { d.ID = "nope" }, "invalid document id"},
		{"duplicate node", func(d *design.Document) { d.Nodes[1].ID = 0 }, "duplicate id"},
		{"rotation", func(d *design.Document) { d.Nodes[0].Rotation = 4 }, "rotation 4"},
		{"missing tag", func(d *design.Document) { d.Nodes[0].Tag = "" }, "missing tag"},
		{"unknown node", func(d *design.Document) { d.Wires[0].DstID = 42 }, "unknown destination node 42"},
		{"direction", func(d *design.Document) { d.Wires[0].Direction = "diagonal" }, "invalid direction"},
		{"bend", func(d *design.Document) { d.Wires[0].Bend = 1.5 }, "out of range"},
	}
	for _, tc := range td {
		t.Run(tc.name, func(t *testing.T) {
			d := sample()
			tc.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
	assert.NoError(t, sample().Validate())
}

func TestRead_unknownField(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, design.Write(&b, sample()))
	src := b.String() + "extra: 1\n"
	_, err := design.Read(strings.NewReader(src))
	assert.Error(t, err)
}
