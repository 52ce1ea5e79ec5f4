package model

// HideLabelScale is the zoom level below which labels are skipped.
const HideLabelScale = 0.7

// ColorPair is the border and background colour of a node.
type ColorPair struct {
	Border     string `json:"border,omitempty" yaml:"border,omitempty"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
}

// NodeColors holds the colours per status.
type NodeColors struct {
	Default   ColorPair `json:"default" yaml:"default"`
	Selection ColorPair `json:"selection" yaml:"selection"`
}

// FontOptions configures node labels.
type FontOptions struct {
	Color          string  `json:"color,omitempty" yaml:"color,omitempty"`
	SelectionColor string  `json:"selection_color,omitempty" yaml:"selection_color,omitempty"`
	Size           float64 `json:"size,omitempty" yaml:"size,omitempty"`
	Face           string  `json:"face,omitempty" yaml:"face,omitempty"`
}

// NodeOptions is the per-type style of a node.
type NodeOptions struct {
	Color NodeColors  `json:"color" yaml:"color"`
	Font  FontOptions `json:"font" yaml:"font"`
}

// DefaultNodeOptions returns the built-in node style.
func DefaultNodeOptions() NodeOptions {
	return NodeOptions{
		Color: NodeColors{
			Default:   ColorPair{Border: "#409eff", Background: "#409eff"},
			Selection: ColorPair{Border: "#ffc70d", Background: "#ffc70d"},
		},
		Font: FontOptions{
			Color:          "#444",
			SelectionColor: "#ffc70d",
			Size:           12,
			Face:           "PingFang SC",
		},
	}
}

// Extend returns o with every non-empty field of override applied.
func (o NodeOptions) Extend(override NodeOptions) NodeOptions {
	o.Color.Default = o.Color.Default.extend(override.Color.Default)
	o.Color.Selection = o.Color.Selection.extend(override.Color.Selection)
	if override.Font.Color != "" {
		o.Font.Color = override.Font.Color
	}
	if override.Font.SelectionColor != "" {
		o.Font.SelectionColor = override.Font.SelectionColor
	}
	if override.Font.Size > 0 {
		o.Font.Size = override.Font.Size
	}
	if override.Font.Face != "" {
		o.Font.Face = override.Font.Face
	}
	return o
}

func (p ColorPair) extend(o ColorPair) ColorPair {
	if o.Border != "" {
		p.Border = o.Border
	}
	if o.Background != "" {
		p.Background = o.Background
	}
	return p
}

// DrawState is what a node needs to know about the frame it is drawn in.
type DrawState struct {
	// ShowLabel is the global label switch.
	ShowLabel bool
	// HideLabel suppresses labels for the duration of a gesture.
	HideLabel bool
	// Scale is the zoom level of the current viewport transform.
	Scale float64
}

func (s DrawState) labelsVisible() bool {
	return s.ShowLabel && !s.HideLabel && s.Scale >= HideLabelScale
}
