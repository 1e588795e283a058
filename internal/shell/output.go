package shell

import "github.com/1broseidon/wayshell/internal/platform"

// Output is a registered physical display together with its layer map.
type Output struct {
	info   platform.OutputInfo
	alive  bool
	layers *LayerMap
}

func newOutput(info platform.OutputInfo) *Output {
	if info.Scale <= 0 {
		info.Scale = 1
	}
	return &Output{info: info, alive: true, layers: newLayerMap()}
}

func (o *Output) Name() string                  { return o.info.Name }
func (o *Output) Info() platform.OutputInfo     { return o.info }
func (o *Output) Alive() bool                   { return o.alive }
func (o *Output) Layers() *LayerMap             { return o.layers }
func (o *Output) Location() platform.Point      { return o.info.Position }
func (o *Output) LogicalSize() platform.Size    { return o.info.LogicalSize() }
func (o *Output) LogicalRect() platform.Rect    { return o.info.LogicalRect() }
func (o *Output) Scale() float64                { return o.info.Scale }
func (o *Output) Transform() platform.Transform { return o.info.Transform }

// FullscreenSize is the output mode converted to logical units with the
// output's fractional scale.
func (o *Output) FullscreenSize() platform.Size {
	return o.info.Mode.Size().ToLogical(o.info.Scale)
}
