package colors

import (
	"print-area-pricing/models"
)

// Collected holds the raw ink of one design object before merging
type Collected struct {
	Colors       []string // normalized #rrggbb, in encounter order, may repeat
	ImageSources []string // image sources whose pixels still need sampling
}

// CollectVectorColors gathers fill, stroke, gradient stops and rich-text style
// overrides of obj, recursing into groups. Image objects contribute their source
// for pixel sampling instead of their paint.
func CollectVectorColors(obj models.DesignObject) Collected {
	var out Collected
	collectInto(&out, obj)
	return out
}

func collectInto(out *Collected, obj models.DesignObject) {
	switch obj.Type {
	case models.ObjectTypeImage:
		if obj.Src != "" {
			out.ImageSources = append(out.ImageSources, obj.Src)
		}
		return
	case models.ObjectTypeGroup:
		for _, child := range obj.Objects {
			if child.IsSystemObject() {
				continue
			}
			collectInto(out, child)
		}
		// a group's own paint is an editor default, only children carry ink
		return
	}

	out.addPaint(obj.Fill)
	out.addPaint(obj.Stroke)
	for _, style := range obj.Styles {
		out.add(style.Fill)
		out.add(style.Stroke)
	}
}

func (c *Collected) addPaint(p models.Paint) {
	if !p.IsGradient() {
		c.add(p.Color)
		return
	}
	for _, stop := range p.Stops {
		c.add(stop.Color)
	}
}

func (c *Collected) add(value string) {
	if hex, ok := NormalizeColor(value); ok {
		c.Colors = append(c.Colors, hex)
	}
}
