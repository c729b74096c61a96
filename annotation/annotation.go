// Package annotation 把放置计划转成训练标注：每个字形一条记录，每行再补一条
// 行级聚合记录。几何为画布像素坐标下的四边形，文本与实际绘制内容严格一致。
package annotation

import (
	"image"
	"math"
	"strings"

	"github.com/chesterccchen/synthetic-handwriting-data/layout"
)

// Level 标注的粒度。
const (
	LevelGlyph = "glyph"
	LevelLine  = "line"
)

// Point 是画布像素坐标下的一个顶点。
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Annotation 是一条真值记录。Box 按左上、右上、右下、左下的顺序给出四个顶点；
// 无旋转时即外框的四角。
type Annotation struct {
	Text      string  `json:"text"`
	Box       []Point `json:"box"`
	LineID    int     `json:"lineId"`
	Level     string  `json:"level"`
	Truncated bool    `json:"truncated,omitempty"` // 行级记录：文本被截断
}

// Record 为计划生成标注：先逐字形，再逐行聚合。字形标注按放置顺序排列，
// 其文本拼接恢复出实际放置的字符串。
func Record(plan *layout.Plan) []Annotation {
	out := make([]Annotation, 0, len(plan.Placements)+plan.Lines())
	for _, p := range plan.Placements {
		out = append(out, Annotation{
			Text:   p.Label,
			Box:    rotatedCorners(p.Rect, p.Rotation),
			LineID: p.Line,
			Level:  LevelGlyph,
		})
	}
	for line := 0; line < plan.Lines(); line++ {
		var u image.Rectangle
		for _, p := range plan.Placements {
			if p.Line == line {
				u = u.Union(p.Rect)
			}
		}
		out = append(out, Annotation{
			Text:      plan.LineText(line),
			Box:       corners(u),
			LineID:    line,
			Level:     LevelLine,
			Truncated: plan.Truncated && line == plan.Lines()-1,
		})
	}
	return out
}

// GlyphText 按序拼接全部字形级标注的文本，应当等于计划实际放置的字符串。
func GlyphText(anns []Annotation) string {
	var b strings.Builder
	for _, a := range anns {
		if a.Level == LevelGlyph {
			b.WriteString(a.Text)
		}
	}
	return b.String()
}

// Bounds 返回一条标注几何的轴对齐外框。
func (a Annotation) Bounds() image.Rectangle {
	if len(a.Box) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(a.Box[0].X, a.Box[0].Y, a.Box[0].X, a.Box[0].Y)
	for _, p := range a.Box[1:] {
		r = r.Union(image.Rect(p.X, p.Y, p.X, p.Y))
	}
	return r
}

func corners(r image.Rectangle) []Point {
	return []Point{
		{r.Min.X, r.Min.Y},
		{r.Max.X, r.Min.Y},
		{r.Max.X, r.Max.Y},
		{r.Min.X, r.Max.Y},
	}
}

// rotatedCorners 把外框四角绕中心旋转 deg 度，方向与合成端一致（逆时针为正）。
func rotatedCorners(r image.Rectangle, deg float64) []Point {
	if deg == 0 {
		return corners(r)
	}
	rad := deg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2

	rot := func(x, y float64) Point {
		dx, dy := x-cx, y-cy
		// 像素坐标 y 轴朝下，逆时针旋转对应此处的符号
		return Point{
			X: int(math.Round(cx + dx*cos + dy*sin)),
			Y: int(math.Round(cy - dx*sin + dy*cos)),
		}
	}
	return []Point{
		rot(float64(r.Min.X), float64(r.Min.Y)),
		rot(float64(r.Max.X), float64(r.Min.Y)),
		rot(float64(r.Max.X), float64(r.Max.Y)),
		rot(float64(r.Min.X), float64(r.Max.Y)),
	}
}
