package layout

import (
	"image"

	"github.com/chesterccchen/synthetic-handwriting-data/corpus"
)

// Style 控制一条文本的随机排版参数。所有随机量都从调用方提供的随机源抽取，
// 字段只给出边界。
type Style struct {
	// 每个字形的缩放区间，相对行高的比例
	ScaleMin float64 `json:"scaleMin"`
	ScaleMax float64 `json:"scaleMax"`
	// 相邻字形的间距区间，相对字形宽度的比例
	SpacingMin float64 `json:"spacingMin"`
	SpacingMax float64 `json:"spacingMax"`
	// 垂直抖动上界（像素，对称区间）
	VerticalJitter float64 `json:"verticalJitter"`
	// 单字旋转上界（度，对称区间）
	RotationMax float64 `json:"rotationMax"`
	// 溢出时换行（true）还是截断（false）
	LineWrap bool `json:"lineWrap"`
	// 区域四周的留白（像素）
	MarginInset int `json:"marginInset"`
	// 行间距（像素），仅多行时生效
	LineGap int `json:"lineGap"`
	// 同行相邻字形允许的重叠面积（平方像素）
	OverlapTolerance int `json:"overlapTolerance"`
}

// DefaultStyle 返回与真实票据观感接近的默认参数。
func DefaultStyle() Style {
	return Style{
		ScaleMin:       0.8,
		ScaleMax:       1.0,
		SpacingMin:     0.05,
		SpacingMax:     0.15,
		VerticalJitter: 2,
		RotationMax:    3,
		LineWrap:       false,
		MarginInset:    5,
		LineGap:        4,
	}
}

// Placement 是一条排版计划中的一项：某个字形要以怎样的几何落到画布上。
// Rect 是旋转前的外框；旋转围绕外框中心进行。
type Placement struct {
	Glyph     *corpus.Glyph   `json:"-"`
	Label     string          `json:"label"`
	Rect      image.Rectangle `json:"rect"`
	Scale     float64         `json:"scale"`
	Rotation  float64         `json:"rotation"` // 度，逆时针为正
	Alpha     float64         `json:"alpha"`
	Line      int             `json:"line"`
	ForcedFit bool            `json:"forcedFit,omitempty"`
}

// Plan 是一条目标文本的完整排版计划。不变式：每个 Rect 都落在 Region 内；
// 各项 Label 按序拼接等于 Placed。
type Plan struct {
	Region     image.Rectangle `json:"region"`
	Target     string          `json:"target"`           // 抽样得到的目标文本
	Placed     string          `json:"placed"`           // 实际放置的文本（截断后可能是前缀）
	Truncated  bool            `json:"truncated"`        // 文本未能完整放入区域
	Placements []Placement     `json:"placements"`
	EmptyCells []image.Rectangle `json:"emptyCells,omitempty"` // 格栏模式下留空的格子
}

// Bounds 返回全部放置外框的并集；空计划返回零矩形。
func (p *Plan) Bounds() image.Rectangle {
	var u image.Rectangle
	for _, pl := range p.Placements {
		u = u.Union(pl.Rect)
	}
	return u
}

// Lines 返回计划覆盖的行数。
func (p *Plan) Lines() int {
	n := 0
	for _, pl := range p.Placements {
		if pl.Line+1 > n {
			n = pl.Line + 1
		}
	}
	return n
}

// LineText 按序拼出第 line 行的文本。
func (p *Plan) LineText(line int) string {
	s := ""
	for _, pl := range p.Placements {
		if pl.Line == line {
			s += pl.Label
		}
	}
	return s
}

// RegionTooSmallError 表示区域连一个最小缩放的字形都放不下。
type RegionTooSmallError struct {
	Region image.Rectangle
}

func (e *RegionTooSmallError) Error() string {
	return "区域过小，放不下任何字形: " + e.Region.String()
}
