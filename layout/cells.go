package layout

import (
	"fmt"
	"image"
	"math/rand"

	"github.com/chesterccchen/synthetic-handwriting-data/corpus"
	"github.com/chesterccchen/synthetic-handwriting-data/template"
)

// LayoutCells 为固定格栏区域计算放置计划：cells[i] 是第 i 格要手写的字符，
// 0 表示留空。字形在格内居中后加抖动，整体夹回区域内。留空格子记入
// Plan.EmptyCells，供合成阶段画手写删除线。
func LayoutCells(cells []rune, region template.Region, style Style, index *corpus.Index, rng *rand.Rand) (*Plan, error) {
	if region.Kind != template.KindCells {
		return nil, fmt.Errorf("区域 %s 不是格栏区域", region.Name)
	}
	if len(cells) != len(region.Cells) {
		return nil, fmt.Errorf("字符数 %d 与格子数 %d 不符", len(cells), len(region.Cells))
	}

	plan := &Plan{Region: region.Rect}
	drawn := make([]rune, 0, len(cells))

	for i, r := range cells {
		box := region.Cells[i]
		if r == 0 {
			plan.EmptyCells = append(plan.EmptyCells, box)
			continue
		}
		g, err := index.SampleGlyph(r, rng)
		if err != nil {
			return nil, err
		}

		cellW, cellH := box.Dx(), box.Dy()
		if float64(cellH)*style.ScaleMin < minGlyphPx {
			return nil, &RegionTooSmallError{Region: box}
		}

		// 格内高度占比 0.7~0.95，再乘每字的轻微缩放变异
		scale := uniform(rng, 0.7, 0.95) * uniform(rng, 0.9, 1.1)
		rotation := uniform(rng, -style.RotationMax, style.RotationMax)

		h := float64(cellH) * scale
		aspect := g.Aspect()
		if aspect <= 0 {
			aspect = 1
		}
		w := h * aspect
		// 过宽的字最多允许超出格宽两成
		if limit := float64(cellW) * 1.2; w > limit {
			h *= limit / w
			w = limit
		}
		wi, hi := max(int(w), 1), max(int(h), 1)
		// 缩放与出格余量之后仍不得超出区域本身
		wi = min(wi, region.Rect.Dx())
		hi = min(hi, region.Rect.Dy())

		x := box.Min.X + (cellW-wi)/2 + jitterInt(rng, cellW/8)
		y := box.Min.Y + (cellH-hi)/2 + jitterInt(rng, cellH/8)
		x = clamp(x, region.Rect.Min.X, region.Rect.Max.X-wi)
		y = clamp(y, region.Rect.Min.Y, region.Rect.Max.Y-hi)

		plan.Placements = append(plan.Placements, Placement{
			Glyph:    g,
			Label:    string(r),
			Rect:     image.Rect(x, y, x+wi, y+hi),
			Scale:    scale,
			Rotation: rotation,
			Alpha:    1,
			Line:     0,
		})
		drawn = append(drawn, r)
	}

	plan.Target = string(drawn)
	plan.Placed = plan.Target
	return plan, nil
}

// jitterInt 返回 [-bound, bound] 内的均匀整数；bound<=0 时恒为 0。
func jitterInt(rng *rand.Rand, bound int) int {
	if bound <= 0 {
		return 0
	}
	return rng.Intn(2*bound+1) - bound
}
