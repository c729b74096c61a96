// Package layout 把目标文本转换为逐字形的放置计划：位置、缩放、旋转、行号。
// 随机量一律来自调用方传入的随机源，同一 seed 下计划逐字节可复现。
package layout

import (
	"image"
	"math/rand"

	"github.com/chesterccchen/synthetic-handwriting-data/corpus"
	"github.com/chesterccchen/synthetic-handwriting-data/template"
)

// minGlyphPx 是字形允许的最小边长；最小缩放下行高低于该值即认为区域过小。
const minGlyphPx = 4

// flatAspect 以上的宽高比视为扁平字（如「一」「二」），按宽度归一以免被拉高。
const flatAspect = 2.0

// Layout 为目标文本计算行排版计划。区域必须是 KindLine。
//
// 游标从区域左上（含留白与随机起笔偏移）开始逐字推进；放不下时依据
// style.LineWrap 换行或截断。相邻字形重叠超过容忍值时，把间距缩回下限重算
// 一次后接受——高密度参数下不保证绝对无重叠，这是有意的取舍。
func Layout(target string, region template.Region, style Style, index *corpus.Index, rng *rand.Rand) (*Plan, error) {
	plan := &Plan{Region: region.Rect, Target: target, Placed: target}
	if target == "" {
		return plan, nil
	}

	runes := []rune(target)
	glyphs := make([]*corpus.Glyph, len(runes))
	for i, r := range runes {
		g, err := index.SampleGlyph(r, rng)
		if err != nil {
			return nil, err
		}
		glyphs[i] = g
	}

	inset := style.MarginInset
	maxLines := region.MaxLines
	if maxLines < 1 {
		maxLines = 1
	}
	innerW := region.Rect.Dx() - 2*inset
	innerH := region.Rect.Dy() - 2*inset
	baseH := (innerH - (maxLines-1)*style.LineGap) / maxLines
	if innerW < minGlyphPx || float64(baseH)*style.ScaleMin < minGlyphPx {
		return nil, &RegionTooSmallError{Region: region.Rect}
	}

	// 起笔位置带一点随机前导空白
	startX := region.Rect.Min.X + inset
	if inset > 0 {
		startX += rng.Intn(inset + 1)
	}

	line := 0
	lineTop := region.Rect.Min.Y + inset
	cursorX := startX
	lineStart := true

	for i, g := range glyphs {
		scale := uniform(rng, style.ScaleMin, style.ScaleMax)
		rotation := uniform(rng, -style.RotationMax, style.RotationMax)
		jitter := uniform(rng, -style.VerticalJitter, style.VerticalJitter)

		w, h := glyphSize(g, baseH, scale)
		forced := false
		if w > innerW {
			// 单字比整个区域还宽：压到刚好放下
			shrink := float64(innerW) / float64(w)
			w = innerW
			h = max(int(float64(h)*shrink), 1)
			forced = true
		}

		gapFrac := uniform(rng, style.SpacingMin, style.SpacingMax)
		gap := 0
		if !lineStart {
			gap = int(float64(w) * gapFrac)
		}

		x := cursorX + gap
		if x+w > region.Rect.Max.X-inset {
			switch {
			case lineStart:
				// 行首的字永远要放下：起笔偏移把贴边的字顶出界时右移回区域内
				x = max(region.Rect.Max.X-inset-w, region.Rect.Min.X+inset)
			case style.LineWrap && line+1 < maxLines:
				line++
				lineTop += baseH + style.LineGap
				cursorX = region.Rect.Min.X + inset
				lineStart = true
				x = cursorX
			default:
				plan.Truncated = true
				plan.Placed = string(runes[:i])
			}
			if plan.Truncated {
				break
			}
		}

		// 以当前行带的垂直中心对齐，再加抖动，并夹回区域内
		y := lineTop + (baseH-h)/2 + int(jitter)
		y = clamp(y, region.Rect.Min.Y, region.Rect.Max.Y-h)

		rect := image.Rect(x, y, x+w, y+h)
		if !lineStart {
			prev := plan.Placements[len(plan.Placements)-1].Rect
			if overlapArea(prev, rect) > style.OverlapTolerance {
				// 仅重试一次：间距缩回下限后无论如何接受
				x = cursorX + int(float64(w)*style.SpacingMin)
				rect = image.Rect(x, y, x+w, y+h)
			}
		}

		plan.Placements = append(plan.Placements, Placement{
			Glyph:     g,
			Label:     string(runes[i]),
			Rect:      rect,
			Scale:     scale,
			Rotation:  rotation,
			Alpha:     1,
			Line:      line,
			ForcedFit: forced,
		})
		cursorX = rect.Max.X
		lineStart = false
	}

	return plan, nil
}

// glyphSize 把字形归一到行高 baseH 再乘以随机缩放。扁平字按宽度归一，
// 高度不低于行高的 15%。
func glyphSize(g *corpus.Glyph, baseH int, scale float64) (int, int) {
	aspect := g.Aspect()
	if aspect <= 0 {
		aspect = 1
	}
	if aspect > flatAspect {
		w := float64(baseH) * 0.9 * scale
		h := w / aspect
		if floor := float64(baseH) * 0.15; h < floor {
			h = floor
		}
		return max(int(w), 1), max(int(h), 1)
	}
	h := float64(baseH) * scale
	w := h * aspect
	return max(int(w), 1), max(int(h), 1)
}

func overlapArea(a, b image.Rectangle) int {
	i := a.Intersect(b)
	return i.Dx() * i.Dy()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
