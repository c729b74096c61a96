package layout_test

import (
	"errors"
	"image"
	"math/rand"
	"reflect"
	"testing"

	"github.com/chesterccchen/synthetic-handwriting-data/corpus"
	"github.com/chesterccchen/synthetic-handwriting-data/layout"
	"github.com/chesterccchen/synthetic-handwriting-data/template"
)

// stubSource 在内存中构造字形，避免测试依赖磁盘上的语料。
type stubSource struct {
	glyphs []*corpus.Glyph
}

func (s stubSource) Name() string                    { return "stub" }
func (s stubSource) Glyphs() ([]*corpus.Glyph, error) { return s.glyphs, nil }

func makeGlyph(label rune, w, h int) *corpus.Glyph {
	m := image.NewAlpha(image.Rect(0, 0, w, h))
	for i := range m.Pix {
		m.Pix[i] = 255
	}
	return &corpus.Glyph{Label: label, Mask: m, Source: "stub"}
}

func testIndex(t *testing.T, chars string) *corpus.Index {
	t.Helper()
	src := stubSource{}
	for _, r := range chars {
		src.glyphs = append(src.glyphs, makeGlyph(r, 64, 64))
	}
	idx, err := corpus.Load(src)
	if err != nil {
		t.Fatalf("装载失败: %v", err)
	}
	return idx
}

func lineRegion(rect image.Rectangle, lines int) template.Region {
	return template.Region{Name: "r", Rect: rect, Kind: template.KindLine, MaxLines: lines}
}

func TestLayoutSingleLine(t *testing.T) {
	idx := testIndex(t, "台北市中正區")
	region := lineRegion(image.Rect(0, 0, 800, 100), 1)
	rng := rand.New(rand.NewSource(7))

	plan, err := layout.Layout("台北市中正區", region, layout.DefaultStyle(), idx, rng)
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(plan.Placements) != 6 {
		t.Fatalf("应放置 6 个字形，实际 %d", len(plan.Placements))
	}
	if plan.Truncated {
		t.Fatalf("不应截断")
	}
	if plan.Placed != "台北市中正區" {
		t.Fatalf("Placed 错误: %s", plan.Placed)
	}

	concat := ""
	for _, p := range plan.Placements {
		concat += p.Label
		if !p.Rect.In(region.Rect) {
			t.Fatalf("字形 %s 超出区域: %v", p.Label, p.Rect)
		}
		if p.Line != 0 {
			t.Fatalf("单行区域不应出现第 %d 行", p.Line)
		}
	}
	if concat != plan.Placed {
		t.Fatalf("标签拼接 %s 与 Placed %s 不符", concat, plan.Placed)
	}
	if !plan.Bounds().In(region.Rect) {
		t.Fatalf("整体外框超出区域: %v", plan.Bounds())
	}

	// 同行相邻字形应从左到右推进
	for i := 1; i < len(plan.Placements); i++ {
		if plan.Placements[i].Rect.Min.X < plan.Placements[i-1].Rect.Min.X {
			t.Fatalf("字形 %d 未按行方向推进", i)
		}
	}
}

func TestLayoutEmptyTarget(t *testing.T) {
	idx := testIndex(t, "台")
	region := lineRegion(image.Rect(0, 0, 100, 50), 1)

	plan, err := layout.Layout("", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("空文本不应失败: %v", err)
	}
	if len(plan.Placements) != 0 || plan.Placed != "" || plan.Truncated {
		t.Fatalf("空文本应得到空计划")
	}
}

func TestLayoutTruncates(t *testing.T) {
	idx := testIndex(t, "台北市中正區")
	// 只够放下两三个字
	region := lineRegion(image.Rect(0, 0, 200, 100), 1)

	plan, err := layout.Layout("台北市中正區", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if !plan.Truncated {
		t.Fatalf("应标记截断")
	}
	if len(plan.Placed) >= len(plan.Target) {
		t.Fatalf("截断后 Placed 应是真前缀")
	}
	if plan.Target[:len(plan.Placed)] != plan.Placed {
		t.Fatalf("Placed %q 不是 Target %q 的前缀", plan.Placed, plan.Target)
	}
	if len(plan.Placements) != len([]rune(plan.Placed)) {
		t.Fatalf("放置数与 Placed 长度不符")
	}
}

func TestLayoutWraps(t *testing.T) {
	idx := testIndex(t, "台北市中正區")
	region := lineRegion(image.Rect(0, 0, 400, 200), 2)
	style := layout.DefaultStyle()
	style.LineWrap = true

	plan, err := layout.Layout("台北市中正區", region, style, idx, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if plan.Truncated {
		t.Fatalf("两行足够放下，不应截断")
	}
	if plan.Lines() != 2 {
		t.Fatalf("应占用 2 行，实际 %d", plan.Lines())
	}
	if plan.LineText(0)+plan.LineText(1) != plan.Placed {
		t.Fatalf("逐行拼接与 Placed 不符")
	}
	// 第二行应整体低于第一行
	firstMax, secondMin := 0, region.Rect.Max.Y
	for _, p := range plan.Placements {
		if p.Line == 0 && p.Rect.Min.Y > firstMax {
			firstMax = p.Rect.Min.Y
		}
		if p.Line == 1 && p.Rect.Min.Y < secondMin {
			secondMin = p.Rect.Min.Y
		}
	}
	if secondMin <= firstMax {
		t.Fatalf("第二行起点 y=%d 未低于第一行 y=%d", secondMin, firstMax)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	idx := testIndex(t, "台北市中正區")
	region := lineRegion(image.Rect(0, 0, 800, 100), 1)

	a, err := layout.Layout("台北市中正區", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	b, err := layout.Layout("台北市中正區", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("同一 seed 应得到逐项一致的计划")
	}
}

func TestLayoutMissingGlyph(t *testing.T) {
	idx := testIndex(t, "台北")
	region := lineRegion(image.Rect(0, 0, 800, 100), 1)

	_, err := layout.Layout("台龘北", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(1)))
	var miss *corpus.MissingGlyphError
	if !errors.As(err, &miss) {
		t.Fatalf("应返回缺字错误，实际 %v", err)
	}
	if miss.Char != '龘' {
		t.Fatalf("缺失字符应为 龘，实际 %q", miss.Char)
	}
}

func TestLayoutRegionTooSmall(t *testing.T) {
	idx := testIndex(t, "台")
	for _, rect := range []image.Rectangle{
		image.Rect(0, 0, 10, 10), // 扣除留白后宽度不足
		image.Rect(0, 0, 800, 8), // 行高不足
	} {
		_, err := layout.Layout("台", lineRegion(rect, 1), layout.DefaultStyle(), idx, rand.New(rand.NewSource(1)))
		var small *layout.RegionTooSmallError
		if !errors.As(err, &small) {
			t.Fatalf("%v: 应返回区域过小错误，实际 %v", rect, err)
		}
	}
}

func TestLayoutForcedFit(t *testing.T) {
	idx := testIndex(t, "台")
	region := lineRegion(image.Rect(0, 0, 60, 100), 1)
	style := layout.DefaultStyle()
	style.MarginInset = 0

	plan, err := layout.Layout("台", region, style, idx, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(plan.Placements) != 1 {
		t.Fatalf("应放下 1 个字形")
	}
	p := plan.Placements[0]
	if !p.ForcedFit {
		t.Fatalf("宽于区域的字形应标记强制缩放")
	}
	if p.Rect.Dx() != 60 {
		t.Fatalf("强制缩放后宽度应等于区域宽度，实际 %d", p.Rect.Dx())
	}
}

func TestLayoutForcedFitWithInset(t *testing.T) {
	idx := testIndex(t, "台")
	region := lineRegion(image.Rect(0, 0, 60, 100), 1)

	// 默认参数带随机起笔偏移：无论偏移多少，行首的单字都必须放下
	for seed := int64(0); seed < 20; seed++ {
		plan, err := layout.Layout("台", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("seed %d: 排版失败: %v", seed, err)
		}
		if plan.Truncated || len(plan.Placements) != 1 {
			t.Fatalf("seed %d: 超宽单字应缩放放入而不是截断: %+v", seed, plan)
		}
		p := plan.Placements[0]
		if !p.ForcedFit {
			t.Fatalf("seed %d: 应标记强制缩放", seed)
		}
		if !p.Rect.In(region.Rect) {
			t.Fatalf("seed %d: 字形超出区域: %v", seed, p.Rect)
		}
	}
}

func TestLayoutFlatGlyph(t *testing.T) {
	src := stubSource{glyphs: []*corpus.Glyph{makeGlyph('一', 120, 20)}}
	idx, err := corpus.Load(src)
	if err != nil {
		t.Fatalf("装载失败: %v", err)
	}
	region := lineRegion(image.Rect(0, 0, 800, 100), 1)

	plan, err := layout.Layout("一", region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	p := plan.Placements[0]
	// 扁平字按宽度归一：宽度不超过行高的九成，高度有下限
	baseH := 90
	if p.Rect.Dx() > baseH {
		t.Fatalf("扁平字宽度 %d 不应超过行高", p.Rect.Dx())
	}
	if p.Rect.Dy() < baseH*15/100 {
		t.Fatalf("扁平字高度 %d 低于下限", p.Rect.Dy())
	}
	if p.Rect.Dy() >= p.Rect.Dx() {
		t.Fatalf("扁平字应保持横向形态: %v", p.Rect)
	}
}

func cellRegion() template.Region {
	cells := []image.Rectangle{
		image.Rect(0, 0, 40, 40),
		image.Rect(45, 0, 85, 40),
		image.Rect(90, 0, 130, 40),
	}
	return template.Region{
		Name:  "amount",
		Rect:  image.Rect(0, 0, 130, 40),
		Kind:  template.KindCells,
		Cells: cells,
	}
}

func TestLayoutCells(t *testing.T) {
	idx := testIndex(t, "壹貳")
	region := cellRegion()

	plan, err := layout.LayoutCells([]rune{'壹', 0, '貳'}, region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(plan.Placements) != 2 {
		t.Fatalf("应放置 2 个字形，实际 %d", len(plan.Placements))
	}
	if plan.Target != "壹貳" || plan.Placed != "壹貳" {
		t.Fatalf("文本应只含实际书写的字符: %q", plan.Placed)
	}
	if len(plan.EmptyCells) != 1 || plan.EmptyCells[0] != region.Cells[1] {
		t.Fatalf("留空格子记录错误: %v", plan.EmptyCells)
	}
	for _, p := range plan.Placements {
		if !p.Rect.In(region.Rect) {
			t.Fatalf("字形 %s 超出区域: %v", p.Label, p.Rect)
		}
		if p.Rect.Dx() > 48 { // 格宽 40 的 1.2 倍
			t.Fatalf("字形宽度 %d 超过格宽上限", p.Rect.Dx())
		}
	}
}

func TestLayoutCellsErrors(t *testing.T) {
	idx := testIndex(t, "壹")
	region := cellRegion()

	if _, err := layout.LayoutCells([]rune{'壹'}, region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("字符数与格子数不符时应失败")
	}
	line := lineRegion(image.Rect(0, 0, 100, 40), 1)
	if _, err := layout.LayoutCells([]rune{'壹'}, line, layout.DefaultStyle(), idx, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("非格栏区域应失败")
	}
}

func TestLayoutCellsDeterministic(t *testing.T) {
	idx := testIndex(t, "壹貳參")
	region := cellRegion()

	a, err := layout.LayoutCells([]rune{'壹', '貳', '參'}, region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(17)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	b, err := layout.LayoutCells([]rune{'壹', '貳', '參'}, region, layout.DefaultStyle(), idx, rand.New(rand.NewSource(17)))
	if err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("同一 seed 应得到逐项一致的计划")
	}
}
