// Package corpus 负责把手写字形样本装载为按字符索引的字形库。
// 字形以墨迹遮罩（alpha 通道）形式保存，墨色在合成阶段再填充。
package corpus

import (
	"fmt"
	"image"
	"math/rand"
	"sort"
)

// Glyph 表示单个字符的一份手写样本。装载完成后不可变，由 Index 独占持有。
type Glyph struct {
	Label  rune
	Mask   *image.Alpha // 墨迹遮罩，alpha 越大墨越浓
	Source string       // 样本来源（目录、.gnt 文件或字体名）
}

// Width 返回字形的固有宽度（像素）。
func (g *Glyph) Width() int { return g.Mask.Rect.Dx() }

// Height 返回字形的固有高度（像素）。
func (g *Glyph) Height() int { return g.Mask.Rect.Dy() }

// Aspect 返回宽高比；高度为零时返回 0。
func (g *Glyph) Aspect() float64 {
	if g.Height() == 0 {
		return 0
	}
	return float64(g.Width()) / float64(g.Height())
}

// Source 是字形样本的来源抽象：目录、.gnt 文件或字体渲染。
type Source interface {
	// Name 返回来源的可读标识，用于日志与 Glyph.Source。
	Name() string
	// Glyphs 解码来源中的全部字形样本。
	Glyphs() ([]*Glyph, error)
}

// Index 把字符映射到候选字形列表（按装载顺序排列）。装载后只读，可被多个
// 生成 worker 并发共享。
type Index struct {
	glyphs map[rune][]*Glyph
	total  int
}

// Load 依次装载全部来源并建立索引。任何来源失败都会使整次装载失败。
func Load(sources ...Source) (*Index, error) {
	idx := &Index{glyphs: make(map[rune][]*Glyph)}
	for _, src := range sources {
		gs, err := src.Glyphs()
		if err != nil {
			return nil, &LoadError{Location: src.Name(), Err: err}
		}
		for _, g := range gs {
			idx.glyphs[g.Label] = append(idx.glyphs[g.Label], g)
			idx.total++
		}
	}
	return idx, nil
}

// GlyphsFor 返回字符 r 的候选字形（可能为空），顺序即装载顺序。
func (idx *Index) GlyphsFor(r rune) []*Glyph { return idx.glyphs[r] }

// SampleGlyph 从字符 r 的候选中均匀抽取一个字形。随机源必须由调用方提供，
// 以保证同一 seed 下抽样可复现。
func (idx *Index) SampleGlyph(r rune, rng *rand.Rand) (*Glyph, error) {
	cands := idx.glyphs[r]
	if len(cands) == 0 {
		return nil, &MissingGlyphError{Char: r}
	}
	return cands[rng.Intn(len(cands))], nil
}

// Alphabet 返回索引中全部字符，按码点升序排列。
func (idx *Index) Alphabet() []rune {
	out := make([]rune, 0, len(idx.glyphs))
	for r := range idx.glyphs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Chars 返回索引中的独立字符数。
func (idx *Index) Chars() int { return len(idx.glyphs) }

// Total 返回全部字形样本数。
func (idx *Index) Total() int { return idx.total }

// Has 报告字符 r 是否至少有一个候选字形。
func (idx *Index) Has(r rune) bool { return len(idx.glyphs[r]) > 0 }

// HasAll 报告字符串 s 中的每个字符是否都有候选字形，返回第一个缺失的字符。
func (idx *Index) HasAll(s string) (rune, bool) {
	for _, r := range s {
		if !idx.Has(r) {
			return r, false
		}
	}
	return 0, true
}

// LoadError 表示某个字形来源装载失败，属于致命错误。
type LoadError struct {
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("装载字形来源 %s 失败: %v", e.Location, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MissingGlyphError 表示某个被抽样的字符没有任何候选字形。
type MissingGlyphError struct {
	Char rune
}

func (e *MissingGlyphError) Error() string {
	return fmt.Sprintf("字符 %q 没有可用的字形样本", e.Char)
}
