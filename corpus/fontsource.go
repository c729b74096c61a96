package corpus

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FontSource 用 TTF/OTF 字体为指定字符集渲染字形，作为手写语料之外的补充来源
// （例如语料缺字时用手写风格字体补齐）。
type FontSource struct {
	Path  string  // 字体文件路径
	Chars string  // 要渲染的字符集
	Size  float64 // 渲染字号（像素），零值取 64
}

func (s FontSource) Name() string { return "font:" + s.Path }

func (s FontSource) Glyphs() ([]*Glyph, error) {
	if s.Chars == "" {
		return nil, fmt.Errorf("字体来源缺少字符集")
	}
	size := s.Size
	if size <= 0 {
		size = 64
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	fnt, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体失败: %w", err)
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	defer face.Close()

	var out []*Glyph
	for _, r := range s.Chars {
		mask := renderRune(face, r, int(size))
		if mask == nil {
			continue // 字体不含该字符
		}
		out = append(out, &Glyph{Label: r, Mask: mask, Source: s.Name()})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("字体 %s 未渲染出任何字符", s.Path)
	}
	return out, nil
}

// renderRune 把单个字符绘制到白底画布上再二值化，返回裁切后的墨迹遮罩。
func renderRune(face font.Face, r rune, size int) *image.Alpha {
	adv, ok := face.GlyphAdvance(r)
	if !ok {
		return nil
	}
	w := adv.Ceil() + size/2
	h := size * 2
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(size/4, size*5/4),
	}
	dr.DrawString(string(r))
	return MaskFromImage(img)
}
