// Package compositor 把放置计划逐项落到画布上：缩放、旋转、着墨、alpha 叠加，
// 并提供背景与成图的数据增广。画布由每个样本独占，合成严格按计划顺序进行。
package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/chesterccchen/synthetic-handwriting-data/layout"
)

// Compose 按计划顺序把每个字形合成到画布上并返回同一画布。
// 遮罩先缩放到目标外框，再绕外框中心旋转，最后以字形自身的 alpha 叠加；
// 计划靠后的项在重叠处覆盖靠前的项。
func Compose(canvas *image.NRGBA, plan *layout.Plan, ink Ink) *image.NRGBA {
	for _, p := range plan.Placements {
		stamp := renderPlacement(p, ink)
		// 旋转会扩大外框：以放置外框的中心为锚点贴回
		cx := p.Rect.Min.X + p.Rect.Dx()/2
		cy := p.Rect.Min.Y + p.Rect.Dy()/2
		b := stamp.Bounds()
		pos := image.Pt(cx-b.Dx()/2, cy-b.Dy()/2)
		draw.Draw(canvas, image.Rectangle{Min: pos, Max: pos.Add(b.Size())}, stamp, b.Min, draw.Over)
	}
	return canvas
}

// renderPlacement 生成单个字形的待贴图层：缩放、墨晕、着墨、旋转、透明度。
func renderPlacement(p layout.Placement, ink Ink) *image.NRGBA {
	img := imaging.Resize(p.Glyph.Mask, p.Rect.Dx(), p.Rect.Dy(), imaging.Lanczos)
	if ink.Bleed {
		dilateAlpha(img)
	}
	tint(img, ink.Color)
	if p.Rotation != 0 {
		img = imaging.Rotate(img, p.Rotation, color.NRGBA{})
	}
	if p.Alpha > 0 && p.Alpha < 1 {
		scaleAlpha(img, p.Alpha)
	}
	return img
}

// tint 把所有像素的 RGB 设为墨色，alpha（墨迹浓度）保持不变。
func tint(img *image.NRGBA, c color.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
	}
}

func scaleAlpha(img *image.NRGBA, a float64) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(float64(img.Pix[i]) * a)
	}
}

// dilateAlpha 对 alpha 通道做 3×3 最大值滤波，模拟墨水在纸面的轻微晕开。
func dilateAlpha(img *image.NRGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	src := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src[y*w+x] = img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := src[y*w+x]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < w && ny >= 0 && ny < h && src[ny*w+nx] > m {
						m = src[ny*w+nx]
					}
				}
			}
			img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3] = m
		}
	}
}
