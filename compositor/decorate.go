package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
)

// Strikethrough 在留空格子上画一条手写风格的波浪删除线：横向每 30~70 像素
// 取一个点，纵向带 ±4 像素的手抖，首尾略收进格内。线条用矢量描边光栅化后
// 叠加到画布上，以获得平滑的抗锯齿边缘。
func Strikethrough(dst *image.NRGBA, boxes []image.Rectangle, ink Ink, rng *rand.Rand) {
	if len(boxes) == 0 {
		return
	}
	ref := boxes[0]
	yCenter := (ref.Min.Y + ref.Max.Y) / 2
	fieldH := ref.Dy()

	xStart, xEnd := boxes[0].Min.X, boxes[0].Max.X
	for _, b := range boxes[1:] {
		if b.Min.X < xStart {
			xStart = b.Min.X
		}
		if b.Max.X > xEnd {
			xEnd = b.Max.X
		}
	}
	xStart += 3 + rng.Intn(8)
	xEnd -= 3 + rng.Intn(8)
	if xEnd <= xStart {
		return
	}
	baseY := yCenter + jitterInt(rng, fieldH/4)

	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	c := canvas.New(float64(w), float64(h))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 与画布一致：左上角为原点
	ctx.SetFillColor(color.RGBA{})
	ctx.SetStrokeColor(ink.Color)
	ctx.SetStrokeWidth(float64(2 + rng.Intn(3)))

	p := &canvas.Path{}
	p.MoveTo(float64(xStart), float64(baseY))
	x := xStart
	for x < xEnd {
		x += 30 + rng.Intn(41)
		if x > xEnd {
			x = xEnd
		}
		p.LineTo(float64(x), float64(baseY+jitterInt(rng, 4)))
	}
	ctx.DrawPath(0, 0, p)

	stroke := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	draw.Draw(dst, dst.Rect, stroke, stroke.Bounds().Min, draw.Over)
}

// StampQR 在画布上贴一个承载样本标识的二维码（部分票据版式自带二维码）。
// pos 为左上角画布坐标。
func StampQR(dst *image.NRGBA, text string, size int, pos image.Point) error {
	data, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return fmt.Errorf("生成二维码失败: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("解码二维码失败: %w", err)
	}
	q := imaging.Resize(img, size, size, imaging.Lanczos)
	draw.Draw(dst, image.Rectangle{Min: pos, Max: pos.Add(image.Pt(size, size))}, q, q.Bounds().Min, draw.Over)
	return nil
}

func jitterInt(rng *rand.Rand, bound int) int {
	if bound <= 0 {
		return 0
	}
	return rng.Intn(2*bound+1) - bound
}
