package corpus

import (
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
)

// DirSource 递归扫描目录中的字形图片。支持两种命名约定：
//
//	U+4E00.png / U+4E00_1.png  —— 以 Unicode 码点命名（CASIA 导出格式）
//	參_0.png                   —— 以字符本身加序号命名
//
// 其余文件名会被忽略。
type DirSource struct {
	Root string
}

func (s DirSource) Name() string { return s.Root }

// Glyphs 遍历目录、解码图片并二值化为墨迹遮罩。单张图片解码失败会被跳过，
// 目录本身不可读才视为装载失败。
func (s DirSource) Glyphs() ([]*Glyph, error) {
	var out []*Glyph
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		label, ok := labelFromFilename(d.Name())
		if !ok {
			return nil
		}
		img, err := imaging.Open(path)
		if err != nil {
			return nil // 坏图直接跳过
		}
		mask := MaskFromImage(img)
		if mask == nil {
			return nil // 全空白，无墨迹
		}
		out = append(out, &Glyph{Label: label, Mask: mask, Source: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("目录中没有可识别的字形图片")
	}
	return out, nil
}

// labelFromFilename 从文件名解析字符标签。
func labelFromFilename(name string) (rune, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return 0, false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	// 去掉重复序号后缀：U+4E00_1 → U+4E00，參_0 → 參
	if i := strings.IndexRune(stem, '_'); i > 0 {
		stem = stem[:i]
	}
	if strings.HasPrefix(stem, "U+") {
		code, err := strconv.ParseUint(stem[2:], 16, 32)
		if err != nil {
			return 0, false
		}
		return rune(code), true
	}
	rs := []rune(stem)
	if len(rs) != 1 {
		return 0, false
	}
	return rs[0], true
}

// MaskFromImage 把一张扫描图二值化为墨迹遮罩并裁掉四周空白。
// 以左上角像素判断底色：白底取暗像素为墨，黑底取亮像素为墨。
// 图片完全空白时返回 nil。
func MaskFromImage(img image.Image) *image.Alpha {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	if b.Empty() {
		return nil
	}

	bg := gray.NRGBAAt(b.Min.X, b.Min.Y).R
	inked := func(v uint8) bool { return v < 230 } // 白底黑字
	if bg <= 128 {
		inked = func(v uint8) bool { return v > 50 } // 黑底白字
	}

	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	min, max := image.Pt(b.Dx(), b.Dy()), image.Pt(-1, -1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if inked(gray.NRGBAAt(b.Min.X+x, b.Min.Y+y).R) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
				if x < min.X {
					min.X = x
				}
				if y < min.Y {
					min.Y = y
				}
				if x > max.X {
					max.X = x
				}
				if y > max.Y {
					max.Y = y
				}
			}
		}
	}
	if max.X < 0 {
		return nil
	}
	return cropAlpha(mask, image.Rect(min.X, min.Y, max.X+1, max.Y+1))
}

// cropAlpha 返回 r 范围内的子遮罩（复制，不共享底层像素）。
func cropAlpha(src *image.Alpha, r image.Rectangle) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			dst.SetAlpha(x, y, src.AlphaAt(r.Min.X+x, r.Min.Y+y))
		}
	}
	return dst
}
