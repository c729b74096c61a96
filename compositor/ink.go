package compositor

import (
	"image/color"
	"math/rand"
)

// Ink 描述一个样本统一使用的笔迹：墨色与是否晕开。同一条文本共用一支笔。
type Ink struct {
	Color color.NRGBA
	Bleed bool
}

// RandomInk 抽取一支笔：黑色（深灰 20~80）或蓝色钢笔色，两成概率带墨晕。
func RandomInk(rng *rand.Rand) Ink {
	var c color.NRGBA
	if rng.Intn(2) == 0 {
		shade := uint8(20 + rng.Intn(61))
		c = color.NRGBA{R: shade, G: shade, B: shade, A: 0xff}
	} else {
		c = color.NRGBA{
			R: uint8(10 + rng.Intn(41)),
			G: uint8(20 + rng.Intn(41)),
			B: uint8(90 + rng.Intn(91)),
			A: 0xff,
		}
	}
	return Ink{Color: c, Bleed: rng.Float64() < 0.2}
}
