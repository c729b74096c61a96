package compositor

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"
)

// Augment 控制数据增广的概率与强度。零值表示完全关闭。
type Augment struct {
	TintProb     float64 `json:"tintProb"`     // 背景叠加近白色偏的概率
	TintAlphaMin float64 `json:"tintAlphaMin"` // 色偏混合强度下界
	TintAlphaMax float64 `json:"tintAlphaMax"`
	BlurProb     float64 `json:"blurProb"` // 高斯模糊概率
	BlurSigmaMin float64 `json:"blurSigmaMin"`
	BlurSigmaMax float64 `json:"blurSigmaMax"`
	AdjustProb   float64 `json:"adjustProb"`  // 亮度/对比度扰动概率
	AdjustRange  float64 `json:"adjustRange"` // 扰动幅度（百分比，对称区间）
}

// DefaultAugment 返回与既有数据集一致的增广强度。
func DefaultAugment() Augment {
	return Augment{
		TintProb:     0.85,
		TintAlphaMin: 0.15,
		TintAlphaMax: 0.35,
		BlurProb:     0.3,
		BlurSigmaMin: 0.2,
		BlurSigmaMax: 0.8,
		AdjustProb:   0.3,
		AdjustRange:  20,
	}
}

// TintBackground 以给定概率给背景叠加随机近白色偏，模拟纸张泛黄与光照差异。
// 返回（可能是新的）画布。
func TintBackground(bg *image.NRGBA, a Augment, rng *rand.Rand) *image.NRGBA {
	if rng.Float64() >= a.TintProb {
		return bg
	}
	tint := nearWhite(rng)
	layer := imaging.New(bg.Rect.Dx(), bg.Rect.Dy(), tint)
	alpha := a.TintAlphaMin + rng.Float64()*(a.TintAlphaMax-a.TintAlphaMin)
	return imaging.Overlay(bg, layer, image.Pt(0, 0), alpha)
}

// Finish 在合成完成后施加模糊与亮度/对比度扰动。返回（可能是新的）画布。
func Finish(img *image.NRGBA, a Augment, rng *rand.Rand) *image.NRGBA {
	if rng.Float64() < a.BlurProb {
		sigma := a.BlurSigmaMin + rng.Float64()*(a.BlurSigmaMax-a.BlurSigmaMin)
		img = imaging.Blur(img, sigma)
	}
	if rng.Float64() < a.AdjustProb {
		img = imaging.AdjustBrightness(img, uniformSym(rng, a.AdjustRange))
		img = imaging.AdjustContrast(img, uniformSym(rng, a.AdjustRange))
	}
	return img
}

// nearWhite 抽取一个接近白色的色偏，避开纯白以保证确有变化。
func nearWhite(rng *rand.Rand) color.NRGBA {
	r := uint8(210 + rng.Intn(46))
	g := uint8(210 + rng.Intn(46))
	b := uint8(210 + rng.Intn(46))
	if r == 255 && g == 255 && b == 255 {
		g = 240
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

func uniformSym(rng *rand.Rand, bound float64) float64 {
	return (rng.Float64()*2 - 1) * bound
}
