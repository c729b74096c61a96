package annotation

import (
	"fmt"

	"github.com/gardar/ocrchestra/pkg/hocr"
)

// BuildHOCR 把一个样本的标注转为 hOCR 文档结构，供需要标准格式真值的
// 训练管线直接消费。行级标注映射为 ocr_line，字形标注映射为 ocrx_word。
func BuildHOCR(imageName string, width, height int, anns []Annotation) *hocr.HOCR {
	page := hocr.Page{
		ID:         "page_1",
		PageNumber: 1,
		ImageName:  imageName,
		BBox:       hocr.NewBoundingBox(0, 0, float64(width), float64(height)),
	}

	// 先建行，再把字形按 lineId 挂进去
	lines := map[int]*hocr.Line{}
	var order []int
	for _, a := range anns {
		if a.Level != LevelLine {
			continue
		}
		b := a.Bounds()
		lines[a.LineID] = &hocr.Line{
			ID:   fmt.Sprintf("line_%d", a.LineID+1),
			BBox: hocr.NewBoundingBox(float64(b.Min.X), float64(b.Min.Y), float64(b.Max.X), float64(b.Max.Y)),
		}
		order = append(order, a.LineID)
	}

	wordN := 0
	for _, a := range anns {
		if a.Level != LevelGlyph {
			continue
		}
		ln, ok := lines[a.LineID]
		if !ok {
			continue
		}
		wordN++
		b := a.Bounds()
		ln.Words = append(ln.Words, hocr.Word{
			ID:         fmt.Sprintf("word_%d", wordN),
			Text:       a.Text,
			BBox:       hocr.NewBoundingBox(float64(b.Min.X), float64(b.Min.Y), float64(b.Max.X), float64(b.Max.Y)),
			Confidence: 100, // 合成真值，置信度恒为满
		})
	}

	for _, id := range order {
		page.Lines = append(page.Lines, *lines[id])
	}

	return &hocr.HOCR{
		Title: imageName,
		Pages: []hocr.Page{page},
	}
}

// HOCRDocument 渲染完整的 hOCR HTML 文本。
func HOCRDocument(doc *hocr.HOCR) (string, error) {
	return hocr.GenerateHOCRDocument(doc)
}
