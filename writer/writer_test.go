package writer_test

import (
	"bufio"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/chesterccchen/synthetic-handwriting-data/annotation"
	"github.com/chesterccchen/synthetic-handwriting-data/generator"
	"github.com/chesterccchen/synthetic-handwriting-data/writer"
)

func testSample(index int, label string) *generator.Sample {
	return &generator.Sample{
		Index: index,
		Image: imaging.New(64, 32, color.White),
		Label: label,
		Annotations: []annotation.Annotation{
			{
				Text:   label,
				Box:    []annotation.Point{{X: 2, Y: 2}, {X: 60, Y: 2}, {X: 60, Y: 30}, {X: 2, Y: 30}},
				LineID: 0,
				Level:  annotation.LevelLine,
			},
		},
	}
}

func TestWriterOutputs(t *testing.T) {
	dir := t.TempDir()
	w, err := writer.New(dir, false)
	if err != nil {
		t.Fatalf("创建写出器失败: %v", err)
	}

	if err := w.Write(testSample(0, "某某公司")); err != nil {
		t.Fatalf("写出失败: %v", err)
	}
	if err := w.Write(testSample(1, "台北市")); err != nil {
		t.Fatalf("写出失败: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}

	// PNG 存在且可解码
	img, err := imaging.Open(filepath.Join(dir, "img_000000.png"))
	if err != nil {
		t.Fatalf("打开成图失败: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 32) {
		t.Fatalf("成图尺寸错误: %v", img.Bounds())
	}

	// labels.txt 逐行：文件名 TAB 标签
	data, err := os.ReadFile(filepath.Join(dir, "labels.txt"))
	if err != nil {
		t.Fatalf("读取标签表失败: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("标签表应有 2 行，实际 %d", len(lines))
	}
	if lines[0] != "img_000000.png\t某某公司" {
		t.Fatalf("标签行格式错误: %q", lines[0])
	}
	if lines[1] != "img_000001.png\t台北市" {
		t.Fatalf("标签行格式错误: %q", lines[1])
	}
}

func TestWriterAnnotationsJSONL(t *testing.T) {
	dir := t.TempDir()
	w, err := writer.New(dir, false)
	if err != nil {
		t.Fatalf("创建写出器失败: %v", err)
	}
	s := testSample(7, "有限公司")
	s.Truncated = true
	if err := w.Write(s); err != nil {
		t.Fatalf("写出失败: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "annotations.jsonl"))
	if err != nil {
		t.Fatalf("打开标注文件失败: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatalf("标注文件为空")
	}
	var rec struct {
		File        string                  `json:"file"`
		Label       string                  `json:"label"`
		Truncated   bool                    `json:"truncated"`
		Annotations []annotation.Annotation `json:"annotations"`
	}
	if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
		t.Fatalf("解析标注行失败: %v", err)
	}
	if rec.File != "img_000007.png" || rec.Label != "有限公司" || !rec.Truncated {
		t.Fatalf("标注记录错误: %+v", rec)
	}
	if len(rec.Annotations) != 1 || rec.Annotations[0].Text != "有限公司" {
		t.Fatalf("标注内容错误: %+v", rec.Annotations)
	}
	if rec.Annotations[0].Level != annotation.LevelLine {
		t.Fatalf("标注级别错误: %s", rec.Annotations[0].Level)
	}
	if sc.Scan() {
		t.Fatalf("只写出一个样本，不应有第二行")
	}
}

func TestWriterHOCR(t *testing.T) {
	dir := t.TempDir()
	w, err := writer.New(dir, true)
	if err != nil {
		t.Fatalf("创建写出器失败: %v", err)
	}
	if err := w.Write(testSample(3, "某")); err != nil {
		t.Fatalf("写出失败: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("关闭失败: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "img_000003.hocr"))
	if err != nil {
		t.Fatalf("hOCR 文件应存在: %v", err)
	}
	if !strings.Contains(string(data), "ocr_page") {
		t.Fatalf("hOCR 文件缺少页元素")
	}
}
