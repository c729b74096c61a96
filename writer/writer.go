// Package writer 把完成的样本持久化到输出目录：PNG 图像、labels.txt 总表、
// 逐行 JSON 标注，以及可选的 hOCR 真值文件。
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/chesterccchen/synthetic-handwriting-data/annotation"
	"github.com/chesterccchen/synthetic-handwriting-data/generator"
)

// Writer 将样本写入单个输出目录。Write 按约定由调用方串行调用
// （generator.Run 的 emit 即是串行的）。
type Writer struct {
	dir    string
	hocr   bool
	labels *os.File
	anns   *os.File
}

// New 创建输出目录并打开 labels.txt 与 annotations.jsonl。
func New(dir string, hocr bool) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录 %s 失败: %w", dir, err)
	}
	labels, err := os.Create(filepath.Join(dir, "labels.txt"))
	if err != nil {
		return nil, err
	}
	anns, err := os.Create(filepath.Join(dir, "annotations.jsonl"))
	if err != nil {
		labels.Close()
		return nil, err
	}
	return &Writer{dir: dir, hocr: hocr, labels: labels, anns: anns}, nil
}

// record 是 annotations.jsonl 中一行的结构。
type record struct {
	File        string                  `json:"file"`
	Label       string                  `json:"label"`
	Truncated   bool                    `json:"truncated,omitempty"`
	Annotations []annotation.Annotation `json:"annotations"`
}

// Write 持久化一个样本。图像名由样本序号决定，与生成顺序无关。
func (w *Writer) Write(s *generator.Sample) error {
	name := fmt.Sprintf("img_%06d.png", s.Index)
	if err := imaging.Save(s.Image, filepath.Join(w.dir, name)); err != nil {
		return fmt.Errorf("保存 %s 失败: %w", name, err)
	}

	if _, err := fmt.Fprintf(w.labels, "%s\t%s\n", name, s.Label); err != nil {
		return err
	}

	line, err := json.Marshal(record{
		File:        name,
		Label:       s.Label,
		Truncated:   s.Truncated,
		Annotations: s.Annotations,
	})
	if err != nil {
		return err
	}
	if _, err := w.anns.Write(append(line, '\n')); err != nil {
		return err
	}

	if w.hocr {
		b := s.Image.Bounds()
		doc := annotation.BuildHOCR(name, b.Dx(), b.Dy(), s.Annotations)
		html, err := annotation.HOCRDocument(doc)
		if err != nil {
			return fmt.Errorf("生成 hOCR 失败: %w", err)
		}
		hocrName := fmt.Sprintf("img_%06d.hocr", s.Index)
		if err := os.WriteFile(filepath.Join(w.dir, hocrName), []byte(html), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Close 收尾并关闭标签与标注文件。
func (w *Writer) Close() error {
	err1 := w.labels.Close()
	err2 := w.anns.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
