package corpus

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
)

// GNTSource 直接解码 CASIA HWDB 的 .gnt 样本文件，省去预先导出图片的步骤。
// Root 指向包含若干 .gnt 文件的目录，或单个 .gnt 文件。
//
// 记录格式（均为小端）：uint32 记录总长，uint16 GBK 标签码，uint16 宽，
// uint16 高，随后是 宽×高 字节的灰度像素（255 为纸面底色）。
type GNTSource struct {
	Root string
}

func (s GNTSource) Name() string { return s.Root }

func (s GNTSource) Glyphs() ([]*Glyph, error) {
	info, err := os.Stat(s.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return decodeGNTFile(s.Root)
	}

	var out []*Glyph
	err = filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".gnt") {
			return nil
		}
		gs, err := decodeGNTFile(path)
		if err != nil {
			return fmt.Errorf("解码 %s 失败: %w", path, err)
		}
		out = append(out, gs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("目录中没有 .gnt 文件")
	}
	return out, nil
}

func decodeGNTFile(path string) ([]*Glyph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeGNT(bufio.NewReader(f), path)
}

// maxGNTRecord 是单条记录允许的最大长度。真实 CASIA 样本最多几百 KB，
// 超出视为文件损坏，避免按损坏的长度字段分配内存。
const maxGNTRecord = 1 << 20

// DecodeGNT 从 r 读取 .gnt 记录流直到 EOF。source 仅用于标注 Glyph 来源。
// 记录长度与像素数不一致视为文件损坏。
func DecodeGNT(r io.Reader, source string) ([]*Glyph, error) {
	var out []*Glyph
	for {
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		if size < 10 || size > maxGNTRecord {
			return nil, fmt.Errorf("记录长度 %d 非法", size)
		}
		body := make([]byte, size-4)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("记录不完整: %w", err)
		}

		tag := body[:2]
		w := int(binary.LittleEndian.Uint16(body[2:4]))
		h := int(binary.LittleEndian.Uint16(body[4:6]))
		pixels := body[6:]
		if len(pixels) != w*h {
			return nil, fmt.Errorf("像素数 %d 与尺寸 %dx%d 不符", len(pixels), w, h)
		}

		label, err := decodeGBKTag(tag)
		if err != nil {
			continue // 个别无法解码的标签直接跳过
		}

		// 灰度反相作为墨迹浓度：越黑 alpha 越大
		mask := image.NewAlpha(image.Rect(0, 0, w, h))
		for i, p := range pixels {
			mask.Pix[i] = 255 - p
		}
		out = append(out, &Glyph{Label: label, Mask: trimAlpha(mask), Source: source})
	}
}

// decodeGBKTag 把两字节标签码转为 Unicode 字符。单字节标签即 ASCII。
func decodeGBKTag(tag []byte) (rune, error) {
	if tag[1] == 0 {
		return rune(tag[0]), nil
	}
	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(tag)
	if err != nil {
		return 0, err
	}
	rs := []rune(string(decoded))
	if len(rs) != 1 {
		return 0, fmt.Errorf("GBK 标签 %x 解码出 %d 个字符", tag, len(rs))
	}
	return rs[0], nil
}

// trimAlpha 裁掉遮罩四周 alpha 低于阈值的空白边。全空白时返回原遮罩。
func trimAlpha(mask *image.Alpha) *image.Alpha {
	const thresh = 55 // 对应原始灰度 200 的二值化阈值
	b := mask.Rect
	min, max := image.Pt(b.Dx(), b.Dy()), image.Pt(-1, -1)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if mask.AlphaAt(x, y).A >= thresh {
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
		return mask
	}
	return cropAlpha(mask, image.Rect(min.X, min.Y, max.X+1, max.Y+1))
}
