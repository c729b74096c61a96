package corpus

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// gntRecord 按 .gnt 的二进制格式拼一条记录。
func gntRecord(tag [2]byte, w, h int, pixels []byte) []byte {
	var buf bytes.Buffer
	size := uint32(4 + 2 + 2 + 2 + len(pixels))
	binary.Write(&buf, binary.LittleEndian, size)
	buf.Write(tag[:])
	binary.Write(&buf, binary.LittleEndian, uint16(w))
	binary.Write(&buf, binary.LittleEndian, uint16(h))
	buf.Write(pixels)
	return buf.Bytes()
}

func TestDecodeGNT(t *testing.T) {
	var stream bytes.Buffer
	// ASCII 标签 'A'，3x2，棋盘墨迹
	stream.Write(gntRecord([2]byte{'A', 0}, 3, 2, []byte{0, 255, 0, 255, 0, 255}))
	// GBK 标签「一」(0xD2 0xBB)，2x2 全墨
	stream.Write(gntRecord([2]byte{0xD2, 0xBB}, 2, 2, []byte{0, 0, 0, 0}))

	glyphs, err := DecodeGNT(&stream, "test.gnt")
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if len(glyphs) != 2 {
		t.Fatalf("应解出 2 个字形，实际 %d", len(glyphs))
	}
	if glyphs[0].Label != 'A' {
		t.Fatalf("第一条标签应为 A，实际 %q", glyphs[0].Label)
	}
	if glyphs[1].Label != '一' {
		t.Fatalf("GBK 标签应解出「一」，实际 %q", glyphs[1].Label)
	}
	if glyphs[1].Width() != 2 || glyphs[1].Height() != 2 {
		t.Fatalf("全墨字形不应被裁切，实际 %dx%d", glyphs[1].Width(), glyphs[1].Height())
	}
	// 灰度反相：原像素 0（黑）→ alpha 255
	if glyphs[1].Mask.AlphaAt(0, 0).A != 255 {
		t.Fatalf("黑墨处 alpha 应为 255")
	}
	if glyphs[0].Source != "test.gnt" {
		t.Fatalf("来源标注错误: %s", glyphs[0].Source)
	}
}

func TestDecodeGNTEmpty(t *testing.T) {
	glyphs, err := DecodeGNT(bytes.NewReader(nil), "empty")
	if err != nil || len(glyphs) != 0 {
		t.Fatalf("空流应返回空结果: glyphs=%d err=%v", len(glyphs), err)
	}
}

func TestDecodeGNTCorrupted(t *testing.T) {
	rec := gntRecord([2]byte{'A', 0}, 3, 2, []byte{0, 255, 0, 255, 0, 255})
	truncated := rec[:len(rec)-2]
	if _, err := DecodeGNT(bytes.NewReader(truncated), "bad"); err == nil {
		t.Fatalf("截断的记录应报错")
	}

	// 像素数与宽高不符
	bad := gntRecord([2]byte{'A', 0}, 4, 4, []byte{0, 0, 0})
	if _, err := DecodeGNT(bytes.NewReader(bad), "bad"); err == nil {
		t.Fatalf("像素数不符应报错")
	}

	// 长度字段损坏成超大值：必须在分配内存之前拒绝
	var huge bytes.Buffer
	binary.Write(&huge, binary.LittleEndian, uint32(0xFFFFFFF0))
	if _, err := DecodeGNT(&huge, "bad"); err == nil {
		t.Fatalf("超大记录长度应报错")
	}
}

func TestDecodeGBKTag(t *testing.T) {
	if r, err := decodeGBKTag([]byte{'z', 0}); err != nil || r != 'z' {
		t.Fatalf("单字节标签应按 ASCII 解码: %q %v", r, err)
	}
	if r, err := decodeGBKTag([]byte{0xB2, 0xCE}); err != nil || r != '参' {
		t.Fatalf("GBK 0xB2CE 应解出「参」，实际 %q %v", r, err)
	}
}
