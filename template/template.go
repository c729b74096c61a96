// Package template 描述背景模板：背景图与若干可填写区域。区域在一次生成运行
// 中只读，可被全部 worker 共享。
package template

import (
	"fmt"
	"image"
)

// Kind 区分区域的排版方式。
type Kind int

const (
	// KindLine 表示自由行排区域：字形沿行方向依次排布，可换行或截断。
	KindLine Kind = iota
	// KindCells 表示固定格栏区域：每格至多放一个字形（例如大写金额栏）。
	KindCells
)

// Region 是背景上的一个可填写区域。
type Region struct {
	Name     string
	Rect     image.Rectangle   // 区域外框（画布像素坐标）
	Kind     Kind
	Cells    []image.Rectangle // KindCells 时的逐格外框
	MaxLines int               // KindLine 时允许的最大行数，零值视为 1
}

// Validate 检查区域定义自洽。
func (r Region) Validate() error {
	if r.Rect.Empty() {
		return fmt.Errorf("区域 %s 的外框为空", r.Name)
	}
	if r.Kind == KindCells {
		if len(r.Cells) == 0 {
			return fmt.Errorf("格栏区域 %s 没有任何格子", r.Name)
		}
		for i, c := range r.Cells {
			if c.Empty() {
				return fmt.Errorf("区域 %s 的第 %d 格为空", r.Name, i)
			}
			if !c.In(r.Rect) {
				return fmt.Errorf("区域 %s 的第 %d 格超出外框", r.Name, i)
			}
		}
	}
	return nil
}

// Template 是一张背景模板及其全部区域。
type Template struct {
	Name       string
	Background string // 背景图路径（相对模板文件所在目录解析）
	regions    map[string]Region
	order      []string
}

// NewTemplate 构建空模板，随后用 AddRegion 填充。
func NewTemplate(name, background string) *Template {
	return &Template{Name: name, Background: background, regions: map[string]Region{}}
}

// AddRegion 登记一个区域；重名视为定义错误。
func (t *Template) AddRegion(r Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if _, ok := t.regions[r.Name]; ok {
		return fmt.Errorf("区域 %s 重复定义", r.Name)
	}
	t.regions[r.Name] = r
	t.order = append(t.order, r.Name)
	return nil
}

// Region 按名称查找区域。
func (t *Template) Region(name string) (Region, bool) {
	r, ok := t.regions[name]
	return r, ok
}

// Regions 按定义顺序返回全部区域。
func (t *Template) Regions() []Region {
	out := make([]Region, 0, len(t.order))
	for _, n := range t.order {
		out = append(out, t.regions[n])
	}
	return out
}

// First 返回模板里定义的第一个区域；模板为空时 ok 为 false。
func (t *Template) First() (Region, bool) {
	if len(t.order) == 0 {
		return Region{}, false
	}
	return t.regions[t.order[0]], true
}
