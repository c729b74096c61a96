package template

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 模板文件是一个很小的声明式 DSL，例如：
//
//	template invoice {
//	    background "assets/receipt.png"
//
//	    region company {
//	        rect 147 58 628 101
//	        lines 2
//	    }
//
//	    region amount {
//	        cells {
//	            cell 141 493 182 532
//	            cell 199 492 235 534
//	        }
//	    }
//	}
//
// rect/cell 均为 x0 y0 x1 y1 像素坐标；声明了 cells 的区域按格栏排版。

var (
	tmplLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?\d+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Brace", Pattern: `[{}]`},
	})

	fileParser = participle.MustBuild[fileAST](
		participle.Lexer(tmplLexer),
		participle.Elide("Whitespace", "LineComment", "HashComment"),
		participle.Unquote("String"),
	)
)

type fileAST struct {
	Name    string      `parser:"'template' @Ident"`
	Entries []*entryAST `parser:"'{' @@* '}'"`
}

type entryAST struct {
	Background *string    `parser:"  'background' @String"`
	Region     *regionAST `parser:"| @@"`
}

type regionAST struct {
	Name  string     `parser:"'region' @Ident"`
	Items []*itemAST `parser:"'{' @@* '}'"`
}

type itemAST struct {
	Rect  *rectAST  `parser:"  'rect' @@"`
	Lines *int      `parser:"| 'lines' @Number"`
	Cells *cellsAST `parser:"| @@"`
}

type rectAST struct {
	X0 int `parser:"@Number"`
	Y0 int `parser:"@Number"`
	X1 int `parser:"@Number"`
	Y1 int `parser:"@Number"`
}

func (r *rectAST) rect() image.Rectangle {
	return image.Rect(r.X0, r.Y0, r.X1, r.Y1)
}

type cellsAST struct {
	Cells []*rectAST `parser:"'cells' '{' ( 'cell' @@ )* '}'"`
}

// Parse 解析模板 DSL 并返回校验过的 Template。
func Parse(r io.Reader) (*Template, error) {
	ast, err := fileParser.Parse("", r)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return fromAST(ast)
}

// ParseString 解析内存中的模板文本，主要供测试使用。
func ParseString(src string) (*Template, error) {
	ast, err := fileParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return fromAST(ast)
}

// ParseFile 解析模板文件，background 相对路径会基于文件所在目录展开。
func ParseFile(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开模板文件 %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if t.Background != "" && !filepath.IsAbs(t.Background) {
		t.Background = filepath.Join(filepath.Dir(path), t.Background)
	}
	return t, nil
}

func fromAST(ast *fileAST) (*Template, error) {
	background := ""
	for _, e := range ast.Entries {
		if e.Background != nil {
			background = *e.Background
		}
	}
	t := NewTemplate(ast.Name, background)

	for _, e := range ast.Entries {
		if e.Region == nil {
			continue
		}
		reg := Region{Name: e.Region.Name, Kind: KindLine, MaxLines: 1}
		for _, item := range e.Region.Items {
			switch {
			case item.Rect != nil:
				reg.Rect = item.Rect.rect()
			case item.Lines != nil:
				reg.MaxLines = *item.Lines
			case item.Cells != nil:
				reg.Kind = KindCells
				for _, c := range item.Cells.Cells {
					reg.Cells = append(reg.Cells, c.rect())
				}
			}
		}
		// 格栏区域未显式给 rect 时，用全部格子的并集作为外框
		if reg.Kind == KindCells && reg.Rect.Empty() {
			for _, c := range reg.Cells {
				reg.Rect = reg.Rect.Union(c)
			}
		}
		if err := t.AddRegion(reg); err != nil {
			return nil, err
		}
	}
	if len(t.order) == 0 {
		return nil, fmt.Errorf("模板 %s 没有定义任何区域", ast.Name)
	}
	return t, nil
}
