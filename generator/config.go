package generator

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chesterccchen/synthetic-handwriting-data/compositor"
	"github.com/chesterccchen/synthetic-handwriting-data/layout"
)

// Mode 决定每个样本的目标文本来源。
type Mode string

const (
	// ModeRandomChars 从字形索引的字符集逐字随机抽样。
	ModeRandomChars Mode = "randomCharacters"
	// ModeCompanyNames 从公司名列表抽取字面字符串。
	ModeCompanyNames Mode = "literalCompanyNames"
	// ModeCapitalAmounts 生成中文大写金额格栏样本。
	ModeCapitalAmounts Mode = "capitalAmounts"
	// ModeMixed 每个样本在可用模式间随机选择。
	ModeMixed Mode = "mixed"
)

// Config 驱动一次生成运行。JSON 字段与命令行配置文件一一对应。
type Config struct {
	// 字形来源，至少给出一种
	CorpusDirs []string `json:"corpusDirs,omitempty"` // 扫描图片目录
	GNTPaths   []string `json:"gntPaths,omitempty"`   // CASIA .gnt 文件或目录
	FontPath   string   `json:"fontPath,omitempty"`   // 字体补充来源
	FontChars  string   `json:"fontChars,omitempty"`  // 字体来源要渲染的字符集

	// 背景：模板 DSL 文件或直接给背景图加区域框
	TemplateFile string `json:"template,omitempty"`
	Region       string `json:"region,omitempty"`     // 区域名，空则取模板第一个区域
	Background   string `json:"background,omitempty"` // 无模板时的背景图路径
	RegionRect   []int  `json:"regionRect,omitempty"` // 无模板时的区域框 x0 y0 x1 y1

	OutputDir   string `json:"outputDir"`
	SampleCount int    `json:"sampleCount"`
	Mode        Mode   `json:"mode"`

	// 字面字符串来源：文件路径或内联列表（二选一，内联优先）
	CompanyList  string   `json:"companyList,omitempty"`
	CompanyNames []string `json:"companyNames,omitempty"`

	Seed      int64 `json:"seed"`
	LengthMin int   `json:"lengthMin,omitempty"` // randomCharacters 模式的长度区间
	LengthMax int   `json:"lengthMax,omitempty"`

	Style   layout.Style        `json:"style"`
	Augment *compositor.Augment `json:"augment,omitempty"` // 缺省时使用 DefaultAugment

	HOCR      bool `json:"hocr,omitempty"`      // 额外输出 hOCR 真值
	QRStamp   bool `json:"qrStamp,omitempty"`   // 在画布角落贴样本标识二维码
	PlanDebug bool `json:"planDebug,omitempty"` // 同时输出每个样本的排版计划 JSON

	Workers        int     `json:"workers,omitempty"`        // 零值取 GOMAXPROCS
	MaxFailureRate float64 `json:"maxFailureRate,omitempty"` // 超过则中止批次，零值取 0.5
}

// LoadConfig 从 JSON 文件读取配置。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("无法读取配置文件 %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// Validate 在装载任何资源之前检查配置自洽。
func (c *Config) Validate() error {
	if c.SampleCount <= 0 {
		return fmt.Errorf("sampleCount 必须为正，当前为 %d", c.SampleCount)
	}
	switch c.Mode {
	case ModeRandomChars, ModeCompanyNames, ModeCapitalAmounts, ModeMixed:
	case "":
		return fmt.Errorf("缺少 mode")
	default:
		return fmt.Errorf("未知 mode: %s", c.Mode)
	}
	if (c.Mode == ModeCompanyNames || c.Mode == ModeMixed) &&
		c.CompanyList == "" && len(c.CompanyNames) == 0 {
		return fmt.Errorf("mode %s 需要 companyList 或 companyNames", c.Mode)
	}
	if len(c.CorpusDirs) == 0 && len(c.GNTPaths) == 0 && c.FontPath == "" {
		return fmt.Errorf("至少需要一种字形来源")
	}
	if c.TemplateFile == "" {
		if c.Background == "" {
			return fmt.Errorf("需要 template 或 background")
		}
		if len(c.RegionRect) != 4 {
			return fmt.Errorf("无模板时 regionRect 必须是 4 个整数，当前 %d 个", len(c.RegionRect))
		}
	}
	if c.MaxFailureRate < 0 || c.MaxFailureRate > 1 {
		return fmt.Errorf("maxFailureRate 必须在 [0,1] 内")
	}
	return nil
}

// effectiveStyle 返回补全默认值后的排版参数。
func (c *Config) effectiveStyle() layout.Style {
	s := c.Style
	if s.ScaleMax <= 0 {
		s = layout.DefaultStyle()
	}
	return s
}

func (c *Config) effectiveAugment() compositor.Augment {
	if c.Augment != nil {
		return *c.Augment
	}
	return compositor.DefaultAugment()
}

func (c *Config) effectiveFailureRate() float64 {
	if c.MaxFailureRate == 0 {
		return 0.5
	}
	return c.MaxFailureRate
}
