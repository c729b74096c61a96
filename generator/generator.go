// Package generator 负责一次生成运行的全部编排：装载字形索引与背景模板、
// 为每个样本派生独立随机源、在 worker 池上并行生成，并统计失败。
//
// 运行级错误（语料、背景、配置）在提交任何工作之前直接失败；单个样本的
// 排版/合成失败只记录并跳过，除非失败率超过阈值。
package generator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/chesterccchen/synthetic-handwriting-data/annotation"
	"github.com/chesterccchen/synthetic-handwriting-data/compositor"
	"github.com/chesterccchen/synthetic-handwriting-data/corpus"
	"github.com/chesterccchen/synthetic-handwriting-data/layout"
	"github.com/chesterccchen/synthetic-handwriting-data/sampler"
	"github.com/chesterccchen/synthetic-handwriting-data/template"
)

// seedStride 用于把 (运行 seed, 样本序号) 混合成每样本的随机源种子。
const seedStride = int64(-0x61C8864680B583EB) // 0x9E3779B97F4A7C15 as int64

// Sample 是一个完成的输出样本：画布快照、标签与标注。交给写出端后不再修改。
type Sample struct {
	Index       int
	Image       *image.NRGBA
	Label       string
	Annotations []annotation.Annotation
	Truncated   bool
}

// Report 汇总一次运行的结果。所有被跳过的样本都按原因计数，不会静默丢失。
type Report struct {
	Requested int
	Generated int
	Skipped   int
	Failures  map[string]int
	Aborted   bool // 失败率超过阈值提前中止
}

// BackgroundLoadError 表示背景图缺失或无法解码，属于致命错误。
type BackgroundLoadError struct {
	Path string
	Err  error
}

func (e *BackgroundLoadError) Error() string {
	return fmt.Sprintf("装载背景 %s 失败: %v", e.Path, e.Err)
}

func (e *BackgroundLoadError) Unwrap() error { return e.Err }

// Generator 持有一次运行的只读资源，可被全部 worker 并发共享。
type Generator struct {
	cfg        Config
	style      layout.Style
	augment    compositor.Augment
	index      *corpus.Index
	background *image.NRGBA
	region     template.Region

	randomChars *sampler.RandomChars
	literal     *sampler.Literal
	capital     *sampler.CapitalAmount
}

// New 校验配置并装载全部共享资源。任何装载失败都在生成开始前返回。
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var sources []corpus.Source
	for _, dir := range cfg.CorpusDirs {
		sources = append(sources, corpus.DirSource{Root: dir})
	}
	for _, p := range cfg.GNTPaths {
		sources = append(sources, corpus.GNTSource{Root: p})
	}
	if cfg.FontPath != "" {
		sources = append(sources, corpus.FontSource{Path: cfg.FontPath, Chars: cfg.FontChars})
	}
	idx, err := corpus.Load(sources...)
	if err != nil {
		return nil, err
	}

	var region template.Region
	backgroundPath := cfg.Background
	if cfg.TemplateFile != "" {
		tmpl, err := template.ParseFile(cfg.TemplateFile)
		if err != nil {
			return nil, err
		}
		if cfg.Region != "" {
			r, ok := tmpl.Region(cfg.Region)
			if !ok {
				return nil, fmt.Errorf("模板中没有名为 %s 的区域", cfg.Region)
			}
			region = r
		} else if r, ok := tmpl.First(); ok {
			region = r
		}
		if tmpl.Background != "" {
			backgroundPath = tmpl.Background
		}
	} else {
		rr := cfg.RegionRect
		region = template.Region{
			Name: "default",
			Rect: image.Rect(rr[0], rr[1], rr[2], rr[3]),
			Kind: template.KindLine,
		}
		if cfg.Mode == ModeCapitalAmounts {
			return nil, fmt.Errorf("capitalAmounts 模式需要带格栏区域的模板文件")
		}
	}

	bg, err := imaging.Open(backgroundPath)
	if err != nil {
		return nil, &BackgroundLoadError{Path: backgroundPath, Err: err}
	}

	var companies []string
	if cfg.Mode == ModeCompanyNames || cfg.Mode == ModeMixed {
		companies = cfg.CompanyNames
		if len(companies) == 0 && cfg.CompanyList != "" {
			companies, err = sampler.LoadLiteralList(cfg.CompanyList)
			if err != nil {
				return nil, fmt.Errorf("装载公司名列表失败: %w", err)
			}
		}
	}

	return newFromParts(cfg, idx, bg, region, companies)
}

// NewFromParts 用已装载的资源构建生成器，供测试与嵌入方使用。
func NewFromParts(cfg Config, idx *corpus.Index, background image.Image, region template.Region, companies []string) (*Generator, error) {
	return newFromParts(cfg, idx, background, region, companies)
}

func newFromParts(cfg Config, idx *corpus.Index, background image.Image, region template.Region, companies []string) (*Generator, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	bg := imaging.Clone(background)
	if !region.Rect.In(bg.Bounds()) {
		return nil, fmt.Errorf("区域 %v 超出背景 %v", region.Rect, bg.Bounds())
	}

	g := &Generator{
		cfg:        cfg,
		style:      cfg.effectiveStyle(),
		augment:    cfg.effectiveAugment(),
		index:      idx,
		background: bg,
		region:     region,
		capital:    &sampler.CapitalAmount{},
	}

	if cfg.Mode == ModeRandomChars || cfg.Mode == ModeMixed {
		alphabet := idx.Alphabet()
		if len(alphabet) == 0 {
			return nil, &sampler.EmptyAlphabetError{}
		}
		lo, hi := cfg.LengthMin, cfg.LengthMax
		if lo <= 0 {
			lo = 4
		}
		if hi < lo {
			hi = lo + 6
		}
		g.randomChars = &sampler.RandomChars{Alphabet: alphabet, MinLen: lo, MaxLen: hi}
	}
	if cfg.Mode == ModeCompanyNames || cfg.Mode == ModeMixed {
		if len(companies) == 0 {
			return nil, &sampler.EmptyListError{}
		}
		g.literal = &sampler.Literal{Entries: companies}
	}
	return g, nil
}

// Index 暴露只读字形索引（供预览服务展示统计）。
func (g *Generator) Index() *corpus.Index { return g.index }

// rngFor 为样本派生独立随机源。同一 (seed, index) 必然得到同一序列，
// 与 worker 调度顺序无关。
func (g *Generator) rngFor(index int) *rand.Rand {
	return rand.New(rand.NewSource(g.cfg.Seed + int64(index+1)*seedStride))
}

// GenerateSample 生成第 index 个样本。字符缺字时重抽一次目标文本，仍缺则
// 返回 MissingGlyphError 由调用方跳过。
func (g *Generator) GenerateSample(index int) (*Sample, error) {
	rng := g.rngFor(index)

	canvas := imaging.Clone(g.background)
	canvas = compositor.TintBackground(canvas, g.augment, rng)
	ink := compositor.RandomInk(rng)

	mode := g.cfg.Mode
	if mode == ModeMixed {
		mode = g.pickMode(rng)
	}

	var (
		plan  *layout.Plan
		label string
		err   error
	)
	for attempt := 0; attempt < 2; attempt++ {
		plan, label, err = g.planOnce(mode, rng)
		if err == nil {
			break
		}
		var missing *corpus.MissingGlyphError
		if !errors.As(err, &missing) {
			return nil, err
		}
		// 缺字：换一条目标文本再试一次
	}
	if err != nil {
		return nil, err
	}

	if g.cfg.PlanDebug && g.cfg.OutputDir != "" {
		p := filepath.Join(g.cfg.OutputDir, fmt.Sprintf("plan_%06d.json", index))
		if err := layout.WritePlanJSON(plan, p); err != nil {
			Logger().Warn("排版计划写出失败", "index", index, "err", err)
		}
	}

	compositor.Compose(canvas, plan, ink)
	if len(plan.EmptyCells) > 0 && rng.Float64() < 0.5 {
		compositor.Strikethrough(canvas, plan.EmptyCells, ink, rng)
	}
	if g.cfg.QRStamp {
		pos := image.Pt(canvas.Bounds().Dx()-70, 6)
		if err := compositor.StampQR(canvas, fmt.Sprintf("sample-%06d", index), 64, pos); err != nil {
			Logger().Warn("二维码贴图失败", "index", index, "err", err)
		}
	}
	canvas = compositor.Finish(canvas, g.augment, rng)

	return &Sample{
		Index:       index,
		Image:       canvas,
		Label:       label,
		Annotations: annotation.Record(plan),
		Truncated:   plan.Truncated,
	}, nil
}

// planOnce 抽一条目标文本并排版。返回的 label 是写入 labels.txt 的完整标签：
// 大写金额模式含印刷单位字，其余模式即实际放置的文本。
func (g *Generator) planOnce(mode Mode, rng *rand.Rand) (*layout.Plan, string, error) {
	if mode == ModeCapitalAmounts {
		cells, label := g.capital.SampleCells(rng)
		plan, err := layout.LayoutCells(cells, g.region, g.style, g.index, rng)
		if err != nil {
			return nil, "", err
		}
		return plan, label, nil
	}

	var s sampler.Sampler
	switch mode {
	case ModeRandomChars:
		s = g.randomChars
	case ModeCompanyNames:
		s = g.literal
	default:
		return nil, "", fmt.Errorf("模式 %s 无法排版", mode)
	}
	text, err := s.Sample(rng)
	if err != nil {
		return nil, "", err
	}
	plan, err := layout.Layout(text, g.region, g.style, g.index, rng)
	if err != nil {
		return nil, "", err
	}
	return plan, plan.Placed, nil
}

// pickMode 在混合模式下为单个样本选择实际来源。格栏区域固定走大写金额。
func (g *Generator) pickMode(rng *rand.Rand) Mode {
	if g.region.Kind == template.KindCells {
		return ModeCapitalAmounts
	}
	modes := make([]Mode, 0, 2)
	if g.randomChars != nil {
		modes = append(modes, ModeRandomChars)
	}
	if g.literal != nil {
		modes = append(modes, ModeCompanyNames)
	}
	return modes[rng.Intn(len(modes))]
}

// Run 在 worker 池上生成全部样本，按样本序号顺序逐个交给 emit。emit 串行调用，
// 可放心做文件写出。ctx 取消后不再投递新样本，在途样本照常完成。
func (g *Generator) Run(ctx context.Context, emit func(*Sample) error) (*Report, error) {
	workers := g.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	total := g.cfg.SampleCount
	report := &Report{Requested: total, Failures: map[string]int{}}
	maxSkipped := int(g.cfg.effectiveFailureRate() * float64(total))

	type result struct {
		sample *Sample
		index  int
		err    error
	}

	indices := make(chan int)
	results := make(chan result)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				s, err := g.GenerateSample(i)
				results <- result{sample: s, index: i, err: err}
			}
		}()
	}

	go func() {
		defer close(indices)
		for i := 0; i < total; i++ {
			select {
			case indices <- i:
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	var emitErr error
	stopped := false

	handle := func(r result) {
		if r.err != nil {
			report.Skipped++
			report.Failures[failureKind(r.err)]++
			Logger().Warn("样本生成失败，已跳过", "index", r.index, "err", r.err)
			if report.Skipped > maxSkipped && !stopped {
				report.Aborted = true
				stopped = true
				close(stop)
			}
			return
		}
		if emitErr == nil && !stopped {
			if err := emit(r.sample); err != nil {
				emitErr = fmt.Errorf("写出样本 %d 失败: %w", r.index, err)
				stopped = true
				close(stop)
				return
			}
			report.Generated++
		}
	}

	// 结果按 worker 完成顺序到达：先缓冲，再按样本序号连续地交给 handle，
	// 让 labels.txt 等逐行输出的行序与 worker 数无关。在途样本最多 workers 个，
	// 缓冲不会无界增长。
	pending := map[int]result{}
	next := 0
	for r := range results {
		pending[r.index] = r
		for {
			q, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			handle(q)
		}
	}
	// 提前停止会在序号序列里留下空洞，剩余结果仍按序号补记
	rest := make([]int, 0, len(pending))
	for i := range pending {
		rest = append(rest, i)
	}
	sort.Ints(rest)
	for _, i := range rest {
		handle(pending[i])
	}

	if emitErr != nil {
		return report, emitErr
	}
	if report.Aborted {
		return report, fmt.Errorf("失败样本 %d 个，超过阈值，运行中止", report.Skipped)
	}
	return report, nil
}

// failureKind 把样本级错误归类为统计键。
func failureKind(err error) string {
	var missing *corpus.MissingGlyphError
	if errors.As(err, &missing) {
		return "missingGlyph"
	}
	var small *layout.RegionTooSmallError
	if errors.As(err, &small) {
		return "regionTooSmall"
	}
	return "other"
}
