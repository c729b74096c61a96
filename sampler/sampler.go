// Package sampler 负责为每个样本产出目标文本：随机字符串、公司名等字面字符串，
// 以及中文大写金额。不同来源以 Sampler 接口的不同实现表达，布局与合成阶段
// 对来源无感知。
package sampler

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
)

// Sampler 用调用方提供的随机源抽取一条目标文本。
type Sampler interface {
	Sample(rng *rand.Rand) (string, error)
}

// RandomChars 按字符逐个均匀抽样，字符集来自字形索引的已知字符。
type RandomChars struct {
	Alphabet []rune
	MinLen   int
	MaxLen   int
}

func (s *RandomChars) Sample(rng *rand.Rand) (string, error) {
	if len(s.Alphabet) == 0 {
		return "", &EmptyAlphabetError{}
	}
	lo, hi := s.MinLen, s.MaxLen
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	n := lo + rng.Intn(hi-lo+1)
	rs := make([]rune, n)
	for i := range rs {
		rs[i] = s.Alphabet[rng.Intn(len(s.Alphabet))]
	}
	return string(rs), nil
}

// Literal 从一组字面字符串（例如公司名列表）中均匀抽取一条。
type Literal struct {
	Entries []string
}

func (s *Literal) Sample(rng *rand.Rand) (string, error) {
	if len(s.Entries) == 0 {
		return "", &EmptyListError{}
	}
	return s.Entries[rng.Intn(len(s.Entries))], nil
}

// LoadLiteralList 读取字面字符串列表。每行既可以是纯文本，也可以是 CSV——
// CSV 行取第三栏（沿用公司名列表的既有格式），空行与空栏跳过。
func LoadLiteralList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if parts := strings.Split(line, ","); len(parts) >= 3 {
			line = strings.TrimSpace(parts[2])
		}
		if line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("列表 %s 为空", path)
	}
	return out, nil
}

// EmptyAlphabetError 表示字形索引中没有任何已知字符，无法抽样。
type EmptyAlphabetError struct{}

func (e *EmptyAlphabetError) Error() string { return "字符集为空，无法抽样随机字符串" }

// EmptyListError 表示字面字符串列表为空。
type EmptyListError struct{}

func (e *EmptyListError) Error() string { return "字面字符串列表为空" }
