package nlu

import (
	"regexp"
	"sort"

	"github.com/parleybot/parley/pkg/models"
)

// Reserved names of the built-in system dictionaries.
const (
	SysDictLoc  = "@LOC"
	SysDictTime = "@TIME"
	SysDictNum  = "@NUM"
)

// regexRecognizer is a pattern-backed built-in recognizer. The built-ins
// are deliberately simple; the catalog contract is what matters, not
// recognizer quality.
type regexRecognizer struct {
	patterns []*regexp.Regexp
}

func (r *regexRecognizer) Recognize(text string) []models.Span {
	taken := make([]bool, len(text))
	var spans []models.Span
	for _, re := range r.patterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if !regionFree(taken, loc[0], loc[1]) {
				continue
			}
			markTaken(taken, loc[0], loc[1])
			spans = append(spans, models.Span{
				Start: loc[0],
				End:   loc[1],
				Value: text[loc[0]:loc[1]],
			})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func newRegexRecognizer(patterns ...string) *regexRecognizer {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return &regexRecognizer{patterns: compiled}
}

// Catalog is the process-wide, read-only registry of built-in recognizers.
// Chatbots reference entries by name; ref/unref never mutates the catalog.
type Catalog struct {
	recognizers map[string]models.Recognizer
}

func NewSysDictCatalog() *Catalog {
	return &Catalog{
		recognizers: map[string]models.Recognizer{
			SysDictTime: newRegexRecognizer(
				`(今天|明天|后天|大后天|昨天|前天|现在|马上)`,
				`(上午|下午|中午|晚上|凌晨|早上)?[0-9一二三四五六七八九十两]{1,4}[点时]([0-9一二三四五六七八九十]{1,3}分?|半|一刻|三刻)?`,
				`[0-9]{4}年([0-9]{1,2}月([0-9]{1,2}[日号])?)?`,
				`(上午|下午|中午|晚上|凌晨|早上)`,
			),
			SysDictLoc: newRegexRecognizer(
				`[\p{Han}A-Za-z0-9]{1,20}(路|街|大街|大道|区|市|省|县|镇|村|大厦|广场|学校|大学|医院|酒店|小区|公寓|写字楼)([0-9]{1,5}号)?([A-Za-z0-9]{1,6}(号楼|单元|层|室))*`,
			),
			SysDictNum: newRegexRecognizer(
				`[0-9]+(\.[0-9]+)?`,
			),
		},
	}
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.recognizers[name]
	return ok
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.recognizers))
	for name := range c.recognizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Recognizer(name string) (models.Recognizer, bool) {
	r, ok := c.recognizers[name]
	return r, ok
}
