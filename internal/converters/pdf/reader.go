package pdf

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/markbear/markbear/internal/core/domain"
)

// line is one reconstructed text line with the layout facts the heuristics
// need.
type line struct {
	text string
	size float64
	y    float64
	page int
	mono bool
}

var orderedMarkerRe = regexp.MustCompile(`^\d+[.)]\s+`)

// importFile rebuilds document structure from positioned text fragments.
// The underlying parser panics on some malformed files, so extraction runs
// behind a recover that degrades to ErrSourceUnreadable.
func importFile(path string, ratio float64) (doc *domain.Document, warnings []domain.Warning, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, warnings = nil, nil
			err = fmt.Errorf("%w: malformed content: %v", domain.ErrSourceUnreadable, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrSourceUnreadable, err)
	}
	defer f.Close()

	var lines []line
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, pageLines(page.Content().Text, pageNum)...)
	}

	return assemble(lines, ratio)
}

// pageLines clusters fragments by vertical position and stitches each
// cluster into one line, left to right.
func pageLines(texts []pdf.Text, pageNum int) []line {
	const yTolerance = 2.0

	sort.SliceStable(texts, func(i, j int) bool {
		if math.Abs(texts[i].Y-texts[j].Y) > yTolerance {
			return texts[i].Y > texts[j].Y // PDF y grows upward
		}
		return texts[i].X < texts[j].X
	})

	var lines []line
	for i := 0; i < len(texts); {
		j := i
		for j < len(texts) && math.Abs(texts[j].Y-texts[i].Y) <= yTolerance {
			j++
		}
		if l, ok := stitch(texts[i:j], pageNum); ok {
			lines = append(lines, l)
		}
		i = j
	}
	return lines
}

func stitch(frags []pdf.Text, pageNum int) (line, bool) {
	var sb strings.Builder
	l := line{y: frags[0].Y, page: pageNum, mono: true}
	prevEnd := math.Inf(-1)

	for _, t := range frags {
		if t.S == "" {
			continue
		}
		if sb.Len() > 0 && t.X-prevEnd > 1.0 &&
			!strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(t.S, " ") {
			sb.WriteString(" ")
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W
		if t.FontSize > l.size {
			l.size = t.FontSize
		}
		if !isMonoFont(t.Font) {
			l.mono = false
		}
	}

	l.text = strings.TrimSpace(sb.String())
	if l.text == "" {
		return line{}, false
	}
	return l, true
}

func isMonoFont(name string) bool {
	return strings.Contains(name, "Courier") || strings.Contains(name, "Mono")
}

// assemble turns lines into blocks. The most common font size is taken as
// body text; lines at ratio times that size or more become headings, their
// level given by size rank.
func assemble(lines []line, ratio float64) (*domain.Document, []domain.Warning, error) {
	if len(lines) == 0 {
		return &domain.Document{}, nil, nil
	}

	body := dominantSize(lines)
	levels := headingLevels(lines, body, ratio)

	var blocks []domain.Block
	var para []string
	var bullets []string
	var numbered []string
	var code []string
	prev := line{page: -1}

	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, &domain.Paragraph{Content: []domain.Span{
				&domain.Text{Text: strings.Join(para, " ")},
			}})
			para = nil
		}
	}
	flushLists := func() {
		if len(bullets) > 0 {
			blocks = append(blocks, textList(bullets, false))
			bullets = nil
		}
		if len(numbered) > 0 {
			blocks = append(blocks, textList(numbered, true))
			numbered = nil
		}
	}
	flushCode := func() {
		if len(code) > 0 {
			blocks = append(blocks, &domain.CodeBlock{Text: strings.Join(code, "\n") + "\n"})
			code = nil
		}
	}
	flushAll := func() {
		flushPara()
		flushLists()
		flushCode()
	}

	for _, l := range lines {
		// A page change or an oversized vertical gap ends the current
		// paragraph.
		if l.page != prev.page || (prev.page >= 0 && prev.y-l.y > body*2.4) {
			flushAll()
		}
		prev = l

		if level, ok := levels[sizeKey(l.size)]; ok {
			flushAll()
			blocks = append(blocks, &domain.Heading{
				Level:   level,
				Content: []domain.Span{&domain.Text{Text: l.text}},
			})
			continue
		}

		switch {
		case strings.HasPrefix(l.text, "•") || strings.HasPrefix(l.text, "◦"):
			flushPara()
			flushCode()
			if len(numbered) > 0 {
				flushLists()
			}
			bullets = append(bullets, strings.TrimSpace(strings.TrimLeft(l.text, "•◦ ")))
		case orderedMarkerRe.MatchString(l.text):
			flushPara()
			flushCode()
			if len(bullets) > 0 {
				flushLists()
			}
			numbered = append(numbered, orderedMarkerRe.ReplaceAllString(l.text, ""))
		case l.mono:
			flushPara()
			flushLists()
			code = append(code, l.text)
		default:
			flushLists()
			flushCode()
			para = append(para, l.text)
		}
	}
	flushAll()

	return &domain.Document{Blocks: blocks}, nil, nil
}

func textList(items []string, ordered bool) domain.Block {
	list := make([]domain.ListItem, len(items))
	for i, text := range items {
		list[i] = domain.ListItem{Blocks: []domain.Block{
			&domain.Paragraph{Content: []domain.Span{&domain.Text{Text: text}}},
		}}
	}
	if ordered {
		return &domain.OrderedList{Items: list}
	}
	return &domain.BulletList{Items: list}
}

// sizeKey buckets font sizes to half-point precision so near-equal sizes
// compare equal.
func sizeKey(size float64) float64 {
	return math.Round(size*2) / 2
}

func dominantSize(lines []line) float64 {
	counts := map[float64]int{}
	for _, l := range lines {
		counts[sizeKey(l.size)]++
	}
	best, bestCount := 0.0, 0
	for size, count := range counts {
		if count > bestCount || (count == bestCount && size < best) {
			best, bestCount = size, count
		}
	}
	return best
}

// headingLevels ranks the distinct sizes above the heading threshold:
// the largest becomes level 1, the next level 2, and so on.
func headingLevels(lines []line, body, ratio float64) map[float64]int {
	seen := map[float64]bool{}
	for _, l := range lines {
		key := sizeKey(l.size)
		if key >= sizeKey(body*ratio) && key > body {
			seen[key] = true
		}
	}
	sizes := make([]float64, 0, len(seen))
	for size := range seen {
		sizes = append(sizes, size)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	levels := map[float64]int{}
	for i, size := range sizes {
		level := i + 1
		if level > 6 {
			level = 6
		}
		levels[size] = level
	}
	return levels
}
