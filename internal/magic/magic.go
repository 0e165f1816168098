package magic

// This package implements a rewritable view of a source file. Edits are
// recorded against offsets into the original text and only applied when the
// result is rendered, so every offset from the parser stays valid no matter
// how many edits have already been made.

import (
	"sort"
	"strings"

	"github.com/minroll/minroll/internal/helpers"
)

type String struct {
	original string
	intro    string
	outro    string

	// The part of "original" that this string covers. Snips share the
	// original text with their parent but have their own edits.
	start int32
	end   int32

	// Sorted by start offset and never overlapping
	edits []edit

	// Ranges of the original text whose line breaks are significant, such as
	// the contents of template literals. Indenting never touches them.
	verbatim []span
}

type span struct {
	start int32
	end   int32
}

type edit struct {
	start   int32
	end     int32
	content string
}

func New(original string) *String {
	return &String{original: original, end: int32(len(original))}
}

func (s *String) Original() string {
	return s.original
}

// Snip returns a copy of the edits made to the range [start, end). Edits that
// cross the boundary of the range are dropped.
func (s *String) Snip(start int32, end int32) *String {
	if start < s.start || end > s.end || start > end {
		panic("Internal error: snip is outside of the string")
	}
	clone := &String{original: s.original, start: start, end: end}
	for _, e := range s.edits {
		if e.start >= start && e.end <= end {
			clone.edits = append(clone.edits, e)
		}
	}
	for _, v := range s.verbatim {
		if v.start < end && v.end > start {
			clone.verbatim = append(clone.verbatim, v)
		}
	}
	return clone
}

func (s *String) Clone() *String {
	clone := *s
	clone.edits = append([]edit{}, s.edits...)
	clone.verbatim = append([]span{}, s.verbatim...)
	return &clone
}

// KeepVerbatim marks [start, end) of the original text as text whose line
// breaks must not be followed by indentation.
func (s *String) KeepVerbatim(start int32, end int32) {
	if start < end {
		s.verbatim = append(s.verbatim, span{start: start, end: end})
	}
}

func (s *String) isVerbatim(offset int32) bool {
	for _, v := range s.verbatim {
		if offset >= v.start && offset < v.end {
			return true
		}
	}
	return false
}

// Overwrite replaces the original text in [start, end) with "content". Any
// earlier edit that overlaps the range is discarded.
func (s *String) Overwrite(start int32, end int32, content string) {
	if start < s.start || end > s.end || start >= end {
		panic("Internal error: cannot overwrite outside of the string")
	}

	// Find the first edit that ends after this one starts
	i := sort.Search(len(s.edits), func(i int) bool { return s.edits[i].end > start })
	j := i
	for j < len(s.edits) && s.edits[j].start < end {
		j++
	}

	edits := make([]edit, 0, len(s.edits)-(j-i)+1)
	edits = append(edits, s.edits[:i]...)
	edits = append(edits, edit{start: start, end: end, content: content})
	edits = append(edits, s.edits[j:]...)
	s.edits = edits
}

func (s *String) Remove(start int32, end int32) {
	if start < end {
		s.Overwrite(start, end, "")
	}
}

func (s *String) Prepend(content string) {
	s.intro = content + s.intro
}

func (s *String) Append(content string) {
	s.outro += content
}

func (s *String) Trim() {
	s.TrimStart()
	s.TrimEnd()
}

func (s *String) TrimStart() {
	s.intro = strings.TrimLeftFunc(s.intro, isWhitespace)
	if s.intro != "" {
		return
	}
	for s.start < s.end {
		if len(s.edits) > 0 && s.edits[0].start == s.start {
			first := &s.edits[0]
			first.content = strings.TrimLeftFunc(first.content, isWhitespace)
			if first.content != "" {
				return
			}
			s.start = first.end
			s.edits = s.edits[1:]
			continue
		}
		if !isByteWhitespace(s.original[s.start]) {
			return
		}
		s.start++
	}
	s.outro = strings.TrimLeftFunc(s.outro, isWhitespace)
}

func (s *String) TrimEnd() {
	s.outro = strings.TrimRightFunc(s.outro, isWhitespace)
	if s.outro != "" {
		return
	}
	for s.end > s.start {
		if n := len(s.edits); n > 0 && s.edits[n-1].end == s.end {
			last := &s.edits[n-1]
			last.content = strings.TrimRightFunc(last.content, isWhitespace)
			if last.content != "" {
				return
			}
			s.end = last.start
			s.edits = s.edits[:n-1]
			continue
		}
		if !isByteWhitespace(s.original[s.end-1]) {
			return
		}
		s.end--
	}
	s.intro = strings.TrimRightFunc(s.intro, isWhitespace)
}

func (s *String) String() string {
	j := helpers.Joiner{}
	j.AddString(s.intro)
	offset := s.start
	for _, e := range s.edits {
		j.AddString(s.original[offset:e.start])
		j.AddString(e.content)
		offset = e.end
	}
	j.AddString(s.original[offset:s.end])
	j.AddString(s.outro)
	return j.Done()
}

// Calls "emit" with the rendered text in order. Original text is split at
// every line break so that each piece knows whether it is verbatim.
func (s *String) pieces(emit func(text string, verbatim bool)) {
	emitOriginal := func(start int32, end int32) {
		for start < end {
			i := strings.IndexByte(s.original[start:end], '\n')
			if i < 0 {
				emit(s.original[start:end], false)
				return
			}
			newline := start + int32(i)
			if newline > start {
				emit(s.original[start:newline], false)
			}
			emit("\n", s.isVerbatim(newline))
			start = newline + 1
		}
	}

	emit(s.intro, false)
	offset := s.start
	for _, e := range s.edits {
		emitOriginal(offset, e.start)
		emit(e.content, false)
		offset = e.end
	}
	emitOriginal(offset, s.end)
	emit(s.outro, false)
}

func isWhitespace(c rune) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return false
}

// Only ASCII whitespace is trimmed from the original text since it is
// scanned one byte at a time
func isByteWhitespace(c byte) bool {
	return c < 0x80 && isWhitespace(rune(c))
}

// Bundle concatenates several strings. Each source after the first is
// preceded by its own separator.
type Bundle struct {
	sources []bundleSource
	intro   string
	outro   string
}

type bundleSource struct {
	content   *String
	separator string
}

func (b *Bundle) AddSource(content *String, separator string) {
	b.sources = append(b.sources, bundleSource{content: content, separator: separator})
}

func (b *Bundle) Prepend(content string) {
	b.intro = content + b.intro
}

func (b *Bundle) Append(content string) {
	b.outro += content
}

func (b *Bundle) IsEmpty() bool {
	return b.String() == ""
}

// Trim removes leading and trailing whitespace from the rendered bundle.
func (b *Bundle) Trim() {
	b.trimStart()
	b.trimEnd()
}

func (b *Bundle) trimStart() {
	if b.intro = strings.TrimLeftFunc(b.intro, isWhitespace); b.intro != "" {
		return
	}
	for i := range b.sources {
		source := &b.sources[i]
		if i > 0 {
			if source.separator = strings.TrimLeftFunc(source.separator, isWhitespace); source.separator != "" {
				return
			}
		}
		if source.content.TrimStart(); source.content.String() != "" {
			return
		}
	}
	b.outro = strings.TrimLeftFunc(b.outro, isWhitespace)
}

func (b *Bundle) trimEnd() {
	if b.outro = strings.TrimRightFunc(b.outro, isWhitespace); b.outro != "" {
		return
	}
	for i := len(b.sources) - 1; i >= 0; i-- {
		source := &b.sources[i]
		if source.content.TrimEnd(); source.content.String() != "" {
			return
		}
		if i > 0 {
			if source.separator = strings.TrimRightFunc(source.separator, isWhitespace); source.separator != "" {
				return
			}
		}
	}
	b.intro = strings.TrimRightFunc(b.intro, isWhitespace)
}

// IndentString guesses the indentation used by the sources: a tab if at least
// as many lines start with a tab as with spaces, otherwise the shortest run
// of leading spaces. A tab is also used when nothing is indented. Lines that
// start inside verbatim text don't count.
func (b *Bundle) IndentString() string {
	tabbed := 0
	spaced := 0
	minSpaces := 0

	line := strings.Builder{}
	counts := true
	endLine := func() {
		text := line.String()
		line.Reset()
		if !counts {
			return
		}
		if strings.HasPrefix(text, "\t") {
			tabbed++
		} else if strings.HasPrefix(text, " ") {
			n := len(text) - len(strings.TrimLeft(text, " "))
			if n == len(text) {
				return
			}
			if spaced == 0 || n < minSpaces {
				minSpaces = n
			}
			spaced++
		}
	}

	for _, source := range b.sources {
		counts = true
		source.content.pieces(func(text string, verbatim bool) {
			if text == "\n" {
				endLine()
				counts = !verbatim
				return
			}
			for {
				i := strings.IndexByte(text, '\n')
				if i < 0 {
					line.WriteString(text)
					return
				}
				line.WriteString(text[:i])
				endLine()
				counts = true
				text = text[i+1:]
			}
		})
		endLine()
	}

	if spaced == 0 || tabbed >= spaced {
		return "\t"
	}
	return strings.Repeat(" ", minSpaces)
}

// Indent prefixes every non-empty line of the rendered bundle, including the
// intro and outro. Lines that start inside a verbatim range of a source are
// left alone.
func (b *Bundle) Indent(indent string) {
	j := helpers.Joiner{}
	atLineStart := true
	var verbatim []span

	emit := func(text string, isVerbatim bool) {
		for text != "" {
			if text[0] == '\n' {
				j.AddString("\n")
				atLineStart = !isVerbatim
				text = text[1:]
				continue
			}
			if atLineStart {
				j.AddString(indent)
				atLineStart = false
			}
			i := strings.IndexByte(text, '\n')
			if i < 0 {
				i = len(text)
			}
			j.AddString(text[:i])
			text = text[i:]
		}
	}

	emit(b.intro, false)
	for i, source := range b.sources {
		if i > 0 {
			emit(source.separator, false)
		}
		source.content.pieces(func(text string, isVerbatim bool) {
			if isVerbatim {
				start := int32(j.Length())
				verbatim = append(verbatim, span{start: start, end: start + 1})
			}
			emit(text, isVerbatim)
		})
	}
	emit(b.outro, false)

	b.flatten(j.Done())
	b.sources[0].content.verbatim = verbatim
}

func (b *Bundle) flatten(text string) {
	b.sources = []bundleSource{{content: New(text)}}
	b.intro = ""
	b.outro = ""
}

func (b *Bundle) String() string {
	j := helpers.Joiner{}
	j.AddString(b.intro)
	for i, source := range b.sources {
		if i > 0 {
			j.AddString(source.separator)
		}
		j.AddString(source.content.String())
	}
	j.AddString(b.outro)
	return j.Done()
}
