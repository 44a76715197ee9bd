// Package chunker splits rendered reports into blocks that fit in a single
// chat message.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxSize is the largest message most chat platforms accept without
// truncation.
const DefaultMaxSize = 2000

// Options configures chunking behavior.
type Options struct {
	// MaxSize is the largest block in bytes.
	MaxSize int
	// SectionEnd is a line that closes a section. Sections are kept whole
	// unless one alone is larger than MaxSize.
	SectionEnd string
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{MaxSize: DefaultMaxSize}
}

// ChunkResult represents a block with its position in the original text.
type ChunkResult struct {
	Text      string
	StartLine int
	EndLine   int
}

// Chunk splits text into blocks of at most opts.MaxSize bytes. Sections are
// packed together while they fit. An oversized section is split on line
// boundaries and an oversized line is cut into pieces, so no text is lost.
func Chunk(text string, opts Options) []ChunkResult {
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}

	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return nil
	}

	if len(text) <= opts.MaxSize {
		lines := strings.Count(text, "\n")
		return []ChunkResult{{Text: text, StartLine: 1, EndLine: lines + 1}}
	}

	return mergeBlocks(splitBlocks(text, opts.SectionEnd), opts)
}

// Texts returns the text of each chunk.
func Texts(chunks []ChunkResult) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

type block struct {
	text      string
	startLine int
	endLine   int
}

// splitBlocks splits text after section-end lines and on double blank lines.
func splitBlocks(text, sectionEnd string) []block {
	lines := strings.Split(text, "\n")
	var blocks []block
	var current []string
	startLine := 1

	flush := func(endLine int) {
		if len(current) == 0 {
			return
		}
		t := strings.TrimSpace(strings.Join(current, "\n"))
		if t != "" {
			blocks = append(blocks, block{text: t, startLine: startLine, endLine: endLine})
		}
		current = nil
		startLine = endLine + 1
	}

	prevEmpty := false
	for i, line := range lines {
		lineNum := i + 1
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			if prevEmpty && len(current) > 0 {
				flush(lineNum - 1)
			}
			prevEmpty = true
			current = append(current, line)
			continue
		}
		prevEmpty = false
		current = append(current, line)

		if sectionEnd != "" && trimmed == sectionEnd {
			flush(lineNum)
		}
	}
	flush(len(lines))

	return blocks
}

// mergeBlocks packs blocks up to MaxSize and splits oversized ones.
func mergeBlocks(blocks []block, opts Options) []ChunkResult {
	var results []ChunkResult
	var accum block

	flushAccum := func() {
		if accum.text == "" {
			return
		}
		if len(accum.text) > opts.MaxSize {
			results = append(results, hardSplit(accum.text, accum.startLine, opts.MaxSize)...)
		} else {
			results = append(results, ChunkResult{Text: accum.text, StartLine: accum.startLine, EndLine: accum.endLine})
		}
		accum = block{}
	}

	for _, b := range blocks {
		if accum.text == "" {
			accum = b
			continue
		}

		combined := accum.text + "\n" + b.text
		if len(combined) <= opts.MaxSize {
			accum.text = combined
			accum.endLine = b.endLine
		} else {
			flushAccum()
			accum = b
		}
	}
	flushAccum()

	return results
}

// hardSplit breaks text that exceeds maxSize on line boundaries. Lines that
// are longer than maxSize on their own are cut at rune boundaries.
func hardSplit(text string, startLine, maxSize int) []ChunkResult {
	lines := strings.Split(text, "\n")
	var results []ChunkResult
	var current []string
	curStart := startLine
	curLen := 0

	emit := func(endLine int) {
		if len(current) == 0 {
			return
		}
		if t := strings.Join(current, "\n"); strings.TrimSpace(t) != "" {
			results = append(results, ChunkResult{Text: t, StartLine: curStart, EndLine: endLine})
		}
		current = nil
		curLen = 0
	}

	for i, line := range lines {
		lineNum := startLine + i
		if len(line) > maxSize {
			emit(lineNum - 1)
			for _, piece := range cutLine(line, maxSize) {
				results = append(results, ChunkResult{Text: piece, StartLine: lineNum, EndLine: lineNum})
			}
			curStart = lineNum + 1
			continue
		}

		add := len(line)
		if len(current) > 0 {
			add++ // newline
		}
		if curLen+add > maxSize {
			emit(lineNum - 1)
			curStart = lineNum
			add = len(line)
		}
		current = append(current, line)
		curLen += add
	}
	emit(startLine + len(lines) - 1)

	return results
}

func cutLine(line string, maxSize int) []string {
	var pieces []string
	for len(line) > maxSize {
		cut := maxSize
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxSize
		}
		pieces = append(pieces, line[:cut])
		line = line[cut:]
	}
	if line != "" {
		pieces = append(pieces, line)
	}
	return pieces
}
