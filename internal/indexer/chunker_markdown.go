package indexer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxSectionSize is the byte budget for a single markdown section chunk
// before it is split into hN_section_split_K parts.
const MaxSectionSize = 3000

var (
	atxHeadingRe     = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	setextH1Underline = regexp.MustCompile(`^=+\s*$`)
	setextH2Underline = regexp.MustCompile(`^-+\s*$`)
)

// markdownHeading is a heading found in document order.
type markdownHeading struct {
	level     int
	text      string
	startLine int // 1-based line of the heading text itself
	endLine   int // last line consumed by the heading (includes Setext underline)
}

// MarkdownChunker implements the markdown handler described in the
// syntactic chunker contract: ATX/Setext heading extraction, nested
// section spans, parent-heading context prefixing, and MAX_SECTION_SIZE
// splitting.
type MarkdownChunker struct{}

// NewMarkdownChunker creates a markdown-aware chunker.
func NewMarkdownChunker() *MarkdownChunker {
	return &MarkdownChunker{}
}

// Supports reports whether this chunker handles the given extension.
func (m *MarkdownChunker) Supports(fileExtension string) bool {
	ext := strings.ToLower(fileExtension)
	return ext == ".md" || ext == ".markdown"
}

// Chunk splits a markdown document into section chunks.
func (m *MarkdownChunker) Chunk(ctx context.Context, content string, filePath string) ([]Chunk, error) {
	lines := strings.Split(content, "\n")
	headings := extractHeadings(lines)

	if len(headings) == 0 {
		// No headings: defer to plain-text fallback.
		return PlainTextChunk(content, filePath)
	}

	var chunks []Chunk

	// Content preceding the first heading becomes root_content.
	if headings[0].startLine > 1 {
		preface := strings.Join(lines[0:headings[0].startLine-1], "\n")
		if strings.TrimSpace(preface) != "" {
			chunks = append(chunks, m.splitSection(preface, filePath, "root_content", 1, headings[0].startLine-1, nil)...)
		}
	}

	for i, h := range headings {
		sectionStart := h.endLine + 1
		sectionEnd := len(lines)
		for j := i + 1; j < len(headings); j++ {
			if headings[j].level <= h.level {
				sectionEnd = headings[j].startLine - 1
				break
			}
		}
		var body string
		if sectionStart <= sectionEnd {
			body = strings.Join(lines[sectionStart-1:sectionEnd], "\n")
		}

		parents := parentChain(headings, i)
		elementKind := fmt.Sprintf("h%d_section", h.level)
		chunks = append(chunks, m.splitSection(body, filePath, elementKind, sectionStart, sectionEnd, parents)...)
	}

	return chunks, nil
}

// parentChain returns the ancestor headings (level strictly less than
// headings[idx], nearest enclosing first walked backward, returned in
// document order) used as parent context.
func parentChain(headings []markdownHeading, idx int) []markdownHeading {
	var chain []markdownHeading
	level := headings[idx].level
	for j := idx - 1; j >= 0; j-- {
		if headings[j].level < level {
			chain = append([]markdownHeading{headings[j]}, chain...)
			level = headings[j].level
		}
	}
	return chain
}

// splitSection composes the parent-context-prefixed chunk text and splits
// it at MaxSectionSize boundaries, preferring the latest line break that
// fits the remaining budget and never splitting inside a multi-byte rune.
func (m *MarkdownChunker) splitSection(body, filePath, elementKind string, startLine, endLine int, parents []markdownHeading) []Chunk {
	var prefix strings.Builder
	for _, p := range parents {
		prefix.WriteString(strings.Repeat("#", p.level))
		prefix.WriteByte(' ')
		prefix.WriteString(p.text)
		prefix.WriteByte('\n')
	}
	composed := prefix.String() + body

	if len(composed) <= MaxSectionSize {
		return []Chunk{m.makeChunk(composed, filePath, elementKind, startLine, endLine)}
	}

	var chunks []Chunk
	remaining := composed
	split := 1
	lineOffset := startLine
	for len(remaining) > 0 {
		if len(remaining) <= MaxSectionSize {
			kind := fmt.Sprintf("%s_split_%d", elementKind, split)
			chunks = append(chunks, m.makeChunk(remaining, filePath, kind, lineOffset, endLine))
			break
		}

		cut := MaxSectionSize
		// Prefer the latest line break within budget.
		if nl := strings.LastIndexByte(remaining[:cut], '\n'); nl > 0 {
			cut = nl + 1
		} else {
			// No line break fits; back off to the last safe rune boundary.
			for cut > 0 && !isRuneBoundary(remaining, cut) {
				cut--
			}
			if cut == 0 {
				cut = len(remaining)
			}
		}

		piece := remaining[:cut]
		kind := fmt.Sprintf("%s_split_%d", elementKind, split)
		pieceLines := strings.Count(piece, "\n")
		chunks = append(chunks, m.makeChunk(piece, filePath, kind, lineOffset, lineOffset+pieceLines))
		lineOffset += pieceLines
		remaining = remaining[cut:]
		split++
	}
	return chunks
}

func isRuneBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	// UTF-8 continuation bytes have the top two bits set to 10.
	return s[i]&0xC0 != 0x80
}

func (m *MarkdownChunker) makeChunk(content, filePath, elementKind string, startLine, endLine int) Chunk {
	return Chunk{
		ID:        generateChunkID(filePath, elementKind, "", startLine),
		Content:   content,
		FilePath:  filePath,
		Language:  "markdown",
		Type:      ChunkTypeParagraph,
		StartLine: startLine,
		EndLine:   endLine,
		Metadata:  map[string]string{"element_kind": elementKind},
		Hash:      generateContentHash(content),
		IndexedAt: time.Now(),
	}
}

// extractHeadings scans lines for ATX (`#`..`######`) and Setext (`===`/
// `---` underlines) headings, in document order.
func extractHeadings(lines []string) []markdownHeading {
	var headings []markdownHeading
	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if m := atxHeadingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, markdownHeading{
				level:     len(m[1]),
				text:      strings.TrimSpace(m[2]),
				startLine: i + 1,
				endLine:   i + 1,
			})
			continue
		}

		// Setext: a non-blank line followed by an underline of = or -.
		if i+1 < len(lines) && strings.TrimSpace(line) != "" {
			next := lines[i+1]
			switch {
			case setextH1Underline.MatchString(next):
				headings = append(headings, markdownHeading{
					level:     1,
					text:      strings.TrimSpace(line),
					startLine: i + 1,
					endLine:   i + 2,
				})
				i++
			case setextH2Underline.MatchString(next):
				headings = append(headings, markdownHeading{
					level:     2,
					text:      strings.TrimSpace(line),
					startLine: i + 1,
					endLine:   i + 2,
				})
				i++
			}
		}
	}
	return headings
}

// PlainTextChunk is the line-bounded fallback used by the markdown
// handler (when no headings exist) and by the indexer when no language
// handler applies. Element kind is root_plain_text when the whole file
// fits in MaxChunkLines, else root_plain_text_split_N.
func PlainTextChunk(content, filePath string) ([]Chunk, error) {
	const maxChunkLines = 500

	lines := strings.Split(content, "\n")
	if len(lines) <= maxChunkLines {
		return []Chunk{{
			ID:        generateChunkID(filePath, "root_plain_text", "", 1),
			Content:   content,
			FilePath:  filePath,
			Language:  detectLanguage(filePath),
			Type:      ChunkTypeUnknown,
			StartLine: 1,
			EndLine:   len(lines),
			Metadata:  map[string]string{"element_kind": "root_plain_text"},
			Hash:      generateContentHash(content),
			IndexedAt: time.Now(),
		}}, nil
	}

	var chunks []Chunk
	split := 1
	for start := 0; start < len(lines); start += maxChunkLines {
		end := start + maxChunkLines
		if end > len(lines) {
			end = len(lines)
		}
		piece := strings.Join(lines[start:end], "\n")
		kind := fmt.Sprintf("root_plain_text_split_%d", split)
		chunks = append(chunks, Chunk{
			ID:        generateChunkID(filePath, kind, "", start+1),
			Content:   piece,
			FilePath:  filePath,
			Language:  detectLanguage(filePath),
			Type:      ChunkTypeUnknown,
			StartLine: start + 1,
			EndLine:   end,
			Metadata:  map[string]string{"element_kind": kind},
			Hash:      generateContentHash(piece),
			IndexedAt: time.Now(),
		})
		split++
	}
	return chunks, nil
}
