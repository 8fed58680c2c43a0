// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/guru-tui/internal/ui/styles"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// PlainLanguageLabel is shown for fences without a language tag.
const PlainLanguageLabel = "text"

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// CODE BLOCK
// =============================================================================

// CodeBlock is one fenced code block from an assistant reply.
type CodeBlock struct {
	Language string
	Code     string

	// Index is the 1-based position among the blocks of the visible session.
	// Zero hides the copy hint.
	Index int

	// Style is the chroma style name.
	Style    string
	MaxWidth int
}

// NewCodeBlock creates a code block with the default style.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language: language,
		Code:     code,
		Style:    DefaultCodeStyle,
		MaxWidth: 80,
	}
}

// Label returns the language label shown above the block.
func (c CodeBlock) Label() string {
	if c.Language == "" {
		return PlainLanguageLabel
	}
	return strings.ToLower(c.Language)
}

// Render renders the block with a language badge, a copy hint and
// highlighted code.
func (c CodeBlock) Render() string {
	code := strings.TrimRight(c.Code, "\n")
	highlighted := highlightCode(code, c.Language, c.Style)

	badge := lipgloss.NewStyle().
		Foreground(styles.TextInverse).
		Background(styles.DartTeal).
		Padding(0, 1).
		Bold(true).
		Render(c.Label())

	header := badge
	if c.Index > 0 {
		hint := lipgloss.NewStyle().
			Foreground(styles.FlutterBlue).
			Background(styles.Overlay).
			Padding(0, 1).
			Render("copy #" + strconv.Itoa(c.Index))
		header = lipgloss.JoinHorizontal(lipgloss.Top, badge, " ", hint)
	}

	maxWidth := c.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}

	body := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(highlighted)

	return header + "\n" + body
}

// Copy writes the raw code to the system clipboard.
func (c CodeBlock) Copy() error {
	return writeClipboard(c.Code)
}

// =============================================================================
// FENCE PARSING
// =============================================================================

// Segment is a run of prose or a single code block from a reply.
type Segment struct {
	Prose string
	Code  *CodeBlock
}

// SplitFences splits markdown into prose and fenced code segments. An
// unclosed fence runs to the end of the text.
func SplitFences(text string) []Segment {
	var segments []Segment
	var prose, code []string
	var language string
	inCode := false

	flushProse := func() {
		if len(prose) == 0 {
			return
		}
		joined := strings.Join(prose, "\n")
		if strings.TrimSpace(joined) != "" {
			segments = append(segments, Segment{Prose: joined})
		}
		prose = nil
	}
	flushCode := func() {
		cb := NewCodeBlock(language, strings.Join(code, "\n"))
		segments = append(segments, Segment{Code: &cb})
		code = nil
		language = ""
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flushCode()
				inCode = false
			} else {
				flushProse()
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
				inCode = true
			}
			continue
		}
		if inCode {
			code = append(code, line)
		} else {
			prose = append(prose, line)
		}
	}

	if inCode {
		flushCode()
	}
	flushProse()
	return segments
}

// ExtractCodeBlocks returns the fenced code blocks of text, numbered from
// start.
func ExtractCodeBlocks(text string, start int) []CodeBlock {
	var blocks []CodeBlock
	for _, seg := range SplitFences(text) {
		if seg.Code == nil {
			continue
		}
		cb := *seg.Code
		cb.Index = start + len(blocks)
		blocks = append(blocks, cb)
	}
	return blocks
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// highlightCode applies chroma highlighting, returning code unchanged when
// tokenizing or formatting fails.
func highlightCode(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return buf.String()
}

// ValidCodeStyle reports whether name is a registered chroma style.
func ValidCodeStyle(name string) bool {
	for _, n := range chromaStyles.Names() {
		if n == name {
			return true
		}
	}
	return false
}
