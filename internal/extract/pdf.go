package extract

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfText reads each page's content stream and collects the strings shown
// by text operators. Pages are separated by blank lines.
func (e *FileExtractor) pdfText(ctx context.Context, data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return "", fmt.Errorf("count pdf pages: %w", err)
	}

	return e.readPages(ctx, pdfCtx.PageCount, func(page int) (string, error) {
		r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return "", err
		}
		if r == nil {
			return "", nil
		}
		content, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		return contentStreamText(content), nil
	})
}

// readPages reads pages 1..count in order. Pages share one pdfcpu context,
// so reading stops at the first page abandoned after a timeout and the
// pages read so far are returned.
func (e *FileExtractor) readPages(ctx context.Context, count int, read func(page int) (string, error)) (string, error) {
	var pages []string
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, status := e.runUnit(ctx, fmt.Sprintf("page %d", i), func() (string, error) {
			return read(i)
		})
		if status == unitAbandoned {
			e.cfg.Logger.Warn("stopping pdf extraction after page timeout", "page", i, "pages_read", len(pages))
			break
		}
		if status == unitDone && strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// contentStreamText interprets the text-showing operators of a PDF content
// stream: Tj, TJ, ' and ". Line moves (Td, TD, T*, ET) start a new line and
// large negative TJ kerning becomes a space.
func contentStreamText(content []byte) string {
	var (
		out      strings.Builder
		line     strings.Builder
		operands []any
	)
	endLine := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out.WriteString(s)
			out.WriteByte('\n')
		}
		line.Reset()
	}
	lastString := func() (string, bool) {
		for i := len(operands) - 1; i >= 0; i-- {
			if s, ok := operands[i].(string); ok {
				return s, true
			}
		}
		return "", false
	}

	lx := &lexer{src: content}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		op, isOp := tok.(operator)
		if !isOp {
			operands = append(operands, tok)
			continue
		}
		switch op {
		case "Tj":
			if s, ok := lastString(); ok {
				line.WriteString(s)
			}
		case "'", "\"":
			endLine()
			if s, ok := lastString(); ok {
				line.WriteString(s)
			}
		case "TJ":
			if len(operands) > 0 {
				if arr, ok := operands[len(operands)-1].([]any); ok {
					for _, el := range arr {
						switch v := el.(type) {
						case string:
							line.WriteString(v)
						case float64:
							if v < -200 {
								line.WriteByte(' ')
							}
						}
					}
				}
			}
		case "Td", "TD", "T*", "ET":
			endLine()
		}
		operands = operands[:0]
	}
	endLine()
	return strings.TrimSpace(out.String())
}

type operator string

type lexer struct {
	src []byte
	pos int
}

func isDelim(c byte) bool {
	return strings.IndexByte("()<>[]{}/%", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == '\f' || c == 0
}

// next returns a string, float64, []any, operator or name (as nil-valued
// placeholder) token. ok is false at end of input.
func (l *lexer) next() (any, bool) {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isSpace(c):
			l.pos++
		case c == '%':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		case c == '(':
			return l.literal(), true
		case c == '<' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '<':
			l.pos += 2
			return operator("<<"), true
		case c == '>' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
			l.pos += 2
			return operator(">>"), true
		case c == '<':
			return l.hexString(), true
		case c == '[':
			l.pos++
			var arr []any
			for {
				tok, ok := l.next()
				if !ok {
					return arr, true
				}
				if op, isOp := tok.(operator); isOp && op == "]" {
					return arr, true
				}
				arr = append(arr, tok)
			}
		case c == ']':
			l.pos++
			return operator("]"), true
		case c == '/':
			l.pos++
			l.word()
			return nil, true
		default:
			w := l.word()
			if w == "" {
				l.pos++
				continue
			}
			if f, err := strconv.ParseFloat(w, 64); err == nil {
				return f, true
			}
			return operator(w), true
		}
	}
	return nil, false
}

func (l *lexer) word() string {
	start := l.pos
	for l.pos < len(l.src) && !isSpace(l.src[l.pos]) && !isDelim(l.src[l.pos]) {
		l.pos++
	}
	return string(l.src[start:l.pos])
}

func (l *lexer) literal() string {
	var b strings.Builder
	depth := 0
	l.pos++
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		switch c {
		case '\\':
			if l.pos >= len(l.src) {
				return b.String()
			}
			esc := l.src[l.pos]
			l.pos++
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b', 'f':
			case '\r', '\n':
			default:
				if esc >= '0' && esc <= '7' {
					oct := []byte{esc}
					for len(oct) < 3 && l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '7' {
						oct = append(oct, l.src[l.pos])
						l.pos++
					}
					n, _ := strconv.ParseUint(string(oct), 8, 8)
					b.WriteByte(byte(n))
				} else {
					b.WriteByte(esc)
				}
			}
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			if depth == 0 {
				return b.String()
			}
			depth--
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func (l *lexer) hexString() string {
	l.pos++
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '>' {
		l.pos++
	}
	digits := strings.Map(func(r rune) rune {
		if isSpace(byte(r)) {
			return -1
		}
		return r
	}, string(l.src[start:l.pos]))
	l.pos++
	if len(digits)%2 == 1 {
		digits += "0"
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return ""
	}
	return string(b)
}
