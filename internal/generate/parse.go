package generate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/away0419/eunoia/internal/word"
)

// MaxPairs is the most suggestions accepted from one reply.
const MaxPairs = 5

var markdown = goldmark.New()

// ExtractJSON finds the JSON array in a model reply. A fenced code block
// tagged json (or untagged) containing an array wins; otherwise the span
// from the first '[' to the last ']' of the whole reply is used.
func ExtractJSON(reply string) (string, bool) {
	src := []byte(reply)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var found string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		lang := strings.ToLower(string(block.Language(src)))
		if lang != "" && lang != "json" {
			return ast.WalkSkipChildren, nil
		}
		var buf bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		if arr, ok := bracketSpan(buf.String()); ok {
			found = arr
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	if found != "" {
		return found, true
	}
	return bracketSpan(reply)
}

func bracketSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// ParsePairs decodes up to MaxPairs suggestions from a model reply, dropping
// blank entries, repeats, and any word listed in excluding.
func ParsePairs(reply string, excluding []string) ([]word.Pair, error) {
	raw, ok := ExtractJSON(reply)
	if !ok {
		return nil, fmt.Errorf("no JSON array in reply")
	}
	var pairs []word.Pair
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	skip := make(map[string]bool, len(excluding))
	for _, w := range excluding {
		skip[w] = true
	}
	out := make([]word.Pair, 0, MaxPairs)
	for _, p := range pairs {
		p.Text, p.Meaning = strings.TrimSpace(p.Text), strings.TrimSpace(p.Meaning)
		if p.Text == "" || p.Meaning == "" || skip[p.Text] {
			continue
		}
		skip[p.Text] = true
		out = append(out, p)
		if len(out) == MaxPairs {
			break
		}
	}
	return out, nil
}
