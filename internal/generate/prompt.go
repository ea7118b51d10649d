package generate

import (
	"fmt"
	"strings"
)

// maxExcluded bounds how many existing words are listed in a prompt.
const maxExcluded = 100

// kinds names what a built-in category asks for. Other categories are
// treated as a topic.
var kinds = map[string]string{
	"사자성어": "사자성어",
	"속담":   "속담",
	"단어":   "우리말 단어",
	"영어":   "영어 단어",
}

const replyFormat = `응답은 아래 형식의 JSON 배열 하나로만 해주세요.
[
  {"word": "...", "meaning": "..."}
]`

// Prompt builds the request text for a category display name.
func Prompt(category string, excluding []string) string {
	if len(excluding) > maxExcluded {
		excluding = excluding[:maxExcluded]
	}
	existing := "없음"
	if len(excluding) > 0 {
		existing = strings.Join(excluding, ", ")
	}

	var b strings.Builder
	if kind, ok := kinds[category]; ok {
		fmt.Fprintf(&b, "요즘 한국에서 자주 쓰이는 %s %d개를 추천해주세요.\n", kind, MaxPairs)
		b.WriteString("사전에 실린 표현만 골라주세요.\n")
		if category == "영어" {
			b.WriteString("뜻은 한국어로 적어주세요.\n")
		} else {
			b.WriteString("각 항목에 짧고 분명한 뜻을 붙여주세요.\n")
		}
	} else {
		fmt.Fprintf(&b, "%q 주제에 특화된 용어 %d개를 추천해주세요.\n", category, MaxPairs)
		b.WriteString("그 분야에서 실제로 쓰이고 공식적으로 인정된 용어나 개념만 골라주세요.\n")
		b.WriteString("각 항목에 짧고 분명한 뜻을 붙여주세요.\n")
	}
	fmt.Fprintf(&b, "\n다음 목록에 있는 것은 제외해주세요:\n%s\n\n", existing)
	b.WriteString(replyFormat)
	return b.String()
}
