package gemini

import (
	"fmt"
	"strings"

	"github.com/linkbox/analyzer/models"
)

// BuildPrompt composes the classification instruction for a single
// page. It embeds the URL and the (already truncated) content and spells
// out the exact JSON shape the model must return. The trailing "JSON
// only" directive is a hard contract: Client.Analyze parses the reply
// as bare JSON after fence stripping.
func BuildPrompt(targetURL, content string) string {
	folders := strings.Join(models.CanonicalFolders(), ", ")

	return fmt.Sprintf(`다음 웹페이지를 분석해서 JSON 형태로 결과를 제공해주세요:

URL: %s
내용: %s

다음 형식으로 JSON을 반환해주세요:
{
  "title": "페이지의 적절한 제목 (한국어, 최대 100자)",
  "description": "페이지 내용을 요약한 설명 (한국어, 최대 200자)",
  "summary": "페이지의 핵심 내용을 3-4줄로 요약 (한국어)",
  "tags": ["관련", "태그", "배열", "최대", "5개"],
  "folder": "적절한 폴더 분류 (%s 중 하나)"
}

JSON만 반환하고 다른 텍스트는 포함하지 마세요.`, targetURL, content, folders)
}
