package answer

import (
	"context"
	"strings"
	"text/template"

	"webrag/internal/domain"
	"webrag/internal/llm"
)

var promptTemplate = template.Must(template.New("answer").Parse(`Answer the following question based on the provided context.
Use both retrieved documents and web search results.
Answer in Bullet points with all the relevant details.
Always tell source of your answer between [Search , RAG].
If the information isn't in the context, say you couldn't find it.

Context:
{{.Context}}

Question: {{.Question}}

Answer:
`))

// Synthesizer asks the LLM to answer from retrieved passages and a web snippet.
type Synthesizer struct {
	client llm.Client
}

func NewSynthesizer(client llm.Client) *Synthesizer {
	return &Synthesizer{client: client}
}

// BuildContext labels the retrieved passages and the web snippet. Both labels
// are always present, even when a section is empty.
func BuildContext(chunks []domain.SearchResult, snippet string) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Chunk.Text
	}
	return "RAG DATA:\n" + strings.Join(texts, "\n") + "\n\nWEB SEARCH:\n" + snippet
}

// BuildPrompt fills the answer template.
func BuildPrompt(combined, question string) (string, error) {
	var sb strings.Builder
	err := promptTemplate.Execute(&sb, struct{ Context, Question string }{combined, question})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Synthesize returns the model's reply verbatim together with the context it
// was given.
func (s *Synthesizer) Synthesize(ctx context.Context, chunks []domain.SearchResult, snippet, question string) (answer, combined string, err error) {
	combined = BuildContext(chunks, snippet)
	prompt, err := BuildPrompt(combined, question)
	if err != nil {
		return "", combined, domain.E(domain.KindGeneration, "build prompt", err)
	}
	answer, err = s.client.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		if domain.KindOf(err) == 0 {
			err = domain.E(domain.KindGeneration, "generate answer", err)
		}
		return "", combined, err
	}
	return answer, combined, nil
}
