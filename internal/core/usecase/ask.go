package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
)

const agronomistInstruction = `You are an expert agronomist specialized in agriculture for Uzbekistan.
Your goal is to assist farmers with precise calculations for seeding, fertilization, and pest control.
Consider the local climate (continental, hot summers), common soil types (sierozem, loam), and popular local crop varieties (cotton, wheat).
When analyzing fertilizers or pesticides, provide safety schemes, mixing restrictions, and specific dosages.
Always output specific numbers.`

// AskUseCase answers a question grounded on the retrieval context block.
type AskUseCase struct {
	searcher  ports.KnowledgeSearcher
	generator ports.AnswerGenerator
}

func NewAskUseCase(searcher ports.KnowledgeSearcher, generator ports.AnswerGenerator) *AskUseCase {
	return &AskUseCase{searcher: searcher, generator: generator}
}

func (uc *AskUseCase) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ask", errors.New("question is required"))
	}

	contextBlock := uc.searcher.Search(ctx, question)
	text, err := uc.generator.GenerateFromPrompt(ctx, buildAdvicePrompt(question, contextBlock))
	if err != nil {
		if domain.IsKind(err, domain.ErrTemporary) {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		return nil, domain.WrapError(domain.ErrTemporary, "generate answer", err)
	}
	return &domain.Answer{Text: text, Context: contextBlock}, nil
}

func buildAdvicePrompt(question, contextBlock string) string {
	var b strings.Builder
	b.WriteString(agronomistInstruction)
	b.WriteString("\n\nKnowledge base context:\n")
	b.WriteString(contextBlock)
	if strings.HasPrefix(contextBlock, domain.NoDataPrefix) {
		b.WriteString("\n\nNo verified norms were found; say so and answer from general agronomic knowledge.")
	} else {
		b.WriteString("\n\nPrefer the norms above and cite their SOURCE labels.")
	}
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}
