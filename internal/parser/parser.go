package parser

import "ktest/internal/domain"

// Parser parses image results and extracts failures
type Parser interface {
	ParseResult(result *domain.ImageResult)
	ParseFailure(result domain.ImageResult) []domain.TestFailure
}
