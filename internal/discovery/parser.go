package discovery

import (
	"debug/elf"
	"fmt"
	"sort"
	"strings"

	"ktest/harness"
)

// testPrefix marks a function as a test
const testPrefix = "Test"

// Parser reads test images to extract the tests compiled into them
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// FindTestCases returns the qualified names of the test functions in an
// image, read from its ELF symbol table. A test function is a function
// symbol whose name starts with "Test" followed by an upper-case letter,
// digit, underscore or nothing, the same rule go test applies.
func (p *Parser) FindTestCases(imagePath string) ([]string, error) {
	f, err := elf.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("error reading image %s: %w", imagePath, err)
	}
	defer f.Close()

	symbols, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("error reading symbols of %s: %w", imagePath, err)
	}

	testCasesMap := make(map[string]bool) // Use map to avoid duplicates
	for _, sym := range symbols {
		if elf.ST_TYPE(sym.Info) != elf.STT_FUNC {
			continue
		}
		if isTestSymbol(sym.Name) {
			testCasesMap[sym.Name] = true
		}
	}

	// Convert map to sorted slice for consistent output
	testCases := make([]string, 0, len(testCasesMap))
	for testCase := range testCasesMap {
		testCases = append(testCases, testCase)
	}
	sort.Strings(testCases)

	return testCases, nil
}

// isTestSymbol reports whether a function symbol names a test. Methods,
// closures and runtime wrappers are excluded.
func isTestSymbol(symbol string) bool {
	module, name := harness.SplitQualifiedName(symbol)
	if module == "" || strings.ContainsAny(module, "()*") {
		return false
	}
	if strings.HasSuffix(symbol, "-fm") || !strings.HasPrefix(name, testPrefix) {
		return false
	}
	rest := name[len(testPrefix):]
	if rest == "" {
		return true
	}
	c := rest[0]
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// GroupByModule groups qualified test names by their module path
func GroupByModule(testCases []string) map[string][]string {
	groups := make(map[string][]string)
	for _, tc := range testCases {
		module, name := harness.SplitQualifiedName(tc)
		groups[module] = append(groups[module], name)
	}
	return groups
}
