package loader

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var nonAlphanumeric = regexp.MustCompile("[^a-zA-Z0-9]+")

// NormalizeHeaders cleans every header name and resolves duplicates.
func NormalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, header := range raw {
		headers[i] = cleanHeaderName(header, i)
	}
	return ValidateHeaders(headers)
}

// cleanHeaderName очищает и форматирует имя заголовка
func cleanHeaderName(header string, index int) string {
	header = strings.TrimPrefix(header, "\ufeff")
	header = strings.TrimSpace(header)
	if header == "" {
		return generateColumnName(index)
	}

	cleaned := replaceSpecialSymbols(unidecode.Unidecode(header))
	if cleaned == "" {
		return generateColumnName(index)
	}
	return strings.ToLower(cleaned)
}

// replaceSpecialSymbols collapses every run of non-alphanumerics into one underscore.
func replaceSpecialSymbols(input string) string {
	processed := nonAlphanumeric.ReplaceAllString(input, "_")
	return strings.Trim(processed, "_")
}

// generateColumnName создает имя столбца по индексу
func generateColumnName(index int) string {
	return fmt.Sprintf("column_%d", index+1)
}

// ValidateHeaders проверяет и исправляет дубликаты в заголовках
func ValidateHeaders(headers []string) []string {
	seen := make(map[string]int)
	result := make([]string, len(headers))

	for i, header := range headers {
		originalHeader := header
		counter := 1

		for {
			if count, exists := seen[header]; exists {
				header = fmt.Sprintf("%s_%d", originalHeader, counter)
				counter++
			} else {
				seen[header] = count + 1
				break
			}
		}

		result[i] = header
	}

	return result
}

// sniffDelimiter picks the most frequent of ',', ';' and '\t' in the header line,
// ignoring quoted sections. Comma wins ties.
func sniffDelimiter(line string) rune {
	counts := map[rune]int{}
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case inQuotes:
		case r == ',' || r == ';' || r == '\t':
			counts[r]++
		}
	}
	best := ','
	for _, candidate := range []rune{';', '\t'} {
		if counts[candidate] > counts[best] {
			best = candidate
		}
	}
	return best
}
