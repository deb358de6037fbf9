package importer

import (
	"fmt"
	"strings"

	"golang.org/x/net/idna"

	"label-store/internal/label"
)

const idnPrefix = "xn--"

// parseLabel turns a raw cell into a label. With decodeIDN, an A-label such
// as "xn--bcher-kva" is first converted to its Unicode form ("bücher"), which
// is then validated like any other input.
func parseLabel(raw string, decodeIDN bool) (label.Label, error) {
	if decodeIDN && strings.HasPrefix(strings.ToLower(raw), idnPrefix) {
		unicodeLabel, err := idna.Registration.ToUnicode(strings.ToLower(raw))
		if err != nil {
			return label.Label{}, fmt.Errorf("invalid IDN %q: %w", raw, err)
		}
		raw = unicodeLabel
	}
	return label.New(raw)
}

// isHeaderRow checks if the first column value looks like a header. The
// batcher still imports it when no valid label follows.
func isHeaderRow(firstCol string) bool {
	firstColLower := strings.ToLower(strings.TrimSpace(firstCol))

	// Common header patterns
	headerKeywords := []string{
		"label", "labels",
		"name", "names",
		"id", "identifier",
		"string", "strings",
	}

	for _, keyword := range headerKeywords {
		if firstColLower == keyword {
			return true
		}
	}

	return false
}
