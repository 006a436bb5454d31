package telegram

import (
	"strings"
	"unicode/utf8"
)

// MaxMessageLength is the Bot API per-message text limit.
const MaxMessageLength = 4096

// SplitMessage splits text into chunks of at most maxLength characters,
// preferring natural boundaries over mid-word cuts. Per chunk the search order
// is paragraph break, then newline, then space; a boundary is only taken when
// it falls in the trailing half of the window, otherwise the chunk is cut hard
// at maxLength.
func SplitMessage(text string, maxLength int) []string {
	if maxLength <= 0 {
		maxLength = MaxMessageLength
	}
	if len(text) <= maxLength {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for remaining != "" {
		if len(remaining) <= maxLength {
			chunks = append(chunks, remaining)
			break
		}

		window := remaining[:maxLength]

		cut := -1
		for _, boundary := range []string{"\n\n", "\n", " "} {
			if pos := strings.LastIndex(window, boundary); pos > maxLength/2 {
				cut = pos
				break
			}
		}

		if cut < 0 {
			// A hard cut must still land on a rune boundary, or multi-byte
			// text would yield chunks the Bot API rejects as invalid UTF-8.
			cut = maxLength
			for cut > 0 && !utf8.RuneStart(remaining[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLength
			}
			chunks = append(chunks, remaining[:cut])
			remaining = remaining[cut:]
			continue
		}

		chunks = append(chunks, strings.TrimRight(remaining[:cut], " \n"))
		remaining = strings.TrimLeft(remaining[cut:], " \n")
	}

	return chunks
}
