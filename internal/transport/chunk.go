package transport

import "strings"

// MaxChunkChars is the per-message character budget. Replies longer than
// this are split into several messages.
const MaxChunkChars = 3500

// SplitMessage splits text into chunks of at most max characters, breaking
// on line boundaries. A single line longer than max is hard-split. Empty
// text yields one empty chunk so every reply sends something.
func SplitMessage(text string, max int) []string {
	if max <= 0 {
		max = MaxChunkChars
	}
	if len(text) <= max {
		return []string{text}
	}

	var chunks []string
	var buf []string
	size := 0
	flush := func() {
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf = nil
			size = 0
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for len(line) > max {
			flush()
			chunks = append(chunks, line[:max])
			line = line[max:]
		}
		if size+len(line)+1 > max {
			flush()
		}
		buf = append(buf, line)
		size += len(line) + 1
	}
	flush()
	return chunks
}
