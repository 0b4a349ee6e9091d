package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dwizi/addrwatch/internal/collect"
)

const (
	// DefaultBlockBytes stays under Telegram's 4096-character message
	// cap with room for markup.
	DefaultBlockBytes = 3500
	minBlockBytes     = 256
)

// EmptyNotice is the single block returned for a chat with nothing
// collected.
const EmptyNotice = "No addresses collected in this chat yet."

// Builder turns a chat snapshot into one or more self-contained text
// blocks, each no larger than BlockBytes, split only at line
// boundaries.
type Builder struct {
	checksum   func(string) (string, error)
	blockBytes int
}

// NewBuilder builds reports with the given optional checksum formatter.
// A nil checksum leaves addresses in their stored lowercase form.
func NewBuilder(checksum func(string) (string, error), blockBytes int) *Builder {
	if blockBytes < minBlockBytes {
		blockBytes = DefaultBlockBytes
	}
	return &Builder{checksum: checksum, blockBytes: blockBytes}
}

// Build produces the export: direct addresses and resolved-name
// addresses merged case-insensitively, checksummed where possible,
// sorted, with a count header, chunked to the block budget. Names that
// never resolved carry no address and are omitted.
func (b *Builder) Build(snapshot collect.Snapshot) []string {
	unique := make(map[string]struct{}, len(snapshot.Addresses))
	for _, address := range snapshot.Addresses {
		unique[strings.ToLower(address)] = struct{}{}
	}
	resolvedCount := 0
	for _, entry := range snapshot.Names {
		if entry.Outcome != collect.OutcomeResolved {
			continue
		}
		resolvedCount++
		unique[strings.ToLower(entry.Address)] = struct{}{}
	}

	if len(unique) == 0 {
		return []string{EmptyNotice}
	}

	addresses := make([]string, 0, len(unique))
	for address := range unique {
		addresses = append(addresses, b.formatAddress(address))
	}
	sort.Slice(addresses, func(i, j int) bool {
		return strings.ToLower(addresses[i]) < strings.ToLower(addresses[j])
	})

	lines := make([]string, 0, len(addresses)+1)
	lines = append(lines, fmt.Sprintf(
		"Collected addresses: %d unique (%d detected, %d resolved from names)",
		len(addresses), len(snapshot.Addresses), resolvedCount,
	))
	lines = append(lines, addresses...)

	return chunkLines(lines, b.blockBytes)
}

// formatAddress applies the checksum formatter, falling back to the
// stored form when the formatter rejects the input. A bad address never
// aborts the export.
func (b *Builder) formatAddress(address string) string {
	if b.checksum == nil {
		return address
	}
	formatted, err := b.checksum(address)
	if err != nil {
		return address
	}
	return formatted
}

// chunkLines joins lines into blocks of at most limit bytes, splitting
// only between lines. When more than one block results, each is
// prefixed with its part index and total count so every block parses on
// its own.
func chunkLines(lines []string, limit int) []string {
	full := strings.Join(lines, "\n")
	if len(full) <= limit {
		return []string{full}
	}

	// The prefix grows with the part count, which is only known after
	// splitting. Widen the reserve and re-split until the final count's
	// digits fit.
	reserve := len("[part 1/1]\n")
	for {
		blocks := splitAtLines(lines, limit-reserve)
		prefixLen := len(fmt.Sprintf("[part %d/%d]\n", len(blocks), len(blocks)))
		if prefixLen > reserve {
			reserve = prefixLen
			continue
		}
		for i := range blocks {
			blocks[i] = fmt.Sprintf("[part %d/%d]\n%s", i+1, len(blocks), blocks[i])
		}
		return blocks
	}
}

func splitAtLines(lines []string, budget int) []string {
	var blocks []string
	var current strings.Builder
	for _, line := range lines {
		extra := len(line)
		if current.Len() > 0 {
			extra++
		}
		if current.Len() > 0 && current.Len()+extra > budget {
			blocks = append(blocks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		blocks = append(blocks, current.String())
	}
	return blocks
}
