package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dwizi/addrwatch/internal/collect"
	"github.com/dwizi/addrwatch/internal/resolve"
)

func TestBuildEmptySnapshot(t *testing.T) {
	builder := NewBuilder(nil, DefaultBlockBytes)
	blocks := builder.Build(collect.Snapshot{Watching: true})
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	if blocks[0] != EmptyNotice {
		t.Fatalf("unexpected empty block: %q", blocks[0])
	}
}

func TestBuildHeaderCounts(t *testing.T) {
	builder := NewBuilder(nil, DefaultBlockBytes)
	snapshot := collect.Snapshot{
		Watching: true,
		Addresses: []string{
			"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
		},
		Names: []collect.NameEntry{
			{Name: "one.eth", Outcome: collect.OutcomeResolved, Address: "0xdbf03b407c01e7cd3cbea99509d93f8dddc8c6fb"},
			{Name: "gone.eth", Outcome: collect.OutcomeUnresolved},
			{Name: "slow.eth", Outcome: collect.OutcomePending},
		},
	}
	blocks := builder.Build(snapshot)
	if len(blocks) != 1 {
		t.Fatalf("expected one block, got %d", len(blocks))
	}
	lines := strings.Split(blocks[0], "\n")
	want := "Collected addresses: 3 unique (2 detected, 1 resolved from names)"
	if lines[0] != want {
		t.Fatalf("header = %q, want %q", lines[0], want)
	}
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 addresses, got %d lines", len(lines))
	}
}

func TestBuildMergesDuplicatesAcrossSources(t *testing.T) {
	builder := NewBuilder(nil, DefaultBlockBytes)
	snapshot := collect.Snapshot{
		Watching:  true,
		Addresses: []string{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		Names: []collect.NameEntry{
			{Name: "same.eth", Outcome: collect.OutcomeResolved, Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		},
	}
	blocks := builder.Build(snapshot)
	lines := strings.Split(blocks[0], "\n")
	if len(lines) != 2 {
		t.Fatalf("duplicate not merged, lines: %v", lines)
	}
	if !strings.HasPrefix(lines[0], "Collected addresses: 1 unique") {
		t.Fatalf("header = %q", lines[0])
	}
}

func TestBuildChecksumsAndSorts(t *testing.T) {
	builder := NewBuilder(resolve.ChecksumAddress, DefaultBlockBytes)
	snapshot := collect.Snapshot{
		Watching: true,
		Addresses: []string{
			"0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
			"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		},
	}
	blocks := builder.Build(snapshot)
	lines := strings.Split(blocks[0], "\n")
	if lines[1] != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Fatalf("first address = %q", lines[1])
	}
	if lines[2] != "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359" {
		t.Fatalf("second address = %q", lines[2])
	}
}

func TestBuildChecksumFailureFallsBack(t *testing.T) {
	calls := 0
	checksum := func(address string) (string, error) {
		calls++
		return "", errInvalid
	}
	builder := NewBuilder(checksum, DefaultBlockBytes)
	snapshot := collect.Snapshot{
		Watching:  true,
		Addresses: []string{"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
	}
	blocks := builder.Build(snapshot)
	lines := strings.Split(blocks[0], "\n")
	if lines[1] != "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed" {
		t.Fatalf("fallback address = %q", lines[1])
	}
	if calls != 1 {
		t.Fatalf("checksum called %d times", calls)
	}
}

func TestBuildChunksAtLineBoundaries(t *testing.T) {
	builder := NewBuilder(nil, minBlockBytes)
	snapshot := collect.Snapshot{Watching: true}
	for i := 0; i < 20; i++ {
		snapshot.Addresses = append(snapshot.Addresses,
			"0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea"+string(rune('a'+i%6))+string(rune('0'+i%10)))
	}
	blocks := builder.Build(snapshot)
	if len(blocks) < 2 {
		t.Fatalf("expected multiple blocks, got %d", len(blocks))
	}
	var rejoined []string
	for i, block := range blocks {
		if len(block) > minBlockBytes {
			t.Fatalf("block %d exceeds limit: %d bytes", i, len(block))
		}
		wantPrefix := "[part "
		if !strings.HasPrefix(block, wantPrefix) {
			t.Fatalf("block %d missing part prefix: %q", i, block[:20])
		}
		lines := strings.Split(block, "\n")
		rejoined = append(rejoined, lines[1:]...)
	}
	// Header plus every unique address survives, none duplicated.
	seen := make(map[string]bool)
	for _, line := range rejoined {
		if seen[line] {
			t.Fatalf("line duplicated across blocks: %q", line)
		}
		seen[line] = true
	}
	if got := len(rejoined); got != len(snapshot.Addresses)+1 {
		t.Fatalf("rejoined %d lines, want %d", got, len(snapshot.Addresses)+1)
	}
}

func TestChunkPrefixFitsWideCounts(t *testing.T) {
	lines := []string{"Collected addresses: 6500 unique (6500 detected, 0 resolved from names)"}
	for i := 0; i < 6500; i++ {
		lines = append(lines, fmt.Sprintf("0x5aaeb6053f3e94c9b9a09f33669435e7ef1b%04x", i))
	}
	blocks := chunkLines(lines, minBlockBytes)
	if len(blocks) < 1000 {
		t.Fatalf("expected a four-digit part count, got %d blocks", len(blocks))
	}
	wantSuffix := fmt.Sprintf("/%d]", len(blocks))
	for i, block := range blocks {
		if len(block) > minBlockBytes {
			t.Fatalf("block %d exceeds limit: %d bytes", i, len(block))
		}
		header, _, ok := strings.Cut(block, "\n")
		if !ok || !strings.HasSuffix(header, wantSuffix) {
			t.Fatalf("block %d prefix = %q, want suffix %q", i, header, wantSuffix)
		}
	}
}

var errInvalid = errTest("not a hex address")

type errTest string

func (e errTest) Error() string { return string(e) }
