package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestScanCommandExtractsFromArgs(t *testing.T) {
	cmd := newScanCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"pay 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed or vitalik.eth"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	output := out.String()
	if !strings.Contains(output, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed") {
		t.Fatalf("expected checksummed address, got %q", output)
	}
	if !strings.Contains(output, "vitalik.eth") {
		t.Fatalf("expected name, got %q", output)
	}
}

func TestScanCommandReadsStdin(t *testing.T) {
	cmd := newScanCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetIn(strings.NewReader("deposit to 0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359\n"))
	cmd.SetArgs([]string{"--checksum=false"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(out.String(), "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359") {
		t.Fatalf("expected lowercase address, got %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := newVersionCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(nil)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Fatalf("expected version output, got %q", out.String())
	}
}
