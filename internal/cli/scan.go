package cli

import (
	"bufio"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dwizi/addrwatch/internal/extract"
	"github.com/dwizi/addrwatch/internal/resolve"
)

// newScanCommand extracts identifiers from text without running the
// bot. Handy for checking what the pipeline would pick out of a
// message. Text comes from the arguments, or from stdin when none are
// given.
func newScanCommand() *cobra.Command {
	var (
		suffix   string
		checksum bool
	)

	cmd := &cobra.Command{
		Use:   "scan [text]",
		Short: "Extract addresses and names from text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				var lines []string
				scanner := bufio.NewScanner(cmd.InOrStdin())
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for scanner.Scan() {
					lines = append(lines, scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return err
				}
				text = strings.Join(lines, "\n")
			}

			extractor := extract.New(suffix)
			for _, address := range extractor.Addresses(text) {
				if checksum {
					formatted, err := resolve.ChecksumAddress(address)
					if err == nil {
						address = formatted
					}
				}
				cmd.Println(address)
			}
			for _, name := range extractor.Names(text) {
				cmd.Println(name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", "eth", "name suffix to match")
	cmd.Flags().BoolVar(&checksum, "checksum", true, "print addresses in checksum form")
	return cmd
}
