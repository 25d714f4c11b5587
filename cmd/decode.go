package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/spf13/cobra"

	"firestige.xyz/stratum/internal/log"
	"firestige.xyz/stratum/pkg/headers"
	"firestige.xyz/stratum/pkg/packet"
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode packet bytes or a capture file",
	Long: `Decode a single packet given as a hex string, or every packet of a
pcap file. Unknown or malformed layers degrade to a raw placeholder
instead of aborting the run.

Examples:
  stratum decode --hex 4500001400004000401100007f0000017f000001 --first ipv4
  stratum decode --file capture.pcap
  stratum decode --file capture.pcap --format yaml --max 100`,
	Run: func(cmd *cobra.Command, args []string) {
		runDecodeCommand()
	},
}

var (
	decodeHex    string
	decodeFile   string
	decodeFirst  string
	decodeFormat string
	decodeMax    int
)

func init() {
	decodeCmd.Flags().StringVar(&decodeHex, "hex", "", "packet bytes as a hex string")
	decodeCmd.Flags().StringVarP(&decodeFile, "file", "f", "", "pcap file to decode")
	decodeCmd.Flags().StringVar(&decodeFirst, "first", "", "first header protocol name (empty = guess)")
	decodeCmd.Flags().StringVar(&decodeFormat, "format", "", "output format: text or yaml")
	decodeCmd.Flags().IntVar(&decodeMax, "max", 0, "stop after this many packets (0 = all)")
	decodeCmd.MarkFlagsMutuallyExclusive("hex", "file")
}

func runDecodeCommand() {
	reg := packet.NewRegistry()
	headers.RegisterAll(reg)

	first := decodeFirst
	if first == "" {
		first = cfg.Decode.FirstHeader
	}
	format := decodeFormat
	if format == "" {
		format = cfg.Output.Format
	}
	max := decodeMax
	if max == 0 {
		max = cfg.Decode.MaxPackets
	}

	out := os.Stdout
	if cfg.Output.File != "" {
		f, err := os.Create(cfg.Output.File)
		if err != nil {
			exitWithError("failed to open output file", err)
		}
		defer f.Close()
		out = f
	}

	switch {
	case decodeHex != "":
		data, err := parseHex(decodeHex)
		if err != nil {
			exitWithError("invalid hex input", err)
		}
		p, err := reg.Parse(data, first)
		if err != nil {
			exitWithError("decode failed", err)
		}
		if err := renderPacket(out, format, 1, p); err != nil {
			exitWithError("failed to render packet", err)
		}
	case decodeFile != "":
		if err := decodeCapture(out, reg, decodeFile, first, format, max); err != nil {
			exitWithError("failed to decode capture", err)
		}
	default:
		exitWithError("either --hex or --file is required", nil)
	}
}

// parseHex decodes a hex string, tolerating whitespace and colon
// separators so tcpdump-style dumps paste in directly.
func parseHex(s string) ([]byte, error) {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', ':':
			return -1
		}
		return r
	}, s)
	return hex.DecodeString(clean)
}

// firstHeaderForLink maps a pcap link type onto the protocol opening
// the stack; empty means let the engine guess.
func firstHeaderForLink(lt layers.LinkType) string {
	switch lt {
	case layers.LinkTypeEthernet:
		return "eth"
	case layers.LinkTypeRaw, layers.LinkTypeIPv4:
		return "ipv4"
	default:
		return ""
	}
}

// captureReader is the part of the pcapgo readers the decode loop uses;
// both the classic pcap and the pcapng reader satisfy it.
type captureReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

func openCapture(f *os.File) (captureReader, error) {
	if r, err := pcapgo.NewReader(f); err == nil {
		return r, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
}

func decodeCapture(out io.Writer, reg *packet.Registry, path, first, format string, max int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := openCapture(f)
	if err != nil {
		return fmt.Errorf("failed to read capture %s: %w", path, err)
	}
	if first == "" {
		first = firstHeaderForLink(r.LinkType())
	}

	logger := log.GetLogger()
	n := 0
	for max <= 0 || n < max {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		n++
		p, err := reg.Parse(data, first)
		if err != nil {
			// An unparsable packet must not end the run.
			logger.WithError(err).Warnf("packet %d not decoded", n)
			continue
		}
		if err := renderPacket(out, format, n, p); err != nil {
			return err
		}
	}
	return nil
}
