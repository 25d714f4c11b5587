package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"firestige.xyz/stratum/pkg/packet"
)

// fielder is the per-field introspection the renderers need; every
// record-backed header satisfies it.
type fielder interface {
	FieldNames() []string
	Human(name string) string
}

func renderPacket(out io.Writer, format string, n int, p *packet.Packet) error {
	switch format {
	case "yaml":
		return renderYAML(out, n, p)
	case "", "text":
		return renderText(out, n, p)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderText(out io.Writer, n int, p *packet.Packet) error {
	if _, err := fmt.Fprintf(out, "packet %d (%d bytes)\n", n, p.Size()); err != nil {
		return err
	}
	for _, h := range p.Headers() {
		fmt.Fprintf(out, "  %s\n", h.ProtocolName())
		if f, ok := h.(fielder); ok {
			for _, name := range f.FieldNames() {
				fmt.Fprintf(out, "    %-12s %s\n", name, f.Human(name))
			}
		}
		if body := h.Body(); len(body) > 0 {
			fmt.Fprintf(out, "    body         %d bytes\n", len(body))
		}
	}
	return nil
}

func renderYAML(out io.Writer, n int, p *packet.Packet) error {
	type layerDoc struct {
		Protocol string            `yaml:"protocol"`
		Fields   map[string]string `yaml:"fields,omitempty"`
		Body     string            `yaml:"body,omitempty"`
	}
	type packetDoc struct {
		Packet int        `yaml:"packet"`
		Bytes  int        `yaml:"bytes"`
		Layers []layerDoc `yaml:"layers"`
	}

	doc := packetDoc{Packet: n, Bytes: p.Size()}
	for _, h := range p.Headers() {
		layer := layerDoc{Protocol: h.ProtocolName()}
		if f, ok := h.(fielder); ok {
			layer.Fields = make(map[string]string, len(f.FieldNames()))
			for _, name := range f.FieldNames() {
				layer.Fields[name] = f.Human(name)
			}
		}
		if body := h.Body(); len(body) > 0 {
			layer.Body = hex.EncodeToString(body)
		}
		doc.Layers = append(doc.Layers, layer)
	}

	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(doc)
}
