// Package loader reads an object file into a byte image ready to run.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultEntryPoint is the address execution starts at when a .yo file
// carries no other convention for it: programs conventionally begin their
// code at address 0.
const DefaultEntryPoint = 0

// Program is a loaded object file: the bytes to install into memory, the
// lowest address any byte was loaded at, and the entry point to start
// Fetch from.
type Program struct {
	Image      []byte
	BaseAddr   uint64
	EntryPoint uint64
}

// Load reads a .yo ASCII object file from path. Each line has the form
//
//	0xADDR: HH HH HH ... | optional disassembly/comment
//
// where HH are hex byte pairs (written with or without spaces between
// them); lines with no hex payload (blank lines, pure comments, ".pos"/
// ".align" directive echoes) are skipped. This is a minimal reader scoped
// to round-tripping this project's own assembled test programs, not a
// general YAS-compatible object format.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening object file: %w", err)
	}
	defer f.Close()

	return parse(f)
}

func parse(r io.Reader) (*Program, error) {
	var image []byte
	var baseSet bool
	var base uint64

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		addr, bytesField, ok := splitRecord(line)
		if !ok {
			continue
		}

		data, err := decodeHex(bytesField)
		if err != nil {
			return nil, fmt.Errorf("object file line %d: %w", lineNo, err)
		}
		if len(data) == 0 {
			continue
		}

		if !baseSet {
			base = addr
			baseSet = true
		} else if addr < base {
			grown := make([]byte, uint64(len(image))+(base-addr))
			copy(grown[base-addr:], image)
			image = grown
			base = addr
		}

		end := addr - base + uint64(len(data))
		if end > uint64(len(image)) {
			grown := make([]byte, end)
			copy(grown, image)
			image = grown
		}
		copy(image[addr-base:], data)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading object file: %w", err)
	}

	return &Program{Image: image, BaseAddr: base, EntryPoint: DefaultEntryPoint}, nil
}

// splitRecord pulls the address and hex-byte field out of one .yo line. It
// reports ok=false for lines carrying no address record at all (blank
// lines or comment-only lines).
func splitRecord(line string) (addr uint64, bytesField string, ok bool) {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return 0, "", false
	}

	addrField := strings.TrimSpace(line[:colon])
	addrField = strings.TrimPrefix(addrField, "0x")
	addrField = strings.TrimPrefix(addrField, "0X")
	if addrField == "" {
		return 0, "", false
	}

	parsed, err := strconv.ParseUint(addrField, 16, 64)
	if err != nil {
		return 0, "", false
	}

	rest := line[colon+1:]
	if bar := strings.IndexByte(rest, '|'); bar >= 0 {
		rest = rest[:bar]
	}

	return parsed, strings.TrimSpace(rest), true
}

// decodeHex turns a whitespace-separated or concatenated run of hex byte
// pairs into bytes.
func decodeHex(field string) ([]byte, error) {
	compact := strings.ReplaceAll(field, " ", "")
	if compact == "" {
		return nil, nil
	}
	if len(compact)%2 != 0 {
		return nil, fmt.Errorf("odd-length byte field %q", field)
	}

	data := make([]byte, len(compact)/2)
	for i := range data {
		v, err := strconv.ParseUint(compact[2*i:2*i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte %q: %w", compact[2*i:2*i+2], err)
		}
		data[i] = byte(v)
	}
	return data, nil
}
