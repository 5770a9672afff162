// Package capture reads packet timestamps out of pcap and pcapng files,
// optionally gzip-compressed, in file order.
package capture

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"

	"github.com/voicetel/pcapgap/internal/gap"
)

// Block Type of the pcapng Section Header Block.
var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

var gzipMagic = []byte{0x1F, 0x8B}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

// Reader is a sequential timestamp source over a capture file. It is not
// safe for concurrent use; the pipeline reads it from a single goroutine.
type Reader struct {
	file *os.File
	gz   *gzip.Reader
	pr   packetReader
	next int
}

// Open opens a capture file and picks the right decoder from the file's
// leading bytes: gzip is unwrapped first, then pcapng vs classic pcap is
// chosen by the section header magic.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}

	r := &Reader{file: f}

	br := bufio.NewReaderSize(f, 1<<16)
	head, err := br.Peek(2)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read capture header: %w", err)
	}

	stream := br
	if head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		r.gz = gz
		stream = bufio.NewReaderSize(gz, 1<<16)
	}

	pr, err := newPacketReader(stream)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.pr = pr

	return r, nil
}

func newPacketReader(br *bufio.Reader) (packetReader, error) {
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("read capture magic: %w", err)
	}

	if magic[0] == pcapngMagic[0] && magic[1] == pcapngMagic[1] &&
		magic[2] == pcapngMagic[2] && magic[3] == pcapngMagic[3] {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("open pcapng reader: %w", err)
		}
		return ng, nil
	}

	pr, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("open pcap reader: %w", err)
	}
	return pr, nil
}

// Next yields the next packet's record, io.EOF at end of stream.
func (r *Reader) Next() (gap.Record, error) {
	_, ci, err := r.pr.ReadPacketData()
	if err == io.EOF {
		return gap.Record{}, io.EOF
	}
	if err != nil {
		return gap.Record{}, fmt.Errorf("read packet %d: %w", r.next, err)
	}

	rec := gap.Record{Index: r.next, Timestamp: ci.Timestamp}
	r.next++
	return rec, nil
}

func (r *Reader) Close() error {
	if r.gz != nil {
		r.gz.Close()
	}
	return r.file.Close()
}
