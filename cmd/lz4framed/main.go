package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/framelabs/lz4framed/internal/frame"
	"github.com/framelabs/lz4framed/internal/stream"
)

const usage = `USAGE: lz4framed [options] (compress|decompress) (INFILE|-) [OUTFILE]

(De)compresses an LZ4 frame. Input is read from INFILE unless set to '-', in
which case stdin is used. If OUTFILE is not specified, output goes to stdout.

Options:
`

// Exit codes, one per failure class.
const (
	exitUsage      = 1
	exitInputOpen  = 2
	exitOutputOpen = 4
	exitCodec      = 8
)

var blockSizeIDs = map[string]frame.BlockSizeID{
	"default": frame.BlockSizeDefault,
	"64KB":    frame.BlockSizeMax64KB,
	"256KB":   frame.BlockSizeMax256KB,
	"1MB":     frame.BlockSizeMax1MB,
	"4MB":     frame.BlockSizeMax4MB,
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	blockSize := flag.String("block-size", "default", "Block size: default, 64KB, 256KB, 1MB or 4MB")
	level := flag.Int("level", 0, "Compression level (negative: accelerated, >=3: high compression)")
	linked := flag.Bool("linked", true, "Link compression blocks")
	checksum := flag.Bool("checksum", false, "Produce a frame content checksum")
	blockChecksum := flag.Bool("block-checksum", false, "Produce per-block checksums")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 || len(args) > 3 || (args[0] != "compress" && args[0] != "decompress") {
		flag.Usage()
		os.Exit(exitUsage)
	}

	id, ok := blockSizeIDs[*blockSize]
	if !ok {
		log.Errorf("Unknown block size %q", *blockSize)
		os.Exit(exitUsage)
	}

	in := os.Stdin
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			log.WithError(err).Error("Failed to open input file for reading")
			os.Exit(exitInputOpen)
		}
		defer f.Close()
		in = f
	}

	out := os.Stdout
	if len(args) == 3 {
		f, err := os.OpenFile(args[2], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.WithError(err).Error("Failed to open output file for appending")
			os.Exit(exitOutputOpen)
		}
		defer f.Close()
		out = f
	}

	cfg := frame.Config{
		BlockSizeID:     id,
		LinkedBlocks:    *linked,
		ContentChecksum: *checksum,
		BlockChecksum:   *blockChecksum,
		Level:           *level,
	}

	var err error
	if args[0] == "compress" {
		err = doCompress(in, out, cfg)
	} else {
		err = doDecompress(in, out)
	}
	if err != nil {
		log.WithError(err).Error("Codec failure")
		os.Exit(exitCodec)
	}
}

// doCompress streams in to out as one LZ4 frame, reading a block's worth
// at a time.
func doCompress(in io.Reader, out io.Writer, cfg frame.Config) error {
	readSize, err := frame.BlockSize(cfg.BlockSizeID)
	if err != nil {
		return err
	}

	c, err := stream.NewCompressor(out, cfg)
	if err != nil {
		return err
	}
	buf := make([]byte, readSize)
	for {
		n, rerr := in.Read(buf)
		if n > 0 {
			if _, err := c.Update(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
	}
	_, err = c.End()
	return err
}

// doDecompress streams one LZ4 frame from in to out.
func doDecompress(in io.Reader, out io.Writer) error {
	d := stream.NewDecompressor(in)
	for {
		chunk, err := d.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := out.Write(chunk); err != nil {
			return err
		}
	}
}
