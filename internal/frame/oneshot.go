package frame

// Compress encodes data as one complete frame, declaring the content size
// in the header so decoders can report the exact decoded length. Empty
// input returns ErrNoData: a frame carries data, emptiness is a signal.
func Compress(data []byte, cfg Config) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}
	cfg.ContentSize = uint64(len(data))

	ctx := NewCompressionContext()
	out, err := ctx.Begin(cfg)
	if err != nil {
		return nil, err
	}
	body, err := ctx.Update(data)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	tail, err := ctx.End()
	if err != nil {
		return nil, err
	}
	return append(out, tail...), nil
}

// Decompress decodes one complete frame. A frame whose end marker or
// trailing checksum is missing returns ErrFrameIncomplete; empty input
// returns ErrNoData. Input past the end of the frame is ignored.
func Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrNoData
	}

	ctx := NewDecompressionContext()
	chunks, hint, err := ctx.Update(data, 4<<20)
	if err != nil {
		return nil, err
	}
	if hint > 0 {
		return nil, ErrFrameIncomplete
	}

	var n int
	for _, c := range chunks {
		n += len(c)
	}
	out := make([]byte, 0, n)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, nil
}
