package mend

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// Stats summarizes one transform pass.
type Stats struct {
	BytesIn  int64
	BytesOut int64
	// Rows is the number of records in the output: record boundaries seen
	// in the input, plus the final unterminated record if any bytes were
	// read at all.
	Rows int64
}

// Transform streams broken CSV from r to w, rewriting delimiters chunk by
// chunk. size is the total input length and decides whether the stream is
// seeded with an opening quote; a zero-size input produces no output. The
// transcoded output of each chunk is held back for one iteration so the last
// buffer is still in hand for closing normalization before anything final
// reaches the sink.
func Transform(r io.Reader, w io.Writer, size int64, chunkSize int, opts Options) (Stats, error) {
	var st Stats
	if chunkSize <= 0 {
		return st, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}

	bw := bufio.NewWriterSize(w, 64*1024)
	buf := make([]byte, chunkSize)
	out := make([]byte, 0, chunkSize*3)

	if size > 0 {
		out = append(out, '"')
	}

	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			// Flush the previous chunk's output before transcoding,
			// so the final buffer stays mutable for closeTrailing.
			if _, err := bw.Write(out); err != nil {
				return st, err
			}
			st.BytesOut += int64(len(out))
			out = out[:0]

			out = transcodeChunk(buf[:n], out, opts.Sep, opts.EOL)
			st.BytesIn += int64(n)
			st.Rows += int64(bytes.Count(buf[:n], []byte{opts.EOL}))
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return st, rerr
		}
		if n == 0 {
			break
		}
	}

	out = closeTrailing(out)
	if _, err := bw.Write(out); err != nil {
		return st, err
	}
	st.BytesOut += int64(len(out))
	if st.BytesIn > 0 {
		st.Rows++
	}

	// Flush unconditionally so the sink is fully materialized even when
	// the final buffer was empty.
	if err := bw.Flush(); err != nil {
		return st, err
	}
	return st, nil
}

// closeTrailing resolves the dangling open quote left by the per-chunk
// convention of always reopening a quote after a delimiter. Buffers of length
// zero or one are left alone. Idempotent: applying it to its own output
// changes nothing.
func closeTrailing(out []byte) []byte {
	if len(out) <= 1 {
		return out
	}
	switch out[len(out)-1] {
	case '"':
		// Stream ended exactly on a record boundary; no field was
		// opened after the last newline, so there is nothing to close.
		if out[len(out)-2] == '\n' {
			out = out[:len(out)-1]
		}
	case '\n':
	default:
		out = append(out, '"')
	}
	return out
}
