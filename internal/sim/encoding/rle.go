package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeRow encodes one row of occupancy into base64(varint pairs).
// The pairs are (occupied 0|1, run_len) repeated.
func EncodeRow(cells []bool) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(cells) {
		v := cells[i]
		run := 1
		for j := i + 1; j < len(cells) && cells[j] == v; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], boolU64(v))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// DecodeRow reverses EncodeRow. maxLen bounds the decoded row so a corrupt
// run length cannot allocate without limit.
func DecodeRow(b64 string, maxLen int) ([]bool, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []bool
	for i := 0; i < len(raw); {
		v, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if v > 1 {
			return nil, fmt.Errorf("cell value out of range: %d", v)
		}
		if run == 0 || uint64(len(out))+run > uint64(maxLen) {
			return nil, fmt.Errorf("run of %d exceeds row length %d", run, maxLen)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, v == 1)
		}
	}
	return out, nil
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
