// Package keycodec encodes sorted uint32 key sequences as delta-encoded LZ4 blocks.
package keycodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/redblack/pkg/safeconv"
)

// Sentinel errors.
var (
	ErrBadMagic = errors.New("not a key sequence stream")
	ErrCorrupt  = errors.New("corrupt key sequence stream")

	// ErrTooManyKeys is returned by Encode for sequences Decode would refuse.
	ErrTooManyKeys = errors.New("too many keys for one stream")
)

const (
	// uint32ByteSize is the number of bytes in a uint32.
	uint32ByteSize = 4

	// maxKeys bounds the count read from a stream before anything is allocated.
	maxKeys = 1 << 28

	// maxRatio is the best expansion an LZ4 block can achieve.
	maxRatio = 255

	flagRaw byte = 0
	flagLZ4 byte = 1
)

var magic = [4]byte{'R', 'B', 'K', '1'}

// Encode writes keys to w. Keys are expected in ascending order, which makes the
// deltas small, but any order round-trips.
func Encode(w io.Writer, keys []uint32) error {
	err := checkCount(len(keys))
	if err != nil {
		return err
	}

	deltas := make([]uint32, len(keys))
	copy(deltas, keys)
	DeltaEncodeUInt32Slice(deltas)

	raw := new(bytes.Buffer)

	err = binary.Write(raw, binary.LittleEndian, deltas)
	if err != nil {
		return fmt.Errorf("pack keys: %w", err)
	}

	flag, payload := flagRaw, raw.Bytes()
	if len(keys) == 0 {
		return writeFrame(w, flag, 0, payload)
	}

	compressed := make([]byte, lz4.CompressBlockBound(raw.Len()))

	written, err := lz4.CompressBlock(raw.Bytes(), compressed, nil)
	if err != nil {
		return fmt.Errorf("compress keys: %w", err)
	}

	// Zero means the block did not compress.
	if written > 0 {
		flag, payload = flagLZ4, compressed[:written]
	}

	return writeFrame(w, flag, len(keys), payload)
}

func checkCount(n int) error {
	if n > maxKeys {
		return fmt.Errorf("%w: %d keys, at most %d", ErrTooManyKeys, n, maxKeys)
	}

	return nil
}

func writeFrame(w io.Writer, flag byte, count int, payload []byte) error {
	header := make([]byte, 0, len(magic)+1+2*binary.MaxVarintLen64)
	header = append(header, magic[:]...)
	header = append(header, flag)
	header = binary.AppendUvarint(header, uint64(count))
	header = binary.AppendUvarint(header, uint64(len(payload)))

	_, err := w.Write(header)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	_, err = w.Write(payload)
	if err != nil {
		return fmt.Errorf("write payload: %w", err)
	}

	return nil
}

// Decode reads a key sequence written by Encode.
func Decode(r io.Reader) ([]uint32, error) {
	reader := bufio.NewReader(r)

	var head [5]byte

	_, err := io.ReadFull(reader, head[:])
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrBadMagic, err)
	}

	if !bytes.Equal(head[:4], magic[:]) {
		return nil, ErrBadMagic
	}

	flag := head[4]
	if flag != flagRaw && flag != flagLZ4 {
		return nil, fmt.Errorf("%w: unknown flag %d", ErrCorrupt, flag)
	}

	count, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read count: %w", ErrCorrupt, err)
	}

	if count > maxKeys {
		return nil, fmt.Errorf("%w: %d keys", ErrCorrupt, count)
	}

	payloadLen, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read payload length: %w", ErrCorrupt, err)
	}

	rawLen := safeconv.MustUint64ToInt(count) * uint32ByteSize
	if payloadLen > uint64(lz4.CompressBlockBound(rawLen)) || (flag == flagRaw && payloadLen != uint64(rawLen)) {
		return nil, fmt.Errorf("%w: payload of %d bytes for %d keys", ErrCorrupt, payloadLen, count)
	}

	// The header is untrusted: buffers grow with the bytes actually present.
	payload, err := io.ReadAll(io.LimitReader(reader, safeconv.SaturateUint64ToInt64(payloadLen)))
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %w", ErrCorrupt, err)
	}

	if uint64(len(payload)) != payloadLen {
		return nil, fmt.Errorf("%w: read payload: %d of %d bytes", ErrCorrupt, len(payload), payloadLen)
	}

	raw := payload

	if flag == flagLZ4 {
		if rawLen > len(payload)*maxRatio {
			return nil, fmt.Errorf("%w: %d compressed bytes cannot hold %d keys", ErrCorrupt, len(payload), count)
		}

		raw = make([]byte, rawLen)

		read, uncompressErr := lz4.UncompressBlock(payload, raw)
		if uncompressErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, uncompressErr)
		}

		raw = raw[:read]
	}

	if len(raw) != rawLen {
		return nil, fmt.Errorf("%w: %d bytes for %d keys", ErrCorrupt, len(raw), count)
	}

	keys := make([]uint32, count)

	err = binary.Read(bytes.NewReader(raw), binary.LittleEndian, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: unpack keys: %w", ErrCorrupt, err)
	}

	DeltaDecodeUInt32Slice(keys)

	return keys, nil
}

// DeltaEncodeUInt32Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged.
func DeltaEncodeUInt32Slice(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUInt32Slice restores values produced by DeltaEncodeUInt32Slice, in place.
func DeltaDecodeUInt32Slice(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
