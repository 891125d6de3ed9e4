package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/fatfs/internal/conv"
	"github.com/hupe1980/fatfs/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	// ErrBadMagic is returned when a blob is not a snapshot frame.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrTruncated is returned when a frame is shorter than its header claims.
	ErrTruncated = errors.New("snapshot: truncated frame")
	// ErrChecksum is returned when the restored image does not match its CRC32-C.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	// ErrUnknownCompression is returned for an unrecognized compression byte or name.
	ErrUnknownCompression = errors.New("snapshot: unknown compression")
	// ErrDestinationTooSmall is returned when the restore buffer cannot hold the image.
	ErrDestinationTooSmall = errors.New("snapshot: destination too small")
)

// Magic identifies a snapshot frame.
var Magic = [8]byte{'F', 'A', 'T', 'S', 'N', 'A', 'P', '1'}

// HeaderSize is the size of the frame header in bytes.
const HeaderSize = 24

const (
	offCompression = 8
	offRawLen      = 12
	offChecksum    = 20
)

// Compression selects the payload codec.
type Compression uint8

const (
	// CompressionNone stores the image verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD (better ratio).
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "lz4" or "zstd" (case-insensitive).
// The empty string means none.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// Header is the decoded frame header.
type Header struct {
	Compression Compression
	RawLen      int
	Checksum    uint32
}

// ZSTD encoder/decoder pools
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Encode frames image. If the requested compression does not shrink the
// image below 90% of its size, the payload is stored uncompressed and the
// header says so.
func Encode(image []byte, c Compression) ([]byte, error) {
	var payload []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(image)))
		n, err := lz4.CompressBlock(image, buf, nil)
		if err != nil {
			return nil, err
		}
		payload = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		payload = enc.EncodeAll(image, nil)
		putZstdEncoder(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}

	if len(payload) == 0 || float64(len(payload)) > float64(len(image))*0.9 {
		c, payload = CompressionNone, image
	}

	frame := make([]byte, HeaderSize+len(payload))
	copy(frame, Magic[:])
	frame[offCompression] = byte(c)
	binary.LittleEndian.PutUint64(frame[offRawLen:], uint64(len(image)))
	binary.LittleEndian.PutUint32(frame[offChecksum:], uint32(hash.Of(image)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// ReadHeader decodes and validates the frame header.
func ReadHeader(frame []byte) (Header, error) {
	if len(frame) < HeaderSize {
		return Header{}, ErrTruncated
	}
	if [8]byte(frame[:len(Magic)]) != Magic {
		return Header{}, ErrBadMagic
	}

	c := Compression(frame[offCompression])
	if c > CompressionZSTD {
		return Header{}, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
	rawLen, err := conv.Int(binary.LittleEndian.Uint64(frame[offRawLen:]))
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrTruncated, err)
	}

	return Header{
		Compression: c,
		RawLen:      rawLen,
		Checksum:    binary.LittleEndian.Uint32(frame[offChecksum:]),
	}, nil
}

// Decode unpacks frame into the front of dst and returns the image length.
// The contents of dst are unspecified when Decode fails.
func Decode(frame, dst []byte) (int, error) {
	h, err := ReadHeader(frame)
	if err != nil {
		return 0, err
	}
	if h.RawLen > len(dst) {
		return 0, fmt.Errorf("%w: image is %d bytes, buffer is %d", ErrDestinationTooSmall, h.RawLen, len(dst))
	}

	payload := frame[HeaderSize:]
	out := dst[:h.RawLen]

	switch h.Compression {
	case CompressionNone:
		if len(payload) != h.RawLen {
			return 0, ErrTruncated
		}
		copy(out, payload)

	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return 0, fmt.Errorf("snapshot: lz4: %w", err)
		}
		if n != h.RawLen {
			return 0, ErrTruncated
		}

	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, out[:0])
		putZstdDecoder(dec)
		if err != nil {
			return 0, fmt.Errorf("snapshot: zstd: %w", err)
		}
		if len(decoded) != h.RawLen {
			return 0, ErrTruncated
		}
	}

	if !hash.Checksum(h.Checksum).Matches(out) {
		return 0, ErrChecksum
	}
	return h.RawLen, nil
}
