package zbx

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Frame layout: "ZBXD", one flags byte, two length fields, payload.
const (
	FLAG_PROTOCOL   byte = 0x01
	FLAG_COMPRESSED byte = 0x02
	FLAG_LARGE      byte = 0x04

	HEADER_LEN = 5

	// MAX_PAYLOAD caps the declared payload length accepted from the wire.
	MAX_PAYLOAD = 1 << 30
)

var MAGIC = [4]byte{'Z', 'B', 'X', 'D'}

var (
	ErrBadMagic     = errors.New("invalid protocol magic")
	ErrBadFlags     = errors.New("unsupported protocol flags")
	ErrShortHeader  = errors.New("truncated frame header")
	ErrShortPayload = errors.New("payload shorter than declared length")
	ErrTooLarge     = errors.New("payload length exceeds limit")
	ErrEmptyRequest = errors.New("request carries no records")
)

// ProtocolError means bytes were exchanged but could not be turned into a
// well-formed frame or document.
type ProtocolError struct {
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("zabbix protocol: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// EncodeFrame wraps payload into a single frame. With compress set the payload
// is zlib compressed and both lengths are written as 32-bit values.
func EncodeFrame(payload []byte, compress bool) ([]byte, error) {
	if len(payload) > MAX_PAYLOAD {
		return nil, &ProtocolError{Op: "encode frame", Err: ErrTooLarge}
	}

	flags := FLAG_PROTOCOL
	body := payload
	if compress {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		if _, err := zw.Write(payload); err != nil {
			return nil, &ProtocolError{Op: "compress", Err: err}
		}
		if err := zw.Close(); err != nil {
			return nil, &ProtocolError{Op: "compress", Err: err}
		}
		flags |= FLAG_COMPRESSED
		body = z.Bytes()
	}

	frame := make([]byte, HEADER_LEN+8, HEADER_LEN+8+len(body))
	copy(frame, MAGIC[:])
	frame[4] = flags
	if compress {
		binary.LittleEndian.PutUint32(frame[5:9], uint32(len(body)))
		binary.LittleEndian.PutUint32(frame[9:13], uint32(len(payload)))
	} else {
		binary.LittleEndian.PutUint64(frame[5:13], uint64(len(payload)))
	}
	return append(frame, body...), nil
}

// ReadFrame reads exactly one frame from r and returns its decompressed payload.
// A stream closed before the first byte returns io.EOF as is: nothing was
// answered. A stream ending later yields a *ProtocolError. Any other read
// error is returned unchanged so callers can tell I/O trouble from garbage.
func ReadFrame(r io.Reader) ([]byte, error) {
	var head [HEADER_LEN]byte
	if n, err := io.ReadFull(r, head[:]); err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, shortRead(err, "read header", ErrShortHeader)
	}
	if !bytes.Equal(head[:4], MAGIC[:]) {
		return nil, &ProtocolError{Op: "read header", Err: ErrBadMagic}
	}
	flags := head[4]
	if flags&FLAG_PROTOCOL == 0 || flags&^(FLAG_PROTOCOL|FLAG_COMPRESSED|FLAG_LARGE) != 0 {
		return nil, &ProtocolError{Op: "read header", Err: fmt.Errorf("%w: 0x%02x", ErrBadFlags, flags)}
	}

	var dataLen, rawLen uint64
	if flags&FLAG_LARGE != 0 {
		var lens [16]byte
		if _, err := io.ReadFull(r, lens[:]); err != nil {
			return nil, shortRead(err, "read length", ErrShortHeader)
		}
		dataLen = binary.LittleEndian.Uint64(lens[:8])
		rawLen = binary.LittleEndian.Uint64(lens[8:])
	} else {
		var lens [8]byte
		if _, err := io.ReadFull(r, lens[:]); err != nil {
			return nil, shortRead(err, "read length", ErrShortHeader)
		}
		if flags&FLAG_COMPRESSED != 0 {
			dataLen = uint64(binary.LittleEndian.Uint32(lens[:4]))
			rawLen = uint64(binary.LittleEndian.Uint32(lens[4:]))
		} else {
			dataLen = binary.LittleEndian.Uint64(lens[:])
		}
	}
	if dataLen > MAX_PAYLOAD || rawLen > MAX_PAYLOAD {
		return nil, &ProtocolError{Op: "read length", Err: ErrTooLarge}
	}

	body := make([]byte, dataLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, shortRead(err, "read payload", ErrShortPayload)
	}
	if flags&FLAG_COMPRESSED == 0 {
		return body, nil
	}
	return inflate(body, rawLen)
}

func inflate(body []byte, rawLen uint64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, &ProtocolError{Op: "decompress", Err: err}
	}
	defer zr.Close()

	payload, err := io.ReadAll(io.LimitReader(zr, int64(rawLen)+1))
	if err != nil {
		return nil, &ProtocolError{Op: "decompress", Err: err}
	}
	if uint64(len(payload)) != rawLen {
		return nil, &ProtocolError{
			Op:  "decompress",
			Err: fmt.Errorf("expected %d bytes, got %d", rawLen, len(payload)),
		}
	}
	return payload, nil
}

func shortRead(err error, op string, kind error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &ProtocolError{Op: op, Err: kind}
	}
	return err
}

// marshal keeps <, > and & literal; log lines are full of them.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func EncodeRequest(req Request, compress bool) ([]byte, error) {
	if len(req.Data) == 0 {
		return nil, ErrEmptyRequest
	}
	payload, err := marshal(req)
	if err != nil {
		return nil, &ProtocolError{Op: "encode request", Err: err}
	}
	return EncodeFrame(payload, compress)
}

func DecodeRequest(r io.Reader) (req Request, err error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return
	}
	if err = json.Unmarshal(payload, &req); err != nil {
		err = &ProtocolError{Op: "decode request", Err: err}
	}
	return
}

func EncodeResponse(resp Response, compress bool) ([]byte, error) {
	payload, err := marshal(resp)
	if err != nil {
		return nil, &ProtocolError{Op: "encode response", Err: err}
	}
	return EncodeFrame(payload, compress)
}

func DecodeResponse(r io.Reader) (resp Response, err error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return
	}
	if err = json.Unmarshal(payload, &resp); err != nil {
		err = &ProtocolError{Op: "decode response", Err: err}
	}
	return
}
