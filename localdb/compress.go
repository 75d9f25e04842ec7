package localdb

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
)

// Stored values are gzipped at maximum compression and base64 wrapped so they
// stay printable inside the bucket's JSON entries. Base64 gives a third of the
// gain back, but base64-encoded recording payloads still shrink considerably
// on balance.
func compressValue(value string) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to compress library value: %v", err)
	}
	if _, err := io.WriteString(zw, value); err != nil {
		return "", fmt.Errorf("failed to compress library value: %v", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to compress library value: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decompressValue(value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("failed to decompress library value: %v", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to decompress library value: %v", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("failed to decompress library value: %v", err)
	}
	return string(out), nil
}
