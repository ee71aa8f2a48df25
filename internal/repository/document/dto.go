package document

import (
	"encoding/binary"
	"math"
	"strings"

	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
)

// Hash field names. Metadata entries are stored as metaPrefix+key.
const (
	fieldText   = "__text"
	fieldVector = "__vector"
	metaPrefix  = "meta:"
)

// buildHashFields converts a Record into a flat map[string]string for HSET.
func buildHashFields(rec *domdoc.Record) map[string]string {
	m := make(map[string]string, 2+len(rec.Metadata()))
	m[fieldText] = rec.Text()
	m[fieldVector] = vectorToBytes(rec.Embedding())
	for k, v := range rec.Metadata() {
		m[metaPrefix+k] = v
	}
	return m
}

// parseHashFields converts a flat hash map back into a Record.
func parseHashFields(id string, m map[string]string) domdoc.Record {
	var text string
	var vector []float32
	meta := make(map[string]string)

	for k, v := range m {
		switch {
		case k == fieldText:
			text = v
		case k == fieldVector:
			vector = bytesToVector(v)
		case strings.HasPrefix(k, metaPrefix):
			meta[strings.TrimPrefix(k, metaPrefix)] = v
		}
	}

	return domdoc.Reconstruct(id, text, vector, meta)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
