// Package delegation encodes and decodes delegation sets: signed lists of
// (preference, name) pairs used as typed pointers by the GoP chain and
// the _latest reactive branch. Names are encoded as their URI string
// form, matching how other_examples/zjkmxy-ndnd__rdr.go treats
// enc.Name as printable/parseable via String()/NameFromStr.
package delegation

import (
	"encoding/binary"
	"fmt"

	enc "github.com/named-data/ndnd/std/encoding"
)

// Entry is one (preference, name) pointer in a delegation set.
type Entry struct {
	Preference uint64
	Name       enc.Name
}

// Encode serializes entries in order: count, then for each entry an
// 8-byte preference followed by a length-prefixed URI string.
func Encode(entries []Entry) []byte {
	buf := make([]byte, 0, 4)
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], uint32(len(entries)))
	buf = append(buf, tmp4[:]...)

	for _, e := range entries {
		var tmp8 [8]byte
		binary.BigEndian.PutUint64(tmp8[:], e.Preference)
		buf = append(buf, tmp8[:]...)

		uri := e.Name.String()
		binary.BigEndian.PutUint32(tmp4[:], uint32(len(uri)))
		buf = append(buf, tmp4[:]...)
		buf = append(buf, uri...)
	}
	return buf
}

// Decode parses a delegation set produced by Encode.
func Decode(data []byte) ([]Entry, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("delegation: content too short for count")
	}
	count := binary.BigEndian.Uint32(data[:4])
	data = data[4:]

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 8+4 {
			return nil, fmt.Errorf("delegation: entry %d truncated", i)
		}
		pref := binary.BigEndian.Uint64(data[:8])
		data = data[8:]

		uriLen := binary.BigEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < uriLen {
			return nil, fmt.Errorf("delegation: entry %d name truncated", i)
		}
		uri := string(data[:uriLen])
		data = data[uriLen:]

		name, err := enc.NameFromStr(uri)
		if err != nil {
			return nil, fmt.Errorf("delegation: entry %d parse name %q: %w", i, uri, err)
		}
		entries = append(entries, Entry{Preference: pref, Name: name})
	}
	return entries, nil
}
