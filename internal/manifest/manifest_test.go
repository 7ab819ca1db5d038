package manifest

import (
	"bytes"
	"testing"
)

func TestBuildLengthAndOrder(t *testing.T) {
	t.Parallel()

	data := [][]byte{[]byte("seg0"), []byte("seg1")}
	parity := [][]byte{[]byte("par0")}

	content := Build(data, parity)
	if len(content) != DigestSize*3 {
		t.Fatalf("len(content) = %d, want %d", len(content), DigestSize*3)
	}

	entries, err := Entries(content)
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}

	want0 := Digest(data[0])
	if !bytes.Equal(entries[0][:], want0[:]) {
		t.Fatal("first entry does not match data[0]'s digest")
	}
	want2 := Digest(parity[0])
	if !bytes.Equal(entries[2][:], want2[:]) {
		t.Fatal("third entry does not match parity[0]'s digest")
	}
}

func TestEntriesRejectsMisalignedLength(t *testing.T) {
	t.Parallel()

	if _, err := Entries(make([]byte, DigestSize+1)); err == nil {
		t.Fatal("expected error for misaligned manifest content")
	}
}
