package wire

import (
	"testing"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	sec "github.com/named-data/ndnd/std/security"
)

func TestMakeDataProducesNonEmptyWire(t *testing.T) {
	t.Parallel()

	name, err := enc.NameFromStr("/ndnvc/alice/cam0/7/0")
	if err != nil {
		t.Fatalf("NameFromStr() error = %v", err)
	}

	pkt, err := MakeData(name, enc.Wire{[]byte("payload")}, MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   100 * time.Millisecond,
		Signer:      sec.NewSha256Signer(),
	})
	if err != nil {
		t.Fatalf("MakeData() error = %v", err)
	}
	if len(pkt.Wire) == 0 {
		t.Fatal("MakeData() produced an empty wire encoding")
	}
	if pkt.Name.String() != name.String() {
		t.Fatalf("Name = %q, want %q", pkt.Name.String(), name.String())
	}
}
