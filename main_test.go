package main

import (
	"errors"
	"testing"

	"github.com/marcodamonte/concurrency/counter"
)

func TestParseKinds(t *testing.T) {
	all, err := parseKinds("")
	if err != nil || len(all) != len(counter.Kinds()) {
		t.Fatalf("parseKinds(\"\") = %v, %v; want every kind", all, err)
	}

	got, err := parseKinds("atomic, mutex")
	if err != nil {
		t.Fatalf("parseKinds: %v", err)
	}
	if len(got) != 2 || got[0] != counter.KindAtomic || got[1] != counter.KindMutex {
		t.Errorf("parseKinds = %v; want [atomic mutex]", got)
	}

	if _, err := parseKinds("atomic,bogus"); !errors.Is(err, counter.ErrUnknownKind) {
		t.Errorf("parseKinds(bogus) error = %v; want ErrUnknownKind", err)
	}
}
