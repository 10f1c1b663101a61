// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package identity

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func writeCredential(t *testing.T, dir, name, tacID, pubKeyHex string) string {
	t.Helper()
	doc := `{"name":"` + name + `","tac_id":"` + tacID + `","pub_key":"` + pubKeyHex + `"}`
	path := filepath.Join(dir, "identity.json")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDerivesLongAddr(t *testing.T) {
	dir := t.TempDir()
	var pubKey [96]byte
	for i := range pubKey {
		pubKey[i] = byte(i)
	}
	writeCredential(t, dir, "node1", "KI7ABC", hex.EncodeToString(pubKey[:]))

	id, err := Load(dir, "identity.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if id.Name != "node1" || id.OperatorID != "KI7ABC" {
		t.Errorf("Name/OperatorID = %q/%q, want node1/KI7ABC", id.Name, id.OperatorID)
	}
	want := DeriveLongAddr(pubKey)
	if id.LongAddr != want {
		t.Errorf("LongAddr = %x, want %x", id.LongAddr, want)
	}
}

func TestLoadFallsBackToSpoofOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	id, err := Load(dir, "nope.json")
	if err == nil {
		t.Error("expected an error for a missing file")
	}
	if *id != Spoof {
		t.Errorf("id = %+v, want Spoof", id)
	}
}

func TestLoadFallsBackToSpoofOnMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "identity.json")
	os.WriteFile(path, []byte("{not json"), 0o600)
	id, err := Load(dir, "identity.json")
	if err == nil {
		t.Error("expected an error for malformed JSON")
	}
	if *id != Spoof {
		t.Errorf("id = %+v, want Spoof", id)
	}
}

func TestLoadFallsBackToSpoofOnBadPubKey(t *testing.T) {
	dir := t.TempDir()
	writeCredential(t, dir, "node1", "KI7ABC", "not-hex-and-wrong-length")
	id, err := Load(dir, "identity.json")
	if err == nil {
		t.Error("expected an error for a malformed pub_key")
	}
	if *id != Spoof {
		t.Errorf("id = %+v, want Spoof", id)
	}
}

func TestDeriveLongAddrIsDeterministicAndKeyDependent(t *testing.T) {
	var pubKey [96]byte
	a := DeriveLongAddr(pubKey)
	b := DeriveLongAddr(pubKey)
	if a != b {
		t.Error("DeriveLongAddr is not deterministic")
	}
	pubKey[0] = 1
	c := DeriveLongAddr(pubKey)
	if a == c {
		t.Error("DeriveLongAddr did not change with a different key")
	}
}
