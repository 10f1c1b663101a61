// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package identity loads a node's display name, operator ID, and derived
// long address from a JSON credential file on a mountable block device,
// falling back to a fixed spoof identity whenever that file can't be
// read -- there is no boot path on which identity loading can leave a
// node without an identity to run with.
package identity

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NameMax and OperatorIDMax bound the two string fields, per the wire
// record's size limits.
const (
	NameMax       = 64
	OperatorIDMax = 16
)

// Identity is a node's display name, operator ID, and 128-bit long
// address.
type Identity struct {
	Name       string
	OperatorID string
	LongAddr   [16]byte
}

// Spoof is the fixed identity used whenever no credential file can be
// read -- on storage-less boot, or when the mount is absent or the file
// is missing or malformed.
var Spoof = Identity{
	Name:       "spoof",
	OperatorID: "N0CALL",
	LongAddr:   [16]byte{0xDE, 0xAD, 0xBE, 0xEF},
}

// credentialDoc is the on-disk JSON shape: a display name, an operator
// ID (historically "tac_id"), and an ASCII-hex-encoded 96-byte SECP384R1
// public key.
type credentialDoc struct {
	Name   string `json:"name"`
	TacID  string `json:"tac_id"`
	PubKey string `json:"pub_key"` // 192 hex chars
}

// Load reads mountPath/fileName as a credentialDoc and derives an
// Identity from it. Any failure -- the device isn't mounted, the file is
// missing, the JSON is malformed, the public key isn't exactly 96 bytes
// of hex, or either string field exceeds its limit -- returns Spoof, not
// an error the caller must branch on; the error return exists only so a
// caller that wants to log the reason for falling back to Spoof can.
func Load(mountPath, fileName string) (*Identity, error) {
	raw, err := os.ReadFile(filepath.Join(mountPath, fileName))
	if err != nil {
		id := Spoof
		return &id, fmt.Errorf("identity: reading credential file: %w", err)
	}

	var doc credentialDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		id := Spoof
		return &id, fmt.Errorf("identity: parsing credential file: %w", err)
	}

	var pubKey [96]byte
	if len(doc.PubKey) != 2*len(pubKey) {
		id := Spoof
		return &id, fmt.Errorf("identity: pub_key must be %d hex-encoded bytes", len(pubKey))
	}
	if _, err := hex.Decode(pubKey[:], []byte(doc.PubKey)); err != nil {
		id := Spoof
		return &id, fmt.Errorf("identity: pub_key is not valid hex: %w", err)
	}
	if len(doc.Name) > NameMax || len(doc.TacID) > OperatorIDMax {
		id := Spoof
		return &id, fmt.Errorf("identity: name or tac_id exceeds its size limit")
	}

	return &Identity{
		Name:       doc.Name,
		OperatorID: doc.TacID,
		LongAddr:   DeriveLongAddr(pubKey),
	}, nil
}

// DeriveLongAddr computes SHA-512(SHA-512(pubKey)) and truncates the
// 64-byte digest to the leading 16 bytes.
func DeriveLongAddr(pubKey [96]byte) [16]byte {
	first := sha512.Sum512(pubKey[:])
	second := sha512.Sum512(first[:])
	var addr [16]byte
	copy(addr[:], second[:16])
	return addr
}
