// Copyright (C) 2026 The Nexus Miner Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package falcon wraps the Falcon-512 post-quantum signature primitive as
// an opaque keygen/sign/verify oracle (C2). The primitive itself is
// treated as a black box; this package only adds the error taxonomy and
// key-wipe discipline the session layer depends on.
package falcon

import (
	"crypto/rand"
	"errors"

	algofalcon "github.com/algorand/falcon"

	"nexusminer/internal/codec"
)

const (
	PublicKeySize  = 897
	PrivateKeySize = 1281
	// MaxSignatureSize is the wire cap: the submission/auth framing uses a
	// u16 signature-length field.
	MaxSignatureSize = 65535
)

// ErrCryptoFailure is the taxonomy-level CryptoError (§7): any oracle
// operation failing surfaces as this and the caller treats it as an
// authentication failure triggering reconnect.
var ErrCryptoFailure = errors.New("falcon: crypto operation failed")

// ErrSignatureTooLarge guards the u16 wire length field at encode time.
var ErrSignatureTooLarge = errors.New("falcon: signature exceeds u16 wire length")

// KeyPair owns a Falcon-512 public/private key pair. The private key is
// zeroed on Destroy and never copied across goroutine boundaries by this
// package.
type KeyPair struct {
	Public  [PublicKeySize]byte
	private algofalcon.PrivateKey
}

// Keygen generates a fresh key pair using a cryptographic RNG.
func Keygen() (*KeyPair, error) {
	pub, priv, err := algofalcon.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}
	kp := &KeyPair{private: priv}
	copy(kp.Public[:], pub[:])
	return kp, nil
}

// KeyPairFromHex loads an existing key pair from hex-encoded bytes, as
// read from configuration (§6, falcon_miner_pubkey_hex /
// falcon_miner_privkey_hex).
func KeyPairFromHex(pubHex, privHex string) (*KeyPair, error) {
	pubBytes, err := codec.HexToBytes(pubHex)
	if err != nil || len(pubBytes) != PublicKeySize {
		return nil, errors.Join(ErrCryptoFailure, errors.New("falcon: malformed public key hex"))
	}
	privBytes, err := codec.HexToBytes(privHex)
	if err != nil || len(privBytes) != PrivateKeySize {
		return nil, errors.Join(ErrCryptoFailure, errors.New("falcon: malformed private key hex"))
	}

	kp := &KeyPair{}
	copy(kp.Public[:], pubBytes)
	copy(kp.private[:], privBytes)
	return kp, nil
}

// Sign produces a non-deterministic Falcon-512 signature over msg.
// Successive calls with the same msg are expected to yield distinct
// signatures — callers must not treat signature equality as a freshness
// check.
func (kp *KeyPair) Sign(msg []byte) ([]byte, error) {
	sig, err := kp.private.SignCompressed(msg)
	if err != nil {
		return nil, errors.Join(ErrCryptoFailure, err)
	}
	if len(sig) > MaxSignatureSize {
		return nil, ErrSignatureTooLarge
	}
	return sig, nil
}

// Verify checks a signature against the given public key.
func Verify(pub [PublicKeySize]byte, msg, sig []byte) (bool, error) {
	var pk algofalcon.PublicKey
	copy(pk[:], pub[:])

	var compressed algofalcon.CompressedSignature
	if len(sig) > len(compressed) {
		return false, nil
	}
	copy(compressed[:], sig)

	ok := pk.VerifyCompressed(msg, compressed)
	return ok, nil
}

// Destroy overwrites the private key material. It must be called exactly
// once the key pair is no longer needed; after Destroy the KeyPair must
// not be used for signing.
func (kp *KeyPair) Destroy() {
	for i := range kp.private {
		kp.private[i] = 0
	}
}
