package signer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/binary"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/sha3"
)

var (
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrSignatureExpired  = errors.New("signature expired")
	ErrInvalidPublicKey  = errors.New("invalid signer public key")
	ErrInvalidPrivateKey = errors.New("invalid signer private key")
)

// SignatureSize is the raw r||s signature length for P-256.
const SignatureSize = 64

// Authority verifies that a voucher was produced by the single configured
// authorized signer. Verification is pure; nonce bookkeeping belongs to the
// caller so that verification stays idempotent.
type Authority struct {
	pub      *ecdsa.PublicKey
	signerID string
}

// NewAuthority parses a PEM-encoded ECDSA P-256 public key.
func NewAuthority(publicKeyPEM string) (*Authority, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, ErrInvalidPublicKey
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer public key: %w", err)
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok || pub.Curve != elliptic.P256() {
		return nil, ErrInvalidPublicKey
	}
	return &Authority{pub: pub, signerID: identityOf(pub)}, nil
}

// SignerID returns the stable identity handle of the authorized signer.
func (a *Authority) SignerID() string {
	return a.signerID
}

// Verify checks the voucher signature and deadline. It returns the signer
// identity on success. The nonce is NOT checked here.
func (a *Authority) Verify(v Voucher, signature []byte, now time.Time) (string, error) {
	if now.Unix() > v.Deadline {
		return "", ErrSignatureExpired
	}
	if len(signature) != SignatureSize {
		return "", ErrInvalidSignature
	}

	digest := DigestVoucher(v)
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])
	if !ecdsa.Verify(a.pub, digest[:], r, s) {
		return "", ErrInvalidSignature
	}
	return a.signerID, nil
}

// Issuer holds the signing key. It exists for local tooling and tests; the
// production service only ever configures the Authority side.
type Issuer struct {
	priv *ecdsa.PrivateKey
}

// NewIssuer generates a fresh P-256 signing key.
func NewIssuer() (*Issuer, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer key: %w", err)
	}
	return &Issuer{priv: priv}, nil
}

// NewIssuerFromPEM parses a PEM-encoded EC private key.
func NewIssuerFromPEM(privateKeyPEM string) (*Issuer, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, ErrInvalidPrivateKey
	}
	priv, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signer private key: %w", err)
	}
	return &Issuer{priv: priv}, nil
}

// Sign produces the 64-byte r||s signature over the voucher digest.
func (i *Issuer) Sign(v Voucher) ([]byte, error) {
	digest := DigestVoucher(v)
	r, s, err := ecdsa.Sign(rand.Reader, i.priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign voucher: %w", err)
	}
	sig := make([]byte, SignatureSize)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:])
	return sig, nil
}

// PrivateKeyPEM exports the signing key for offline storage.
func (i *Issuer) PrivateKeyPEM() (string, error) {
	der, err := x509.MarshalECPrivateKey(i.priv)
	if err != nil {
		return "", fmt.Errorf("failed to marshal private key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})), nil
}

// PublicKeyPEM exports the verification key for Authority configuration.
func (i *Issuer) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&i.priv.PublicKey)
	if err != nil {
		return "", fmt.Errorf("failed to marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// DigestVoucher hashes the canonical voucher encoding with SHA3-256.
func DigestVoucher(v Voucher) [32]byte {
	return sha3.Sum256(encodeVoucher(v))
}

// encodeVoucher produces the exact byte encoding that is signed:
// uint32-length-prefixed strings and big-endian fixed-width integers, fields
// in declaration order. The wide prefix keeps the encoding injective even
// for oversized fields. Any change here invalidates every outstanding
// voucher.
func encodeVoucher(v Voucher) []byte {
	buf := make([]byte, 0, 64)
	buf = appendString(buf, v.ContextID)
	buf = appendString(buf, v.Recipient)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(v.Seats)))
	for _, seat := range v.Seats {
		buf = appendString(buf, seat.Section)
		buf = appendString(buf, seat.SeatNumber)
		buf = appendString(buf, seat.TierID)
	}
	buf = binary.BigEndian.AppendUint64(buf, v.Nonce)
	buf = binary.BigEndian.AppendUint64(buf, uint64(v.Deadline))
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// identityOf derives a stable identity handle from the public key.
func identityOf(pub *ecdsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha3.Sum256(der)
	return hex.EncodeToString(sum[:20])
}
