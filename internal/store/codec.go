package store

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// blobMagic prefixes every sealed blob so foreign files are rejected early.
var blobMagic = []byte("FZM1")

// Argon2id parameters for deriving the vault key from the passphrase.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	saltSize     = 16
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// deriveKey stretches a passphrase into a 32-byte XChaCha20-Poly1305 key.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}

func newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.NewX(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead, nil
}

// seal compresses payload and encrypts it. The associated data binds the
// ciphertext to its location so blobs cannot be swapped between fields.
// Layout: magic | nonce | ciphertext.
func seal(aead cipher.AEAD, payload, ad []byte) ([]byte, error) {
	enc := getZstdEncoder()
	compressed := enc.EncodeAll(payload, nil)
	putZstdEncoder(enc)

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(blobMagic)+len(nonce)+len(compressed)+aead.Overhead())
	out = append(out, blobMagic...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, compressed, ad), nil
}

// open reverses seal. Any tampering, wrong key or wrong location fails.
func open(aead cipher.AEAD, blob, ad []byte) ([]byte, error) {
	if !bytes.HasPrefix(blob, blobMagic) {
		return nil, errBadMagic
	}
	blob = blob[len(blobMagic):]
	if len(blob) < aead.NonceSize()+aead.Overhead() {
		return nil, errTruncated
	}

	nonce, ciphertext := blob[:aead.NonceSize()], blob[aead.NonceSize():]
	compressed, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, errAuthFailed
	}

	dec := getZstdDecoder()
	defer putZstdDecoder(dec)
	payload, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return payload, nil
}
