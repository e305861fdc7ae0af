package security

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrDecrypt = errors.New("security: cannot open sealed payload")

// Sealer шифрует реквизиты получателя перед записью в БД.
// Формат: nonce(24) || secretbox.
type Sealer struct {
	key [32]byte
}

func NewSealer(key [32]byte) *Sealer {
	return &Sealer{key: key}
}

// Seal сериализует значение в JSON и шифрует его.
func (s *Sealer) Seal(v any) ([]byte, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("security: marshal payload: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("security: generate nonce: %w", err)
	}

	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

// Open расшифровывает payload и декодирует JSON в v.
func (s *Sealer) Open(sealed []byte, v any) error {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return ErrDecrypt
	}
	return json.Unmarshal(plain, v)
}
