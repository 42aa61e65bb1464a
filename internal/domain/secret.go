package domain

import (
	"errors"
	"log/slog"

	"github.com/awnumar/memguard"
)

const redacted = "[REDACTED]"

// SecretValue holds a token value sealed in an encrypted memory enclave.
// It prints and logs as [REDACTED].
type SecretValue struct {
	enclave *memguard.Enclave
}

// NewSecretValue seals data. The source slice is wiped.
func NewSecretValue(data []byte) (SecretValue, error) {
	if len(data) == 0 {
		return SecretValue{}, errors.New("secret value is empty")
	}
	return SecretValue{enclave: memguard.NewEnclave(data)}, nil
}

// IsZero reports whether no value is held.
func (s SecretValue) IsZero() bool {
	return s.enclave == nil
}

// Open decrypts the value into a locked buffer. Callers must Destroy it.
func (s SecretValue) Open() (*memguard.LockedBuffer, error) {
	if s.enclave == nil {
		return nil, errors.New("secret value is empty")
	}
	return s.enclave.Open()
}

func (s SecretValue) String() string   { return redacted }
func (s SecretValue) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (s SecretValue) LogValue() slog.Value { return slog.StringValue(redacted) }
