package gpu

import (
	"errors"
	"testing"
)

type flagBackend struct {
	Backend
	err error
}

func (b *flagBackend) Err() error {
	err := b.err
	b.err = nil
	return err
}

func TestCheck(t *testing.T) {
	b := &flagBackend{}
	if err := Check(b, "init"); err != nil {
		t.Errorf("Check() on clean backend != nil (got %v)", err)
	}

	b.err = InvalidOperation
	err := Check(b, "shadow")
	if !IsBackendError(err) {
		t.Fatalf("Check() != BackendError (got %T %v)", err, err)
	}
	if !errors.Is(err, InvalidOperation) {
		t.Errorf("Check() does not wrap InvalidOperation (got %v)", err)
	}
	if want := "backend error at shadow: invalid operation"; err.Error() != want {
		t.Errorf("Check().Error() != %q (got %q)", want, err.Error())
	}

	// flag is cleared
	if err := Check(b, "lighting"); err != nil {
		t.Errorf("second Check() != nil (got %v)", err)
	}
}

func TestErrorCode_Error(t *testing.T) {
	tests := []struct {
		Code     ErrorCode
		Expected string
	}{
		{InvalidEnum, "invalid enumerant"},
		{InvalidFramebufferOperation, "invalid framebuffer operation"},
		{ErrorCode(0x1234), "error 0x1234"},
	}

	for _, c := range tests {
		if r := c.Code.Error(); r != c.Expected {
			t.Errorf("ErrorCode(%x).Error() != %q (got %q)", uint32(c.Code), c.Expected, r)
		}
	}
}
