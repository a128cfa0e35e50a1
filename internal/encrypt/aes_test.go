package encrypt

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestDecryptShortCiphertext(t *testing.T) {
	_, err := AesGcmDecrypt([]byte{1, 2, 3}, []byte("key"))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestSealOpen(t *testing.T) {
	data := []byte(`{"char":"a","int":1,"list":["x","y"]}`)

	for _, key := range [][]byte{nil, []byte("secret")} {
		sealed, err := Seal(data, key)
		if err != nil {
			t.Fatalf("Seal(key=%q): %v", key, err)
		}
		if bytes.Contains(sealed, []byte("char")) && len(key) > 0 {
			t.Errorf("sealed data leaks plaintext")
		}
		opened, err := Open(sealed, key)
		if err != nil {
			t.Fatalf("Open(key=%q): %v", key, err)
		}
		if !bytes.Equal(opened, data) {
			t.Errorf("round trip = %s", opened)
		}
	}
}

func TestOpenWrongKey(t *testing.T) {
	sealed, err := Seal([]byte("payload"), []byte("right"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(sealed, []byte("wrong")); err == nil {
		t.Fatal("expected error with wrong key")
	}
}
