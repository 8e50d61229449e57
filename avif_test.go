package colopresso

import (
	"errors"
	"testing"
)

func TestEncodeAVIFReturnsUnavailable(t *testing.T) {
	data := genFewColorsPNG(t, 16, 16)
	_, err := EncodeAVIF(data, DefaultConfig().AVIF)
	if !errors.Is(err, ErrAVIFUnavailable) {
		t.Fatalf("got err=%v, want ErrAVIFUnavailable", err)
	}
}
