package checksum

import "testing"

func TestSumKnownValue(t *testing.T) {
	got := Sum([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("Sum = %q, want %q", got, want)
	}
}

func TestETagQuotedAndStable(t *testing.T) {
	a := ETag("hello")
	if a != ETag("hello") {
		t.Error("etag not stable")
	}
	if a[0] != '"' || a[len(a)-1] != '"' || len(a) != 34 {
		t.Errorf("etag = %q", a)
	}
	if a == ETag("hello!") {
		t.Error("different content produced same etag")
	}
}
