package scramble

import (
	"errors"
	"testing"
)

var testKey = []byte{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
}

var alnum = []rune("abcdefghijklmnopqrstuvwxyz0123456789")

func TestDeterministic(t *testing.T) {
	sc, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, err := sc.Pseudonym("alice@example.com", alnum, 12)
	if err != nil {
		t.Fatalf("Pseudonym: %v", err)
	}
	b, err := sc.Pseudonym("alice@example.com", alnum, 12)
	if err != nil {
		t.Fatalf("Pseudonym: %v", err)
	}
	if a != b {
		t.Fatalf("non-deterministic: %q != %q", a, b)
	}
}

func TestDistinctInputsDiffer(t *testing.T) {
	sc, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a, _ := sc.Pseudonym("alice@example.com", alnum, 16)
	b, _ := sc.Pseudonym("bob@example.com", alnum, 16)
	if a == b {
		t.Fatalf("distinct inputs produced the same pseudonym: %q", a)
	}
}

func TestFixedLengthOutput(t *testing.T) {
	sc, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, n := range []int{1, 5, 16, 17, 40} {
		out, err := sc.Pseudonym("some input text", alnum, n)
		if err != nil {
			t.Fatalf("Pseudonym(n=%d): %v", n, err)
		}
		if len([]rune(out)) != n {
			t.Fatalf("Pseudonym(n=%d) produced length %d", n, len([]rune(out)))
		}
	}
}

func TestInvalidKey(t *testing.T) {
	if _, err := New(make([]byte, 8)); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("short key: got %v, want ErrInvalidKey", err)
	}
}

func TestEmptyAlphabet(t *testing.T) {
	sc, err := New(testKey)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := sc.Pseudonym("x", []rune{'a'}, 4); err != ErrEmptyAlphabet {
		t.Fatalf("single-symbol alphabet: got %v, want ErrEmptyAlphabet", err)
	}
}
