package random_test

import (
	"testing"

	"github.com/cloudmeter/cloudmeter/adapters/random"
)

func TestReal(t *testing.T) {
	r := random.Real{}

	b, err := r.Bytes(16)
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if len(b) != 16 {
		t.Errorf("len = %d, want 16", len(b))
	}

	for _, n := range []int{1, 40, 41} {
		s, err := r.String(n)
		if err != nil {
			t.Fatalf("String(%d) error = %v", n, err)
		}
		if len(s) != n {
			t.Errorf("len(String(%d)) = %d", n, len(s))
		}
	}

	a, _ := r.String(40)
	b2, _ := r.String(40)
	if a == b2 {
		t.Error("consecutive strings should differ")
	}
}

func TestFake(t *testing.T) {
	f := random.NewFake()

	a, err := f.String(40)
	if err != nil {
		t.Fatalf("String() error = %v", err)
	}
	b, _ := f.String(40)
	if a == b {
		t.Error("counter should advance between calls")
	}

	f.Reset()
	c, _ := f.String(40)
	if a != c {
		t.Error("Reset should make the sequence repeat")
	}
}
