package cite

import (
	"testing"

	"github.com/mlindgren/litsurvey/internal/model"
)

func paper(last string, year int) model.PaperRecord {
	return model.PaperRecord{Authors: []model.Author{{Last: last}}, Year: year}
}

func TestBaseKey(t *testing.T) {
	cases := []struct {
		authors []model.Author
		year    int
		want    string
	}{
		{[]model.Author{{Last: "Smith"}}, 2021, "Smith2021"},
		{[]model.Author{{Last: "smith"}}, 2021, "Smith2021"},
		{[]model.Author{{Last: "O'Brien-Lee"}}, 1999, "OBrienLee1999"},
		{[]model.Author{{Last: "Smith"}}, -1, "SmithND"},
		{nil, 2020, "Anon2020"},
		{[]model.Author{{Last: "123"}}, 2020, "Anon2020"},
	}
	for _, c := range cases {
		if got := BaseKey(c.authors, c.year); got != c.want {
			t.Errorf("BaseKey(%v, %d) = %q, want %q", c.authors, c.year, got, c.want)
		}
	}
}

func TestAllocatorNoCollision(t *testing.T) {
	a := NewAllocator()

	key, rename := a.Assign(paper("Smith", 2021))
	if key != "Smith2021" || rename != nil {
		t.Errorf("first assignment: key=%q rename=%v", key, rename)
	}

	key, rename = a.Assign(paper("Jones", 2021))
	if key != "Jones2021" || rename != nil {
		t.Errorf("distinct base: key=%q rename=%v", key, rename)
	}
}

func TestAllocatorCollision(t *testing.T) {
	a := NewAllocator()

	first, _ := a.Assign(paper("Smith", 2021))
	if first != "Smith2021" {
		t.Fatalf("first key: %q", first)
	}

	second, rename := a.Assign(paper("Smith", 2021))
	if second != "Smith2021b" {
		t.Errorf("second colliding key: %q, want Smith2021b", second)
	}
	if got := rename["Smith2021"]; got != "Smith2021a" {
		t.Errorf("expected rename Smith2021 -> Smith2021a, got %v", rename)
	}

	third, rename := a.Assign(paper("Smith", 2021))
	if third != "Smith2021c" || rename != nil {
		t.Errorf("third colliding key: %q rename=%v, want Smith2021c and no rename", third, rename)
	}
}

func TestAllocatorDeterministic(t *testing.T) {
	run := func() []string {
		a := NewAllocator()
		papers := []model.PaperRecord{
			paper("Smith", 2021), paper("Jones", 2019), paper("Smith", 2021), paper("Smith", 2020),
		}
		var keys []string
		for _, p := range papers {
			k, _ := a.Assign(p)
			keys = append(keys, k)
		}
		return keys
	}

	first, second := run(), run()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("allocation not deterministic at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestSuffix(t *testing.T) {
	cases := map[int]string{0: "a", 1: "b", 25: "z", 26: "aa", 27: "ab"}
	for n, want := range cases {
		if got := Suffix(n); got != want {
			t.Errorf("Suffix(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestMarkerPattern(t *testing.T) {
	text := "As shown in [Smith2021] and [Jones2019a], but not [see] or [2021] or [smith2021]. Also [AnonND]."
	matches := MarkerPattern.FindAllStringSubmatch(text, -1)

	var keys []string
	for _, m := range matches {
		keys = append(keys, m[1])
	}

	want := []string{"Smith2021", "Jones2019a", "AnonND"}
	if len(keys) != len(want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key %d: %q, want %q", i, keys[i], want[i])
		}
	}
}
