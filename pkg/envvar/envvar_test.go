package envvar_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/dcma/pkg/envvar"
)

func TestString(t *testing.T) {
	t.Setenv("DCMA_TEST_HOST", "db.internal")
	t.Setenv("DCMA_TEST_EMPTY", "")

	tests := []struct {
		name string
		env  string
		want string
	}{
		{"set", "DCMA_TEST_HOST", "db.internal"},
		{"empty keeps value", "DCMA_TEST_EMPTY", "localhost"},
		{"unset keeps value", "DCMA_TEST_UNSET", "localhost"},
		{"no name", "", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := "localhost"
			envvar.String(&got, tt.env)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInt(t *testing.T) {
	t.Setenv("DCMA_TEST_PORT", " 6543 ")
	t.Setenv("DCMA_TEST_BAD", "lots")

	port := 5432
	if err := envvar.Int(&port, "DCMA_TEST_PORT"); err != nil || port != 6543 {
		t.Errorf("got %d, %v", port, err)
	}

	n := 7
	if err := envvar.Int(&n, "DCMA_TEST_BAD"); err == nil {
		t.Error("malformed integer accepted")
	}
	if n != 7 {
		t.Errorf("malformed integer changed value to %d", n)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("DCMA_TEST_ON", "true")
	t.Setenv("DCMA_TEST_BAD", "sometimes")

	var on bool
	if err := envvar.Bool(&on, "DCMA_TEST_ON"); err != nil || !on {
		t.Errorf("got %v, %v", on, err)
	}
	if err := envvar.Bool(&on, "DCMA_TEST_BAD"); err == nil {
		t.Error("malformed boolean accepted")
	}
}

func TestList(t *testing.T) {
	t.Setenv("DCMA_TEST_ORIGINS", " https://a.example, ,https://b.example,")

	got := []string{"*"}
	envvar.List(&got, "DCMA_TEST_ORIGINS")
	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	keep := []string{"GET"}
	envvar.List(&keep, "DCMA_TEST_UNSET")
	if !slices.Equal(keep, []string{"GET"}) {
		t.Errorf("unset variable changed list to %v", keep)
	}
}
