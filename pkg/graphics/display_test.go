package graphics

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		key  sdl.Keycode
		want Action
	}{
		{sdl.K_m, ToggleMode},
		{sdl.K_SPACE, ToggleMode},
		{sdl.K_q, Quit},
		{sdl.K_ESCAPE, Quit},
		{sdl.K_a, NoAction},
	}
	for _, test := range tests {
		if got := keyAction(test.key); got != test.want {
			t.Errorf("key %v: got %v, want %v", test.key, got, test.want)
		}
	}
}
