package hotkey

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		accel   string
		want    Accelerator
		wantErr bool
	}{
		{accel: "Ctrl+Alt+R", want: Accelerator{Ctrl: true, Alt: true, Key: "R"}},
		{accel: "control+option+space", want: Accelerator{Ctrl: true, Alt: true, Key: "Space"}},
		{accel: "Cmd+Shift+9", want: Accelerator{Cmd: true, Shift: true, Key: "9"}},
		{accel: " Alt + f9 ", want: Accelerator{Alt: true, Key: "F9"}},
		{accel: "Super+Esc", want: Accelerator{Cmd: true, Key: "Escape"}},
		{accel: "R", wantErr: true},
		{accel: "Ctrl+", wantErr: true},
		{accel: "Hyper+R", wantErr: true},
		{accel: "Ctrl+PageUp", wantErr: true},
		{accel: "Ctrl+F13", wantErr: true},
		{accel: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.accel, func(t *testing.T) {
			got, err := Parse(tt.accel)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %+v, want error", tt.accel, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.accel, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.accel, got, tt.want)
			}
		})
	}
}

func TestAcceleratorString(t *testing.T) {
	a, err := Parse("shift+ctrl+r")
	if err != nil {
		t.Fatal(err)
	}
	if got := a.String(); got != "Ctrl+Shift+R" {
		t.Errorf("String() = %q", got)
	}
}

func TestCarbonMapping(t *testing.T) {
	a := Accelerator{Ctrl: true, Alt: true, Key: "R"}
	code, mods, err := a.carbon()
	if err != nil {
		t.Fatal(err)
	}
	if code != 0x0F {
		t.Errorf("key code = %#x, want 0x0f", code)
	}
	if mods != 0x1000|0x800 {
		t.Errorf("modifiers = %#x, want 0x1800", mods)
	}

	space := Accelerator{Cmd: true, Key: "Space"}
	if code, mods, _ := space.carbon(); code != 49 || mods != 0x100 {
		t.Errorf("Cmd+Space = %d/%#x", code, mods)
	}
}

func TestX11Mapping(t *testing.T) {
	tests := []struct {
		a        Accelerator
		wantSym  string
		wantMods int
	}{
		{a: Accelerator{Ctrl: true, Alt: true, Key: "R"}, wantSym: "r", wantMods: 12},
		{a: Accelerator{Alt: true, Key: "Space"}, wantSym: "space", wantMods: 8},
		{a: Accelerator{Shift: true, Cmd: true, Key: "F9"}, wantSym: "F9", wantMods: 65},
	}

	for _, tt := range tests {
		t.Run(tt.a.String(), func(t *testing.T) {
			sym, mods := tt.a.x11()
			if sym != tt.wantSym || mods != tt.wantMods {
				t.Errorf("x11() = %q/%d, want %q/%d", sym, mods, tt.wantSym, tt.wantMods)
			}
		})
	}
}
