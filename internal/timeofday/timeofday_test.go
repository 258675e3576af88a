package timeofday

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "09:00"},
		{in: "9:05", want: "09:05"},
		{in: " 23:59 ", want: "23:59"},
		{in: "00:00", want: "00:00"},
		{in: "", want: ""},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "12:5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	nine := MustParse("09:00")
	six := MustParse("18:00")
	empty := Empty()

	tests := []struct {
		name string
		a, b TimeOfDay
		want Ordering
	}{
		{"less", nine, six, Less},
		{"greater", six, nine, Greater},
		{"equal", nine, MustParse("09:00"), Equal},
		{"left empty", empty, six, Incomparable},
		{"right empty", nine, empty, Incomparable},
		{"both empty", empty, empty, Incomparable},
	}

	for _, tt := range tests {
		if got := tt.a.Compare(tt.b); got != tt.want {
			t.Errorf("%s: Compare = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestIsAfterAndIsBeforeOrEqualOnEmpty(t *testing.T) {
	nine := MustParse("09:00")

	if IsAfter(Empty(), nine) || IsAfter(nine, Empty()) || IsAfter(Empty(), Empty()) {
		t.Error("IsAfter must be false when either side is empty")
	}
	if IsBeforeOrEqual(Empty(), nine) || IsBeforeOrEqual(nine, Empty()) {
		t.Error("IsBeforeOrEqual must be false when either side is empty")
	}
	if !IsAfter(MustParse("09:01"), nine) {
		t.Error("09:01 should be after 09:00")
	}
	if !IsBeforeOrEqual(nine, nine) {
		t.Error("09:00 should be before-or-equal 09:00")
	}
}

func TestOn(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	got := MustParse("13:45").On(day)
	want := time.Date(2026, 3, 14, 13, 45, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On = %v, want %v", got, want)
	}
}

func TestScanAndValue(t *testing.T) {
	var tod TimeOfDay
	if err := tod.Scan([]byte("07:30")); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	v, err := tod.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != "07:30" {
		t.Errorf("Value = %v, want 07:30", v)
	}

	if err := tod.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !tod.IsEmpty() {
		t.Error("Scan(nil) should produce empty value")
	}
	if v, _ := tod.Value(); v != nil {
		t.Errorf("empty Value = %v, want nil", v)
	}
}

func TestJSON(t *testing.T) {
	var payload struct {
		Start TimeOfDay `json:"start"`
		End   TimeOfDay `json:"end"`
	}
	if err := json.Unmarshal([]byte(`{"start":"08:15","end":""}`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload.Start.String() != "08:15" || !payload.End.IsEmpty() {
		t.Errorf("unexpected decode: %+v", payload)
	}

	out, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"start":"08:15","end":""}` {
		t.Errorf("Marshal = %s", out)
	}
}
