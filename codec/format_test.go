package codec

import (
	"testing"
	"time"
)

func TestDateTime_Decode_Encode(t *testing.T) {
	f, ok := Lookup(DateTime)
	if !ok {
		t.Fatalf("date-time not registered")
	}
	in := "2025-01-01T09:00:00+09:00"
	got, err := f.Decode(in)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if !got.(time.Time).Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time: %v", got)
	}
	out, ok := f.Encode(got)
	if !ok || out != in {
		t.Fatalf("unexpected canonical form: %q", out)
	}
	if _, ok := f.Encode("2025-01-01"); ok {
		t.Fatalf("strings are not encodable as date-time")
	}
}

func TestDateTime_LooseLayouts(t *testing.T) {
	f, _ := Lookup(DateTime)
	for _, s := range []string{"2025-01-01T10:30", "2025-01-01 10:30:00", "2025-01-01T10:30:00.5Z"} {
		if _, err := f.Decode(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	if _, err := f.Decode("2025-13-01T00:00:00Z"); err == nil {
		t.Fatalf("expected month out of range")
	}
}

func TestDateAndTime(t *testing.T) {
	d, _ := Lookup(Date)
	v, err := d.Decode("2018-10-22")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if s, _ := d.Encode(v); s != "2018-10-22" {
		t.Fatalf("roundtrip mismatch: %s", s)
	}
	if _, err := d.Decode("2018-02-30"); err == nil {
		t.Fatalf("expected invalid day")
	}

	tm, _ := Lookup(Time)
	v, err = tm.Decode("10:30")
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if s, _ := tm.Encode(v); s != "10:30:00" {
		t.Fatalf("unexpected time form: %s", s)
	}
}

func TestEmailAndURI(t *testing.T) {
	e, _ := Lookup(Email)
	if _, err := e.Decode("ada@example.com"); err != nil {
		t.Fatalf("email err: %v", err)
	}
	for _, bad := range []string{"nobody", "Ada <ada@example.com>"} {
		if _, err := e.Decode(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}

	u, _ := Lookup(URI)
	if _, err := u.Decode("urn:isbn:0451450523"); err != nil {
		t.Fatalf("uri err: %v", err)
	}
	if _, err := u.Decode("/relative/path"); err == nil {
		t.Fatalf("expected relative reference to be rejected")
	}
}

func TestNames(t *testing.T) {
	got := Names()
	want := []string{"date", "date-time", "email", "time", "uri"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if _, ok := Lookup("ipv4"); ok {
		t.Fatalf("ipv4 is not built in")
	}
}
