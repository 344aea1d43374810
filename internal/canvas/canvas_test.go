package canvas

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type memKV map[string]string

func (m memKV) GetKV(ctx context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memKV) PutKV(ctx context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memKV) DeleteKV(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

func TestBrushDragFillsLine(t *testing.T) {
	c, err := New(10, 10)
	if err != nil {
		t.Fatalf("new canvas: %v", err)
	}
	if err := c.SetColor("#FF3B30"); err != nil {
		t.Fatalf("set color: %v", err)
	}
	c.Press(0, 0)
	c.Drag(4, 0)
	c.Release()
	for x := 0; x <= 4; x++ {
		if got := FormatHex(c.At(x, 0)); got != "#FF3B30" {
			t.Fatalf("expected cell %d painted, got %s", x, got)
		}
	}
	if c.At(5, 0).A != 0 {
		t.Fatalf("expected cell past the stroke to stay empty")
	}

	c.SetTool(Eraser)
	c.Press(2, 0)
	if c.At(2, 0).A != 0 {
		t.Fatalf("expected eraser to clear the cell")
	}
	c.Clear()
	if !c.Empty() {
		t.Fatalf("expected clear to empty the canvas")
	}
}

func TestDataURIRoundTripAndResample(t *testing.T) {
	c, _ := New(4, 4)
	_ = c.SetColor("#34C759")
	c.Press(1, 1)
	uri, err := c.EncodeDataURI()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", uri[:30])
	}

	big, _ := New(8, 8)
	if err := big.DecodeDataURI(uri); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, p := range [][2]int{{2, 2}, {3, 3}, {2, 3}} {
		if got := FormatHex(big.At(p[0], p[1])); got != "#34C759" {
			t.Fatalf("expected upscaled cell %v painted, got %s", p, got)
		}
	}
	if big.At(0, 0).A != 0 {
		t.Fatalf("expected transparent cells to stay empty")
	}

	if err := big.DecodeDataURI("hello"); !errors.Is(err, ErrNotDataURI) {
		t.Fatalf("expected ErrNotDataURI, got %v", err)
	}
}

func TestSaveRestore(t *testing.T) {
	kv := memKV{}
	c, _ := New(6, 6)
	_ = c.SetColor("#5856D6")
	c.Press(3, 3)
	if err := c.Save(context.Background(), kv); err != nil {
		t.Fatalf("save: %v", err)
	}
	if kv[ColorKey] != "#5856D6" || kv[DoodleKey] == "" {
		t.Fatalf("expected colour and doodle stored, got %v", kv)
	}

	restored, _ := New(6, 6)
	if err := restored.Restore(context.Background(), kv); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Color() != "#5856D6" || restored.At(3, 3).A == 0 {
		t.Fatalf("expected doodle and colour restored")
	}

	restored.Clear()
	if err := restored.Save(context.Background(), kv); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if _, ok := kv[DoodleKey]; ok {
		t.Fatalf("expected empty canvas to remove the stored doodle")
	}
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#abc")
	if err != nil || FormatHex(c) != "#AABBCC" {
		t.Fatalf("expected short form expansion, got %v %v", FormatHex(c), err)
	}
	if _, err := ParseHex("#12345"); err == nil {
		t.Fatalf("expected invalid length to fail")
	}
}
