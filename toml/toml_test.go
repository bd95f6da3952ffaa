package toml

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

type presetView struct {
	Glyphs string  `toml:"glyphs"`
	Tint   bool    `toml:"tint"`
	Gamma  float64 `toml:"gamma"`
}

type presetFile struct {
	Name      string         `toml:"name"`
	Width     int            `toml:"width"`
	Seed      uint64         `toml:"seed"`
	FrameTime time.Duration  `toml:"frame_time"`
	Speed     float64        `toml:"speed"`
	Stops     []string       `toml:"stops"`
	View      presetView     `toml:"view"`
	Extra     map[string]any `toml:"extra,omitempty"`
	Secret    string         `toml:"-"`
}

const presetInput = `
# slow drift
name = "drift"   # trailing comment
width = 1_20
seed = 0xff
frame_time = "40ms"
speed = 2.5e-1
stops = [
  "#101020",
  "#e0e0ff",   # trailing comma allowed
]

[view]
glyphs = ' .:-=+*#%@\'
tint = true
gamma = 1
`

// TestUnmarshal_Preset runs a realistic preset through lexer, parser and decoder
func TestUnmarshal_Preset(t *testing.T) {
	var p presetFile
	if err := UnmarshalStrict([]byte(presetInput), &p); err != nil {
		t.Fatalf("UnmarshalStrict failed: %v", err)
	}

	if p.Name != "drift" {
		t.Errorf("Name = %q", p.Name)
	}
	if p.Width != 120 {
		t.Errorf("Width = %d, want 120", p.Width)
	}
	if p.Seed != 255 {
		t.Errorf("Seed = %d, want 255", p.Seed)
	}
	if p.FrameTime != 40*time.Millisecond {
		t.Errorf("FrameTime = %v", p.FrameTime)
	}
	if p.Speed != 0.25 {
		t.Errorf("Speed = %v", p.Speed)
	}
	if len(p.Stops) != 2 || p.Stops[1] != "#e0e0ff" {
		t.Errorf("Stops = %v", p.Stops)
	}
	// Literal strings keep backslashes verbatim
	if p.View.Glyphs != ` .:-=+*#%@\` {
		t.Errorf("View.Glyphs = %q", p.View.Glyphs)
	}
	if !p.View.Tint || p.View.Gamma != 1 {
		t.Errorf("View = %+v", p.View)
	}
}

func TestUnmarshal_StrictUnknownKeys(t *testing.T) {
	input := []byte(`
name = "x"
colour = "red"

[view]
glpyhs = "ab"
`)
	var p presetFile
	err := UnmarshalStrict(input, &p)
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err = %v, want ErrUnknownKey", err)
	}
	// Sub-tables are checked as they are decoded
	if !strings.Contains(err.Error(), "view.glpyhs") {
		t.Errorf("error %q does not name the key", err)
	}

	// Lenient mode ignores the same keys
	if err := Unmarshal(input, &p); err != nil {
		t.Errorf("Unmarshal: %v", err)
	}
	if p.Name != "x" {
		t.Errorf("Name = %q", p.Name)
	}
}

func TestDecode_RawPrimitives(t *testing.T) {
	data := map[string]any{
		"int_val":   100,
		"big_val":   int64(4611686018427387905),
		"float_val": 123.45,
		"whole":     3.0,
		"bool_val":  true,
		"str_val":   "hello",
		"any_val":   "dynamic",
		"dur_ms":    int64(16),
	}

	type Target struct {
		Int   int64         `toml:"int_val"`
		Big   int64         `toml:"big_val"`
		Float float32       `toml:"float_val"`
		Whole int           `toml:"whole"`
		Bool  bool          `toml:"bool_val"`
		Str   string        `toml:"str_val"`
		Any   any           `toml:"any_val"`
		Dur   time.Duration `toml:"dur_ms"`
	}

	var tgt Target
	if err := Decode(data, &tgt); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if tgt.Int != 100 || tgt.Big != 4611686018427387905 || tgt.Whole != 3 {
		t.Errorf("integer coercion: %+v", tgt)
	}
	if tgt.Float < 123.44 || tgt.Float > 123.46 {
		t.Errorf("Float32 coercion failed: got %f", tgt.Float)
	}
	if !tgt.Bool || tgt.Str != "hello" || tgt.Any != "dynamic" {
		t.Errorf("scalar fields: %+v", tgt)
	}
	if tgt.Dur != 16*time.Millisecond {
		t.Errorf("Dur = %v, want 16ms", tgt.Dur)
	}
}

func TestDecode_TypeErrors(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{"string into int", map[string]any{"width": "wide"}},
		{"fraction into int", map[string]any{"width": 1.5}},
		{"negative into uint", map[string]any{"seed": int64(-1)}},
		{"bool into string", map[string]any{"name": true}},
		{"bad duration", map[string]any{"frame_time": "soon"}},
		{"scalar into table", map[string]any{"view": int64(3)}},
		{"table into slice", map[string]any{"stops": map[string]any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p presetFile
			if err := Decode(tt.data, &p); err == nil {
				t.Error("expected error")
			}
		})
	}

	var small struct {
		V int8 `toml:"v"`
	}
	if err := Decode(map[string]any{"v": int64(300)}, &small); err == nil {
		t.Error("expected int8 overflow error")
	}
	if err := Decode(map[string]any{}, small); err == nil {
		t.Error("expected error for non-pointer target")
	}
}

func TestDecode_DeepPointers(t *testing.T) {
	data := map[string]any{"val": int64(42)}
	type T struct {
		Val ***int `toml:"val"`
	}
	var tgt T
	if err := Decode(data, &tgt); err != nil {
		t.Fatalf("Deep pointer decode failed: %v", err)
	}
	if ***tgt.Val != 42 {
		t.Errorf("Expected 42, got %d", ***tgt.Val)
	}
}

func TestDecode_UnexportedFieldSkipped(t *testing.T) {
	type Security struct {
		secret string
		Public string `toml:"secret"`
	}
	var s Security
	if err := Decode(map[string]any{"secret": "x"}, &s); err != nil {
		t.Fatal(err)
	}
	if s.Public != "x" || s.secret != "" {
		t.Errorf("got %+v", s)
	}
}

func TestParser_Values(t *testing.T) {
	input := []byte(`
a = "tab\there é \"q\""
b = -17
c = +0.5
d = inf
e = -nan
f = 0b101
g = 0o17
h = []
i = { x = 1, y.z = "two" }
j = [[1, 2], ["a"]]
k.l.m = false
"quoted key" = 1
`)
	tree, err := NewParser(input).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if tree["a"] != "tab\there é \"q\"" {
		t.Errorf("a = %q", tree["a"])
	}
	if tree["b"] != int64(-17) || tree["f"] != int64(5) || tree["g"] != int64(15) {
		t.Errorf("integers b=%v f=%v g=%v", tree["b"], tree["f"], tree["g"])
	}
	if tree["c"] != 0.5 {
		t.Errorf("c = %v", tree["c"])
	}
	if d, _ := tree["d"].(float64); !math.IsInf(d, 1) {
		t.Errorf("d = %v", tree["d"])
	}
	if e, _ := tree["e"].(float64); !math.IsNaN(e) {
		t.Errorf("e = %v", tree["e"])
	}
	if arr, ok := tree["h"].([]any); !ok || len(arr) != 0 {
		t.Errorf("h = %#v", tree["h"])
	}
	inline, ok := tree["i"].(map[string]any)
	if !ok || inline["x"] != int64(1) {
		t.Fatalf("i = %#v", tree["i"])
	}
	if y, _ := inline["y"].(map[string]any); y["z"] != "two" {
		t.Errorf("i.y = %#v", inline["y"])
	}
	if j, _ := tree["j"].([]any); len(j) != 2 {
		t.Errorf("j = %#v", tree["j"])
	}
	k, _ := tree["k"].(map[string]any)
	l, _ := k["l"].(map[string]any)
	if l["m"] != false {
		t.Errorf("k.l.m = %#v", tree["k"])
	}
	if tree["quoted key"] != int64(1) {
		t.Errorf("quoted key = %v", tree["quoted key"])
	}
}

func TestParser_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"trailing garbage", "a = 1 2"},
		{"invalid float", "a = 1.0a"},
		{"dangling dot", "a = 1."},
		{"lone sign", "a = +"},
		{"multi dot", "a = [1.2.3]"},
		{"leading zero", "a = 007"},
		{"numeric key", `123 = "value"`},
		{"numeric table", "[123]"},
		{"duplicate key", "a = 1\na = 2"},
		{"table redefinition", "[t]\n[t]"},
		{"table over value", "anchor = 1\n[anchor]\nsub = 2"},
		{"array of tables", "[[servers]]\nname = \"a\""},
		{"unterminated string", `a = "open`},
		{"newline in string", "a = \"x\ny\""},
		{"bad escape", `a = "\q"`},
		{"missing value", "a ="},
		{"missing equals", "a 1"},
		{"unclosed array", "a = [1, 2"},
		{"date", "a = 1979-05-27"},
		{"bare unicode", "é = 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParser([]byte(tt.input)).Parse(); err == nil {
				t.Errorf("Parse(%q) succeeded", tt.input)
			}
		})
	}
}

func TestParser_ErrorPosition(t *testing.T) {
	_, err := NewParser([]byte("a = 1\nb = ?\n")).Parse()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if pe.Line != 2 || pe.Col != 5 {
		t.Errorf("position = %d:%d, want 2:5", pe.Line, pe.Col)
	}
}

func TestParser_DeepNestingBounded(t *testing.T) {
	input := "a = " + strings.Repeat("[", 200) + strings.Repeat("]", 200)
	if _, err := NewParser([]byte(input)).Parse(); err == nil {
		t.Error("expected nesting limit error")
	}

	dotted := strings.Repeat("a.", 500) + "b = 1"
	if _, err := NewParser([]byte(dotted)).Parse(); err != nil {
		t.Errorf("long dotted key: %v", err)
	}
}

func TestLexer_Terminates(t *testing.T) {
	input := []byte("key = \"\x00\xff\"\n[table\x00]")
	l := NewLexer(input)
	for i := 0; i < 100; i++ {
		if l.NextToken().Type == TokenEOF {
			return
		}
	}
	t.Error("Lexer did not reach EOF on invalid input")
}

func TestMarshal_RoundTrip(t *testing.T) {
	in := presetFile{
		Name:      `say "hi"`,
		Width:     70,
		Seed:      9,
		FrameTime: 33 * time.Millisecond,
		Speed:     0.25,
		Stops:     []string{"#000000", "#ffffff"},
		View:      presetView{Glyphs: ". - + # @", Tint: true, Gamma: 2},
		Secret:    "hidden",
	}
	data, err := Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text := string(data)
	if strings.Contains(text, "hidden") || strings.Contains(text, "extra") {
		t.Errorf("skipped fields leaked:\n%s", text)
	}
	if !strings.Contains(text, `frame_time = "33ms"`) || !strings.Contains(text, "\n[view]\n") {
		t.Errorf("unexpected layout:\n%s", text)
	}
	if !strings.Contains(text, "gamma = 2.0") {
		t.Errorf("float lost its point:\n%s", text)
	}

	var out presetFile
	if err := UnmarshalStrict(data, &out); err != nil {
		t.Fatalf("re-read: %v\n%s", err, text)
	}
	if out.Name != in.Name || out.FrameTime != in.FrameTime || out.View != in.View ||
		out.Seed != in.Seed || out.Speed != in.Speed || len(out.Stops) != 2 {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestMarshal_Keys(t *testing.T) {
	data, err := Marshal(map[string]any{"b": int64(1), "a b": "x", "true": true, "9lives": 9})
	if err != nil {
		t.Fatal(err)
	}
	want := `"9lives" = 9
"a b" = "x"
b = 1
"true" = true
`
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}

	if _, err := Marshal(42); err == nil {
		t.Error("expected error for scalar root")
	}
	if _, err := Marshal(map[string]any{"t": []map[string]any{{"a": 1}}}); err == nil {
		t.Error("expected error for array of tables")
	}
}
