package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/geardb/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b bytes.Buffer
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

// ----------------------------------------------------------------------------
// Preview Tests
// ----------------------------------------------------------------------------

func TestPreviewPage(t *testing.T) {
	s, err := core.CreateSheet(nil, "<b>Gear</b>")
	if err != nil {
		t.Fatal(err)
	}
	s, _, err = s.AddColumn("qty", core.TypeInt, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, _, err = s.AddColumn("label", core.TypeText, nil)
	if err != nil {
		t.Fatal(err)
	}
	s = s.AddRows(2)
	other := core.SheetSummary{ID: "other", Name: "Tools"}

	body := render(t, PreviewPage(PreviewParams{
		Status: core.Status{FileName: "inventory", Dirty: true},
		Tabs:   []core.SheetSummary{{ID: s.ID, Name: s.Name}, other},
		Sheet:  s,
	}))

	tests := []struct {
		name string
		want string
	}{
		{"title", "<h1>inventory"},
		{"dirty marker", `class="dirty"`},
		{"escaped tab", "&lt;b&gt;Gear&lt;/b&gt;"},
		{"active tab", `<a href="/?sheet=` + s.ID + `" class="active">`},
		{"other tab", `<a href="/?sheet=other">Tools</a>`},
		{"typed header", `<th title="Int">qty</th>`},
		{"numeric cell", `<td class="num">0</td>`},
		{"footer", "2 rows, 2 columns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(body, tt.want) {
				t.Errorf("page missing %q:\n%s", tt.want, body)
			}
		})
	}
	if strings.Contains(body, "<b>Gear</b>") {
		t.Error("sheet name rendered unescaped")
	}
}

func TestPreviewPage_NoSheet(t *testing.T) {
	body := render(t, PreviewPage(PreviewParams{Sheet: core.EmptySheet()}))
	if !strings.Contains(body, "untitled") || !strings.Contains(body, "No sheet selected.") {
		t.Errorf("empty page = %s", body)
	}
	if strings.Contains(body, "<table>") || strings.Contains(body, `class="dirty"`) {
		t.Errorf("empty page rendered a table or dirty marker: %s", body)
	}
}

// ----------------------------------------------------------------------------
// Alert Tests
// ----------------------------------------------------------------------------

func TestErrorAlert(t *testing.T) {
	tests := []struct {
		name    string
		msg     core.UserMessage
		want    []string
		notWant string
	}{
		{
			name: "with action",
			msg:  core.UserMessage{Message: "Sheet <x> not found", Action: "Pick another sheet", Code: "REF001"},
			want: []string{`role="alert"`, "Sheet &lt;x&gt; not found", "<p>Pick another sheet</p>", "<small>REF001</small>"},
		},
		{
			name:    "without action",
			msg:     core.UserMessage{Message: "Failed", Code: "SYS001"},
			want:    []string{"<strong>Failed</strong>", "<small>SYS001</small>"},
			notWant: "<p>",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := render(t, ErrorAlert(tt.msg))
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("alert missing %q: %s", w, body)
				}
			}
			if tt.notWant != "" && strings.Contains(body, tt.notWant) {
				t.Errorf("alert contains %q: %s", tt.notWant, body)
			}
		})
	}
}
