package utils

import (
	"html/template"
	"strings"
	"testing"
)

func TestRenderInactivityTemplate(t *testing.T) {
	body, err := renderTemplate(inactivityTmpl, inactivityParams{
		SubmissionName: "RNA-seq batch 3",
		StudyID:        "phs-001",
		DaysLeft:       7,
		PortalURL:      "https://portal.test",
	})
	if err != nil {
		t.Fatal(err)
	}
	html := string(body)
	for _, want := range []string{"RNA-seq batch 3", "phs-001", "7 days", "https://portal.test"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered mail missing %q:\n%s", want, html)
		}
	}
}

func TestRenderTemplateRejectsMissingField(t *testing.T) {
	tmpl := template.Must(template.New("bad").Parse(`{{.NoSuchField}}`))
	if _, err := renderTemplate(tmpl, completionParams{}); err == nil {
		t.Fatal("expected render error for a field the params do not carry")
	}
}

func TestRenderTemplateEscapesSubmissionName(t *testing.T) {
	body, err := renderTemplate(completionTmpl, completionParams{
		SubmissionName: `<script>alert(1)</script>`,
		StudyID:        "phs-002",
		PortalURL:      "https://portal.test",
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(body), "<script>") {
		t.Fatal("submission name must be HTML-escaped")
	}
}
