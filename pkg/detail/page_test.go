package detail_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewgen/pkg/detail"
	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

func contactRecord() schema.Record {
	return schema.Record{
		"id":             "c-1",
		"full_name":      "Grace Hopper",
		"company":        "Navy",
		"status":         "active",
		"photo":          "javascript:alert(1)",
		"email":          "grace@example.com",
		"phone":          "+1 (555) 010-2030",
		"lifetime_value": 1234.5,
		"notes":          `<p>Prefers <em>early</em> calls</p><script>x()</script>`,
		"created_at":     "2024-01-02T09:00:00Z",
	}
}

func contactDeals() map[string][]schema.Record {
	return map[string][]schema.Record{
		"deals": {
			{"id": "d1", "name": "Keynote", "amount": 5000},
			{"id": "d2", "name": "Workshop", "amount": 1500},
			{"id": "d3", "name": "Panel", "amount": 300},
		},
	}
}

func sectionIDs(views []detail.SectionView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func TestBuild_TabsPartitionSections(t *testing.T) {
	catalog := loadCatalog(t)
	d, _ := catalog.Descriptor("contacts")

	page := detail.Build(detail.Input{Descriptor: d, Data: contactRecord(), Related: contactDeals()}, nil)

	if len(page.Sections) != 0 {
		t.Fatalf("flat sections must be empty when tabs are set: %v", sectionIDs(page.Sections))
	}
	if len(page.Tabs) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(page.Tabs))
	}
	if diff := cmp.Diff([]string{"info", "notes"}, sectionIDs(page.Tabs[0].Sections)); diff != "" {
		t.Fatalf("overview sections mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"deals"}, sectionIDs(page.Tabs[1].Sections)); diff != "" {
		t.Fatalf("deals sections mismatch (-want +got):\n%s", diff)
	}
	for _, tab := range page.Tabs {
		for _, s := range tab.Sections {
			if s.ID == "metadata" {
				t.Fatalf("unreferenced section rendered in tab %q", tab.ID)
			}
		}
	}
	if !page.Tabs[0].Active || page.Tabs[1].Active {
		t.Fatalf("first tab should be active by default")
	}
	if page.Tabs[1].Href != "?tab=deals" {
		t.Fatalf("tab href mismatch: %q", page.Tabs[1].Href)
	}
}

func TestBuild_ActiveTabSelection(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("contacts")

	page := detail.Build(detail.Input{Descriptor: d, ActiveTab: "deals"}, nil)
	if page.Tabs[0].Active || !page.Tabs[1].Active {
		t.Fatalf("deals tab should be active")
	}
	page = detail.Build(detail.Input{Descriptor: d, ActiveTab: "missing"}, nil)
	if !page.Tabs[0].Active {
		t.Fatalf("unknown tab should fall back to the first")
	}
}

func TestBuild_DanglingTabReferencesNeverPanic(t *testing.T) {
	d := detail.Descriptor{
		TitleField: "name",
		Tabs: []detail.Tab{
			{ID: "a", SectionIDs: []string{"nope", "also-nope"}},
			{ID: "b", SectionIDs: nil},
		},
		Sections: []detail.Section{detail.DescriptionSection{ID: "desc", Field: "bio"}},
	}
	page := detail.Build(detail.Input{Descriptor: d}, nil)
	for _, tab := range page.Tabs {
		if len(tab.Sections) != 0 {
			t.Fatalf("tab %q should render no sections, got %v", tab.ID, sectionIDs(tab.Sections))
		}
	}
}

func TestBuild_FlatSectionsInDocumentOrder(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("venues")
	page := detail.Build(detail.Input{Descriptor: d, Data: schema.Record{"name": "Hall", "capacity": 12000}}, nil)

	if diff := cmp.Diff([]string{"info", "activity", "comments", "attachments"}, sectionIDs(page.Sections)); diff != "" {
		t.Fatalf("flat order mismatch (-want +got):\n%s", diff)
	}
	if got := page.Sections[0].Info[1].Value; got != "12,000" {
		t.Fatalf("capacity number format mismatch: %q", got)
	}
	if got := page.Sections[1].Placeholder; got != "Activity coming soon" {
		t.Fatalf("placeholder mismatch: %q", got)
	}
	if page.Sections[2].Title != "Crew notes" {
		t.Fatalf("custom title lost: %q", page.Sections[2].Title)
	}
}

func TestBuild_HeaderAndActions(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("contacts")
	d.Actions = append(d.Actions, detail.Action{ID: "promote", Label: "Promote", Primary: true})

	page := detail.Build(detail.Input{Descriptor: d, Data: contactRecord()}, nil)

	want := detail.Header{
		Title:    "Grace Hopper",
		Subtitle: "Navy",
		Badge:    "active",
		Initials: "GH",
		Trail:    d.Breadcrumbs,
	}
	if diff := cmp.Diff(want, page.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	if page.Primary == nil || page.Primary.ID != "email" {
		t.Fatalf("first primary action should be standalone: %#v", page.Primary)
	}
	var overflow []string
	for _, a := range page.Overflow {
		overflow = append(overflow, a.ID)
	}
	if diff := cmp.Diff([]string{"archive", "promote"}, overflow); diff != "" {
		t.Fatalf("overflow mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_MissingHeaderValuesAreEmpty(t *testing.T) {
	d := detail.Descriptor{TitleField: "name", SubtitleField: "role", BadgeField: "status"}
	page := detail.Build(detail.Input{Descriptor: d, Data: schema.Record{"role": nil}}, nil)
	if page.Header.Title != "" || page.Header.Subtitle != "" || page.Header.Badge != "" {
		t.Fatalf("missing values should be empty strings: %#v", page.Header)
	}
}

func TestBuild_InfoFormats(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("contacts")
	page := detail.Build(detail.Input{Descriptor: d, Data: contactRecord()}, format.New())
	info := page.Tabs[0].Sections[0].Info

	want := []detail.InfoValue{
		{Key: "email", Label: "Email", Value: "grace@example.com", Href: "mailto:grace@example.com", Copyable: true, CopyValue: "grace@example.com"},
		{Key: "phone", Label: "Phone", Value: "+1 (555) 010-2030", Href: "tel:+15550102030"},
		{Key: "lifetime_value", Label: "Lifetime value", Value: "EUR 1,234.50"},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_InfoEdgeCases(t *testing.T) {
	d := detail.Descriptor{Sections: []detail.Section{detail.InfoSection{ID: "i", Fields: []detail.InfoField{
		{Key: "site", Format: detail.FormatLink},
		{Key: "bad_site", Format: detail.FormatLink},
		{Key: "tier", Format: detail.FormatBadge},
		{Key: "vip", Format: detail.FormatBoolean},
		{Key: "missing", Format: detail.FormatDate, Copyable: true},
		{Key: "starts", Format: detail.FormatDate},
	}}}}
	data := schema.Record{
		"site":     "https://example.com",
		"bad_site": "javascript:alert(1)",
		"tier":     "gold",
		"vip":      true,
		"starts":   "2024-05-06",
	}
	info := detail.Build(detail.Input{Descriptor: d, Data: data}, nil).Sections[0].Info

	if info[0].Href != "https://example.com" || info[1].Href != "" {
		t.Fatalf("link hrefs mismatch: %#v %#v", info[0], info[1])
	}
	if !info[2].Pill || info[3].Value != "Yes" {
		t.Fatalf("badge/boolean mismatch: %#v %#v", info[2], info[3])
	}
	if info[4].Value != "-" || info[4].Copyable {
		t.Fatalf("missing value should print dash without copy: %#v", info[4])
	}
	if info[5].Value != "May 6, 2024" {
		t.Fatalf("date mismatch: %q", info[5].Value)
	}
}

func TestBuild_InfoLabelsFromKeys(t *testing.T) {
	d := detail.Descriptor{Sections: []detail.Section{detail.InfoSection{ID: "i", Fields: []detail.InfoField{
		{Key: "created_at"},
		{Key: "été-pricing"},
		{Key: "ñame"},
	}}}}
	info := detail.Build(detail.Input{Descriptor: d, Data: schema.Record{}}, nil).Sections[0].Info

	got := make([]string, 0, len(info))
	for _, field := range info {
		got = append(got, field.Label)
	}
	want := []string{"Created at", "Été pricing", "Ñame"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_RelatedListCapsAndTolerateMissing(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("contacts")

	page := detail.Build(detail.Input{Descriptor: d, Related: contactDeals(), ActiveTab: "deals"}, nil)
	related := page.Tabs[1].Sections[0].Related

	want := &detail.RelatedTable{
		Entity:  "deals",
		Columns: []string{"Name", "Amount"},
		Rows: []detail.RelatedRow{
			{ID: "d1", Href: "/records/deals/d1", Cells: []string{"Keynote", "5,000"}},
			{ID: "d2", Href: "/records/deals/d2", Cells: []string{"Workshop", "1,500"}},
		},
		Total:  3,
		Hidden: 1,
	}
	if diff := cmp.Diff(want, related); diff != "" {
		t.Fatalf("related mismatch (-want +got):\n%s", diff)
	}

	empty := detail.Build(detail.Input{Descriptor: d}, nil).Tabs[1].Sections[0].Related
	if empty.Total != 0 || len(empty.Rows) != 0 {
		t.Fatalf("missing collection should produce empty table: %#v", empty)
	}
}

func TestRelatedList_DefaultLimit(t *testing.T) {
	rows := make([]schema.Record, 0, 15)
	for i := 0; i < 15; i++ {
		rows = append(rows, schema.Record{"id": i})
	}
	d := detail.Descriptor{Sections: []detail.Section{detail.RelatedListSection{ID: "r", Entity: "tasks", Columns: []detail.Column{{Key: "id"}}}}}
	related := detail.Build(detail.Input{Descriptor: d, Related: map[string][]schema.Record{"tasks": rows}}, nil).Sections[0].Related
	if len(related.Rows) != detail.DefaultRelatedLimit || related.Hidden != 5 {
		t.Fatalf("default limit mismatch: rows=%d hidden=%d", len(related.Rows), related.Hidden)
	}
}

func TestBuild_DescriptionSanitizedOrPlaceholder(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("contacts")

	notes := detail.Build(detail.Input{Descriptor: d, Data: contactRecord()}, nil).Tabs[0].Sections[1]
	if strings.Contains(notes.Description, "script") || !strings.Contains(notes.Description, "<em>early</em>") {
		t.Fatalf("description not sanitized: %q", notes.Description)
	}

	empty := detail.Build(detail.Input{Descriptor: d, Data: schema.Record{}}, nil).Tabs[0].Sections[1]
	if empty.Placeholder != "No description" || empty.Description != "" {
		t.Fatalf("expected placeholder: %#v", empty)
	}
}

func TestBuild_Loading(t *testing.T) {
	d, _ := loadCatalog(t).Descriptor("contacts")
	page := detail.Build(detail.Input{Descriptor: d, Loading: true, Data: contactRecord()}, nil)
	if !page.Loading || len(page.Tabs) != 0 || len(page.Sections) != 0 {
		t.Fatalf("loading page should skip sections: %#v", page)
	}
}

func TestRenderer_Render(t *testing.T) {
	r, err := detail.NewRenderer()
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	d, _ := loadCatalog(t).Descriptor("contacts")

	out, err := r.Render(context.Background(), detail.Input{
		Descriptor: d,
		Data:       contactRecord(),
		Related:    contactDeals(),
		ActionURL:  "/records/contacts/c-1/actions",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		`<h1>Grace Hopper</h1>`,
		`<span>GH</span>`,
		`action="/records/contacts/c-1/actions"`,
		`name="actionId" value="email"`,
		`value="archive" class="vg-menu__item vg-menu__item--danger"`,
		`href="mailto:grace@example.com"`,
		`data-copy="grace@example.com"`,
		`<em>early</em>`,
		`data-tab="deals" hidden`,
		`<a href="/records/deals/d1">Keynote</a>`,
		`1 more not shown`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}
	for _, unwanted := range []string{"<script>", "javascript:", `data-section="metadata"`, `data-section="ghost"`} {
		if strings.Contains(html, unwanted) {
			t.Fatalf("unexpected %q in output:\n%s", unwanted, html)
		}
	}
}
