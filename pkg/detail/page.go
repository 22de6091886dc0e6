package detail

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-viewgen/pkg/format"
	"github.com/goliatone/go-viewgen/pkg/render"
	"github.com/goliatone/go-viewgen/pkg/schema"
)

// Input is one render pass of a detail page. Data and Related are read-only.
type Input struct {
	Descriptor Descriptor
	Data       schema.Record
	Related    map[string][]schema.Record
	Loading    bool
	// ActiveTab selects a tab by id; unknown or empty selects the first tab.
	ActiveTab string
	// ActionURL receives action posts. Empty disables the action form.
	ActionURL string
	// TabURL builds tab links. Nil yields "?tab=<id>".
	TabURL func(tabID string) string
}

// Header is the page title block.
type Header struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Badge    string       `json:"badge"`
	Avatar   string       `json:"avatar"`
	Initials string       `json:"initials"`
	Trail    []Breadcrumb `json:"breadcrumbs,omitempty"`
}

// InfoValue is a formatted info field.
type InfoValue struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	Href      string `json:"href,omitempty"`
	Pill      bool   `json:"pill,omitempty"`
	Copyable  bool   `json:"copyable,omitempty"`
	CopyValue string `json:"copyValue,omitempty"`
}

// RelatedRow is one row of a related-list table.
type RelatedRow struct {
	ID    string   `json:"id,omitempty"`
	Href  string   `json:"href,omitempty"`
	Cells []string `json:"cells"`
}

// RelatedTable is a capped related-record table.
type RelatedTable struct {
	Entity  string       `json:"entity"`
	Columns []string     `json:"columns"`
	Rows    []RelatedRow `json:"rows"`
	Total   int          `json:"total"`
	Hidden  int          `json:"hidden"`
}

// MetaEntry is one key/value pair of a metadata section.
type MetaEntry struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SectionView is the template-ready form of a Section.
type SectionView struct {
	ID          string        `json:"id"`
	Kind        SectionKind   `json:"kind"`
	Title       string        `json:"title"`
	Info        []InfoValue   `json:"info,omitempty"`
	Related     *RelatedTable `json:"related,omitempty"`
	Description string        `json:"description,omitempty"`
	Metadata    []MetaEntry   `json:"metadata,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
	HTML        string        `json:"html,omitempty"`
}

// TabView is a tab with the sections it shows.
type TabView struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Href     string        `json:"href"`
	Active   bool          `json:"active"`
	Sections []SectionView `json:"sections"`
}

// Page is the result of Build.
type Page struct {
	Entity    string        `json:"entity"`
	RecordID  string        `json:"recordId"`
	Loading   bool          `json:"loading"`
	Header    Header        `json:"header"`
	Primary   *Action       `json:"primary,omitempty"`
	Overflow  []Action      `json:"overflow,omitempty"`
	ActionURL string        `json:"actionUrl,omitempty"`
	Tabs      []TabView     `json:"tabs,omitempty"`
	Sections  []SectionView `json:"sections,omitempty"`
}

const (
	noDescription = "No description"
	comingSoon    = "coming soon"
)

// Build composes the page model for in. It tolerates missing data, dangling
// tab references and absent related collections.
func Build(in Input, f *format.Formatter) Page {
	if f == nil {
		f = format.Default()
	}
	d := in.Descriptor
	page := Page{
		Entity:    d.Entity,
		RecordID:  in.Data.ID(),
		Loading:   in.Loading,
		ActionURL: in.ActionURL,
		Header:    buildHeader(d, in.Data),
	}
	page.Primary, page.Overflow = splitActions(d.Actions)
	if in.Loading {
		return page
	}

	if len(d.Tabs) == 0 {
		for _, s := range d.Sections {
			if s == nil {
				continue
			}
			page.Sections = append(page.Sections, buildSection(s, in, f))
		}
		return page
	}

	active := d.Tabs[0].ID
	for _, tab := range d.Tabs {
		if tab.ID == in.ActiveTab && in.ActiveTab != "" {
			active = tab.ID
			break
		}
	}
	for _, tab := range d.Tabs {
		view := TabView{
			ID:     tab.ID,
			Label:  tab.Label,
			Href:   tabHref(in, tab.ID),
			Active: tab.ID == active,
		}
		for _, id := range tab.SectionIDs {
			s, ok := d.Section(id)
			if !ok {
				continue
			}
			view.Sections = append(view.Sections, buildSection(s, in, f))
		}
		page.Tabs = append(page.Tabs, view)
	}
	return page
}

func buildHeader(d Descriptor, data schema.Record) Header {
	h := Header{
		Title:    field(data, d.TitleField),
		Subtitle: field(data, d.SubtitleField),
		Badge:    field(data, d.BadgeField),
		Avatar:   field(data, d.AvatarField),
		Trail:    d.Breadcrumbs,
	}
	if !isWebURL(h.Avatar) && !strings.HasPrefix(h.Avatar, "/") {
		h.Avatar = ""
	}
	h.Initials = initials(h.Title)
	return h
}

func field(data schema.Record, key string) string {
	if key == "" {
		return ""
	}
	return data.String(key)
}

func initials(title string) string {
	var b strings.Builder
	for _, word := range strings.Fields(title) {
		for _, r := range word {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}

// splitActions returns the first primary action and every other action.
func splitActions(actions []Action) (*Action, []Action) {
	var primary *Action
	overflow := make([]Action, 0, len(actions))
	for _, action := range actions {
		if action.Primary && primary == nil {
			a := action
			primary = &a
			continue
		}
		overflow = append(overflow, action)
	}
	if len(overflow) == 0 {
		overflow = nil
	}
	return primary, overflow
}

func tabHref(in Input, id string) string {
	if in.TabURL != nil {
		return in.TabURL(id)
	}
	return "?tab=" + url.QueryEscape(id)
}

func buildSection(s Section, in Input, f *format.Formatter) SectionView {
	view := SectionView{ID: s.SectionID(), Kind: s.Kind(), Title: sectionTitle(s)}
	switch v := s.(type) {
	case InfoSection:
		for _, fd := range v.Fields {
			view.Info = append(view.Info, formatInfo(fd, in.Data.Value(fd.Key), f))
		}
	case RelatedListSection:
		view.Related = buildRelated(v, in.Related[v.Entity], f)
	case DescriptionSection:
		text := strings.TrimSpace(in.Data.String(v.Field))
		if text == "" {
			view.Placeholder = noDescription
		} else if clean := render.SanitizeHTML(text); clean != "" {
			view.Description = clean
		} else {
			view.Placeholder = noDescription
		}
	case MetadataSection:
		for _, key := range v.Fields {
			view.Metadata = append(view.Metadata, MetaEntry{Label: humanize(key), Value: f.Generic(in.Data.Value(key))})
		}
	case ActivitySection, CommentsSection, AttachmentsSection:
		view.Placeholder = placeholderText(s.Kind())
	}
	if view.Title == "" {
		view.Title = defaultTitle(s)
	}
	return view
}

func buildRelated(s RelatedListSection, rows []schema.Record, f *format.Formatter) *RelatedTable {
	table := &RelatedTable{Entity: s.Entity, Total: len(rows), Rows: []RelatedRow{}}
	for _, col := range s.Columns {
		label := col.Label
		if label == "" {
			label = humanize(col.Key)
		}
		table.Columns = append(table.Columns, label)
	}
	limit := s.EffectiveLimit()
	for i, record := range rows {
		if i >= limit {
			break
		}
		row := RelatedRow{ID: record.ID()}
		if s.LinkPattern != "" && row.ID != "" {
			row.Href = strings.ReplaceAll(s.LinkPattern, "{id}", url.PathEscape(row.ID))
		}
		for _, col := range s.Columns {
			row.Cells = append(row.Cells, formatInfo(InfoField{Key: col.Key, Format: col.Format}, record.Value(col.Key), f).Value)
		}
		table.Rows = append(table.Rows, row)
	}
	table.Hidden = table.Total - len(table.Rows)
	return table
}

func formatInfo(fd InfoField, value any, f *format.Formatter) InfoValue {
	out := InfoValue{Key: fd.Key, Label: fd.Label, Copyable: fd.Copyable}
	if out.Label == "" {
		out.Label = humanize(fd.Key)
	}
	raw := ""
	if value != nil {
		raw = strings.TrimSpace(fmt.Sprint(value))
	}
	if fd.Copyable {
		out.CopyValue = raw
	}
	if raw == "" {
		out.Value = format.Empty
		out.Copyable = false
		return out
	}

	switch fd.Format {
	case FormatDate:
		out.Value = f.Date(value)
	case FormatDateTime:
		out.Value = f.DateTime(value)
	case FormatCurrency:
		out.Value = f.Currency(value, fd.Currency)
	case FormatNumber:
		out.Value = f.Number(value)
	case FormatPercent:
		out.Value = f.Percent(value)
	case FormatBoolean:
		out.Value = f.Generic(value)
	case FormatEmail:
		out.Value = raw
		out.Href = "mailto:" + raw
	case FormatPhone:
		out.Value = raw
		out.Href = "tel:" + strings.Map(phoneRune, raw)
	case FormatLink:
		out.Value = raw
		if isWebURL(raw) {
			out.Href = raw
		}
	case FormatBadge:
		out.Value = raw
		out.Pill = true
	default:
		out.Value = f.Generic(value)
	}
	return out
}

func phoneRune(r rune) rune {
	if r == '+' || (r >= '0' && r <= '9') {
		return r
	}
	return -1
}

func isWebURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func placeholderText(kind SectionKind) string {
	return defaultTitleForKind(kind) + " " + comingSoon
}

func defaultTitle(s Section) string {
	if rel, ok := s.(RelatedListSection); ok && rel.Entity != "" {
		return humanize(rel.Entity)
	}
	return defaultTitleForKind(s.Kind())
}

func defaultTitleForKind(kind SectionKind) string {
	switch kind {
	case KindInfo:
		return "Details"
	case KindRelatedList:
		return "Related"
	case KindDescription:
		return "Description"
	case KindMetadata:
		return "Metadata"
	case KindActivity:
		return "Activity"
	case KindComments:
		return "Comments"
	case KindAttachments:
		return "Attachments"
	}
	return ""
}

// humanize turns "created_at" into "Created at".
func humanize(key string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(key))
	if len(words) == 0 {
		return key
	}
	first, size := utf8.DecodeRuneInString(words[0])
	words[0] = string(unicode.ToUpper(first)) + words[0][size:]
	return strings.Join(words, " ")
}
