package detail

// SectionKind tags a Section variant.
type SectionKind string

const (
	KindInfo        SectionKind = "info"
	KindRelatedList SectionKind = "related-list"
	KindDescription SectionKind = "description"
	KindMetadata    SectionKind = "metadata"
	KindActivity    SectionKind = "activity"
	KindComments    SectionKind = "comments"
	KindAttachments SectionKind = "attachments"
)

// Section is one block of a detail page. The set of variants is closed.
type Section interface {
	SectionID() string
	Kind() SectionKind
	section()
}

// Breadcrumb is one step of the page trail.
type Breadcrumb struct {
	Label string `json:"label" yaml:"label"`
	Href  string `json:"href,omitempty" yaml:"href,omitempty"`
}

// Action is a header button. At most one action should be Primary.
type Action struct {
	ID      string `json:"id" yaml:"id"`
	Label   string `json:"label" yaml:"label"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
	Variant string `json:"variant,omitempty" yaml:"variant,omitempty"`
}

// Tab groups sections by id.
type Tab struct {
	ID         string   `json:"id" yaml:"id"`
	Label      string   `json:"label" yaml:"label"`
	SectionIDs []string `json:"sectionIds" yaml:"sectionIds"`
}

// Descriptor declares how a record's detail page is composed.
type Descriptor struct {
	Entity        string
	TitleField    string
	SubtitleField string
	BadgeField    string
	AvatarField   string
	Breadcrumbs   []Breadcrumb
	Actions       []Action
	Tabs          []Tab
	Sections      []Section
}

// Section returns the section with id.
func (d Descriptor) Section(id string) (Section, bool) {
	for _, s := range d.Sections {
		if s != nil && s.SectionID() == id {
			return s, true
		}
	}
	return nil, false
}

// InfoFormat selects how an info field value is printed.
type InfoFormat string

const (
	FormatText     InfoFormat = "text"
	FormatDate     InfoFormat = "date"
	FormatDateTime InfoFormat = "datetime"
	FormatCurrency InfoFormat = "currency"
	FormatNumber   InfoFormat = "number"
	FormatPercent  InfoFormat = "percent"
	FormatBoolean  InfoFormat = "boolean"
	FormatEmail    InfoFormat = "email"
	FormatPhone    InfoFormat = "phone"
	FormatLink     InfoFormat = "link"
	FormatBadge    InfoFormat = "badge"
)

// InfoField is one labelled value of an info section.
type InfoField struct {
	Key      string     `json:"key" yaml:"key"`
	Label    string     `json:"label,omitempty" yaml:"label,omitempty"`
	Format   InfoFormat `json:"format,omitempty" yaml:"format,omitempty"`
	Currency string     `json:"currency,omitempty" yaml:"currency,omitempty"`
	Copyable bool       `json:"copyable,omitempty" yaml:"copyable,omitempty"`
}

// Column is a related-list table column.
type Column struct {
	Key    string     `json:"key" yaml:"key"`
	Label  string     `json:"label,omitempty" yaml:"label,omitempty"`
	Format InfoFormat `json:"format,omitempty" yaml:"format,omitempty"`
}

// DefaultRelatedLimit caps related lists that do not set a limit.
const DefaultRelatedLimit = 10

type InfoSection struct {
	ID     string
	Title  string
	Fields []InfoField
}

type RelatedListSection struct {
	ID      string
	Title   string
	Entity  string
	Columns []Column
	Limit   int
	// LinkPattern builds row links; "{id}" is replaced with the row id.
	LinkPattern string
	// ForeignKey names the field of the related entity that holds the parent
	// record id. Data sources use it to fetch the rows.
	ForeignKey string
}

// EffectiveLimit returns Limit or DefaultRelatedLimit when unset.
func (s RelatedListSection) EffectiveLimit() int {
	if s.Limit <= 0 {
		return DefaultRelatedLimit
	}
	return s.Limit
}

type DescriptionSection struct {
	ID    string
	Title string
	Field string
}

type MetadataSection struct {
	ID     string
	Title  string
	Fields []string
}

type ActivitySection struct {
	ID    string
	Title string
}

type CommentsSection struct {
	ID    string
	Title string
}

type AttachmentsSection struct {
	ID    string
	Title string
}

func (s InfoSection) SectionID() string        { return s.ID }
func (s RelatedListSection) SectionID() string { return s.ID }
func (s DescriptionSection) SectionID() string { return s.ID }
func (s MetadataSection) SectionID() string    { return s.ID }
func (s ActivitySection) SectionID() string    { return s.ID }
func (s CommentsSection) SectionID() string    { return s.ID }
func (s AttachmentsSection) SectionID() string { return s.ID }

func (InfoSection) Kind() SectionKind        { return KindInfo }
func (RelatedListSection) Kind() SectionKind { return KindRelatedList }
func (DescriptionSection) Kind() SectionKind { return KindDescription }
func (MetadataSection) Kind() SectionKind    { return KindMetadata }
func (ActivitySection) Kind() SectionKind    { return KindActivity }
func (CommentsSection) Kind() SectionKind    { return KindComments }
func (AttachmentsSection) Kind() SectionKind { return KindAttachments }

func (InfoSection) section()        {}
func (RelatedListSection) section() {}
func (DescriptionSection) section() {}
func (MetadataSection) section()    {}
func (ActivitySection) section()    {}
func (CommentsSection) section()    {}
func (AttachmentsSection) section() {}

func sectionTitle(s Section) string {
	switch v := s.(type) {
	case InfoSection:
		return v.Title
	case RelatedListSection:
		return v.Title
	case DescriptionSection:
		return v.Title
	case MetadataSection:
		return v.Title
	case ActivitySection:
		return v.Title
	case CommentsSection:
		return v.Title
	case AttachmentsSection:
		return v.Title
	}
	return ""
}
