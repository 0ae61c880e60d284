package wordpress

import (
	"bytes"
	"encoding/json"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// dateLayout is the format of WordPress *_gmt timestamps
const dateLayout = "2006-01-02T15:04:05"

type rendered struct {
	Raw      string `json:"raw,omitempty"`
	Rendered string `json:"rendered"`
}

// text returns the raw value when the edit context supplied it
func (r rendered) text() string {
	if r.Raw != "" {
		return r.Raw
	}
	return html.UnescapeString(r.Rendered)
}

// plain returns the value with markup removed
func (r rendered) plain() string {
	if r.Raw != "" {
		return strings.TrimSpace(r.Raw)
	}
	return strings.TrimSpace(html.UnescapeString(StripTags(r.Rendered)))
}

func (r rendered) markup() string {
	if r.Raw != "" {
		return r.Raw
	}
	return r.Rendered
}

// metaFields decodes a meta object. WordPress renders it as [] when no meta
// is registered for the object type.
type metaFields map[string]json.RawMessage

func (m *metaFields) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*m = nil
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	*m = raw
	return nil
}

func (m metaFields) String(key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.Trim(string(raw), `"`)
}

// Int accepts both numeric and string encodings
func (m metaFields) Int(key string) int {
	n, _ := strconv.Atoi(m.String(key))
	return n
}

func (m metaFields) Bool(key string) bool {
	switch strings.ToLower(m.String(key)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

type wpPost struct {
	ID            int        `json:"id"`
	DateGMT       string     `json:"date_gmt"`
	ModifiedGMT   string     `json:"modified_gmt"`
	Slug          string     `json:"slug"`
	Status        string     `json:"status"`
	Title         rendered   `json:"title"`
	Excerpt       rendered   `json:"excerpt"`
	Content       rendered   `json:"content"`
	Author        int        `json:"author"`
	FeaturedMedia int        `json:"featured_media"`
	Sticky        bool       `json:"sticky"`
	Categories    []int      `json:"categories"`
	Tags          []int      `json:"tags"`
	Meta          metaFields `json:"meta"`
	Embedded      *embedded  `json:"_embedded,omitempty"`
}

type embedded struct {
	Author        []wpUser   `json:"author"`
	FeaturedMedia []wpMedia  `json:"wp:featuredmedia"`
	Terms         [][]wpTerm `json:"wp:term"`
}

type wpTerm struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Taxonomy    string     `json:"taxonomy"`
	Description string     `json:"description"`
	Parent      int        `json:"parent"`
	Meta        metaFields `json:"meta"`
}

type wpUser struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Email       string            `json:"email,omitempty"`
	Description string            `json:"description"`
	Roles       []string          `json:"roles,omitempty"`
	AvatarURLs  map[string]string `json:"avatar_urls"`
	Meta        metaFields        `json:"meta"`
}

type wpMedia struct {
	ID           int      `json:"id"`
	DateGMT      string   `json:"date_gmt"`
	Title        rendered `json:"title"`
	AltText      string   `json:"alt_text"`
	MimeType     string   `json:"mime_type"`
	SourceURL    string   `json:"source_url"`
	Author       int      `json:"author"`
	MediaDetails struct {
		Width    int   `json:"width"`
		Height   int   `json:"height"`
		FileSize int64 `json:"filesize"`
	} `json:"media_details"`
}

type wpSettings struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Email       string       `json:"email"`
	Portal      portalExtras `json:"portal_site_settings"`
}

// portalExtras is the registered site option carrying the settings fields
// WordPress has no native slot for
type portalExtras struct {
	SiteNameHI   string            `json:"site_name_hi,omitempty"`
	LogoURL      string            `json:"logo_url,omitempty"`
	FaviconURL   string            `json:"favicon_url,omitempty"`
	SocialLinks  map[string]string `json:"social_links,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	Address      string            `json:"address,omitempty"`
}

func ParseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// DecodeSlug undoes the percent-encoding WordPress applies to non-ASCII
// slugs. A value that does not decode is returned unchanged.
func DecodeSlug(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// StripTags removes anything between angle brackets
func StripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
