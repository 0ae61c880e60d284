package listings

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
	"golang.org/x/sync/errgroup"
)

// CalendarEvent is the shape every dated listing is mapped to on the calendar
type CalendarEvent struct {
	ID       string               `json:"id"`
	Title    portal.LocalizedText `json:"title"`
	Start    time.Time            `json:"start"`
	End      time.Time            `json:"end"`
	Kind     Kind                 `json:"kind"`
	Category string               `json:"category,omitempty"`
	Color    string               `json:"color"`
	Link     string               `json:"link"`
}

// Display colours per calendar kind
const (
	ColorExam    = "#3b82f6"
	ColorResult  = "#22c55e"
	ColorHoliday = "#ef4444"
	ColorEvent   = "#a855f7"
)

var calendarStyle = map[Kind]struct {
	color string
	path  string
}{
	KindExam:    {ColorExam, "/exams/"},
	KindResult:  {ColorResult, "/results/"},
	KindHoliday: {ColorHoliday, "/holidays/"},
	KindEvent:   {ColorEvent, "/events/"},
}

// calendarPageSize is the page size used while draining each collection
const calendarPageSize = 100

// CalendarEvents builds the month view for p. The four dated kinds are
// fetched concurrently; a kind that fails contributes no events and is
// logged. Only cancellation of ctx fails the whole call.
func CalendarEvents(ctx context.Context, p Provider, year int, month time.Month, logger *slog.Logger) ([]CalendarEvent, error) {
	if month < time.January || month > time.December {
		return nil, &portal.ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var (
		mu     sync.Mutex
		events []CalendarEvent
		g      errgroup.Group
	)
	add := func(kind Kind, fetch func() ([]CalendarEvent, error)) {
		g.Go(func() error {
			found, err := fetch()
			if err != nil {
				logger.Warn("calendar source failed, skipping kind",
					"provider", p.Name(), "kind", kind, "year", year, "month", int(month), "error", err)
				return nil
			}
			mu.Lock()
			events = append(events, found...)
			mu.Unlock()
			return nil
		})
	}

	add(KindExam, func() ([]CalendarEvent, error) {
		return monthEvents[Exam](ctx, p.Exams(), KindExam, from, to)
	})
	add(KindResult, func() ([]CalendarEvent, error) {
		return monthEvents[Result](ctx, p.Results(), KindResult, from, to)
	})
	add(KindHoliday, func() ([]CalendarEvent, error) {
		return monthEvents[Holiday](ctx, p.Holidays(), KindHoliday, from, to)
	})
	add(KindEvent, func() ([]CalendarEvent, error) {
		return monthEvents[Event](ctx, p.Events(), KindEvent, from, to)
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	SortCalendar(events)
	if events == nil {
		events = []CalendarEvent{}
	}
	return events, nil
}

// SortCalendar orders events by start, then title, then id
func SortCalendar(events []CalendarEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.Title.String() != b.Title.String() {
			return a.Title.String() < b.Title.String()
		}
		return a.ID < b.ID
	})
}

// monthEvents drains c and keeps the items whose span overlaps [from, to)
func monthEvents[T any, PT Dated[T]](ctx context.Context, c Collection[T], kind Kind, from, to time.Time) ([]CalendarEvent, error) {
	items, err := All(ctx, c, Query{})
	if err != nil {
		return nil, err
	}
	var out []CalendarEvent
	for i := range items {
		rec := PT(&items[i])
		start, end := rec.Span()
		if start.IsZero() || !Overlaps(start, end, from, to) {
			continue
		}
		out = append(out, ToCalendarEvent(rec.Common(), kind, start, end))
	}
	return out, nil
}

// Overlaps reports whether the day range [start, end] touches [from, to)
func Overlaps(start, end, from, to time.Time) bool {
	return start.Before(to) && !end.Before(from)
}

// ToCalendarEvent maps the shared fields of a dated listing
func ToCalendarEvent(b *Base, kind Kind, start, end time.Time) CalendarEvent {
	style := calendarStyle[kind]
	return CalendarEvent{
		ID:       string(kind) + ":" + b.ID,
		Title:    b.Title,
		Start:    start,
		End:      end,
		Kind:     kind,
		Category: b.Category,
		Color:    style.color,
		Link:     style.path + b.Slug,
	}
}

// All pages through c until every item matching q has been read
func All[T any](ctx context.Context, c Collection[T], q Query) ([]T, error) {
	q.Limit = calendarPageSize
	q.Offset = 0
	var out []T
	for {
		page, err := c.List(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) == 0 || len(out) >= page.Total {
			return out, nil
		}
		q.Offset += len(page.Items)
	}
}
