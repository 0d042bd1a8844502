package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/ppiankov/calscrape/internal/model"
)

const (
	productID = "-//calscrape//calscrape//EN"

	// floatingLayout has no zone suffix; calendar clients read it as local time
	floatingLayout = "20060102T150405"
	dateLayout     = "20060102"
)

// uidNamespace scopes entry UIDs
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ppiankov/calscrape"))

// EntryUID is stable across runs for the same start and title
func EntryUID(e model.Entry) string {
	key := e.StartString() + "|" + strings.ToLower(strings.TrimSpace(e.Title))
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@calscrape"
}

// BuildCalendar converts entries into a VCALENDAR with one VEVENT each
func BuildCalendar(category model.Category, entries []model.Entry, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName("calscrape " + string(category))

	for _, e := range entries {
		event := cal.AddEvent(EntryUID(e))
		event.SetDtStampTime(stamp)
		event.SetSummary(e.Title)
		if e.AllDay {
			event.SetProperty(ics.ComponentPropertyDtStart, e.Start.Format(dateLayout), ics.WithValue(string(ics.ValueDataTypeDate)))
		} else {
			event.SetProperty(ics.ComponentPropertyDtStart, e.Start.Format(floatingLayout))
		}
		if e.Description != "" {
			event.SetDescription(e.Description)
		}
		if e.URL != "" {
			event.SetURL(e.URL)
		}
		if len(e.Categories) > 0 {
			event.SetProperty(ics.ComponentPropertyCategories, strings.Join(e.Categories, ","))
		}
	}

	return cal
}

// WriteICS writes the category calendar
func WriteICS(w io.Writer, category model.Category, entries []model.Entry) error {
	cal := BuildCalendar(category, entries, time.Now().UTC())
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write %s calendar: %w", category, err)
	}
	return nil
}
