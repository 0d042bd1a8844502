package extract

import (
	"fmt"
	"time"

	"github.com/ppiankov/calscrape/internal/model"
)

// listingRules holds the category-specific extraction rules
var listingRules = map[model.Category]string{
	model.CategoryEvents: `5. For titles: Extract the event name exactly as shown - keep all calendar entries
6. EXCLUDE ONLY: Navigation items and UI elements like "Log In", "Sign Up", "Read More", "Menu", "Search", "Home", "About", "Contact"
7. If no time is found, use "19:00"`,
	model.CategoryClasses: `5. For titles: Keep the class name exactly as shown, INCLUDING ordinal and series markers such as "Week 3", "Session 2" or "Part 1" - they distinguish sessions
6. Include the instructor in the description when shown (e.g. "with Jane Doe")
7. A class series listed with several dates produces one item per date
8. If no time is found, use "10:00"`,
	model.CategoryMeetings: `5. For titles: Copy the meeting title EXACTLY as written (e.g. "City Council Work Session", "Planning Commission Regular Meeting") - do not shorten or rephrase
6. Put the meeting location (room, building or address) at the start of the description, e.g. "Location: City Hall Council Chambers"
7. Mark cancelled or postponed meetings with "status": "cancelled" or "postponed"
8. If no time is found, use "18:00"`,
}

// ListingPrompt builds the single-pass extraction prompt for a page excerpt
func ListingPrompt(category model.Category, excerpt string, today time.Time) string {
	if category == model.CategoryAttractions {
		return attractionsPrompt(excerpt, today)
	}

	year := today.Year()
	return fmt.Sprintf(`You are an expert web scraper. Extract %[1]s information from the following HTML content.

TODAY'S DATE: %[2]s
CURRENT YEAR: %[3]d

IMPORTANT INSTRUCTIONS:
1. Extract ALL %[1]s you can find, not just a few examples - INCLUDE ALL calendar entries
2. For dates: Use YYYY-MM-DD format. For dates without a year, assume %[3]d. If a date has already passed in %[3]d, assume it is for the NEXT year (%[4]d).
3. For times: Use HH:MM 24-hour format. Look for times in the content.
4. For URLs: Extract href attributes from <a> tags. Return relative URLs as-is (e.g. "/event/123")
%[5]s
- For descriptions: Extract from paragraph text, keep it under 200 characters
- If an item repeats on a fixed weekday of every month (e.g. "First Friday", "2nd Saturday"), put that phrase in "recurring_pattern"; otherwise use ""

Return ONLY a valid JSON array with no markdown formatting or additional text. Format:
[
  {"title": "Item Name", "date": "%[3]d-01-15", "time": "19:00", "description": "Brief description", "url": "/event/123", "recurring_pattern": "", "status": "active"}
]

If you cannot find any %[1]s, return an empty array: []

HTML content:
%[6]s
`, category, today.Format(model.DateLayout), year, year+1, listingRules[category], excerpt)
}

func attractionsPrompt(excerpt string, today time.Time) string {
	date := today.Format(model.DateLayout)
	return fmt.Sprintf(`Extract ALL attractions from the structured list below. Each ITEM represents one place/attraction.

RULES:
1. Extract EVERY item in the list
2. Skip ONLY if the title is a generic category (1-2 words like "Food", "Museums") - but include specific places even if short
3. Use the Title, Description, and URL exactly as provided
4. Add date "%[1]s" to all items; leave "time" empty unless opening hours are stated
5. Add "categories": a short list of place types (e.g. ["museum"], ["park", "outdoor"])

INPUT FORMAT - Each item looks like this:
ITEM X:
Title: [Place Name]
Description: [Description text]
URL: [URL path]

YOUR TASK:
Convert each ITEM into JSON format. If you see 50 items, return 50 JSON objects.

Return ONLY a JSON array (no markdown, no extra text):
[
  {"title": "Title from item", "date": "%[1]s", "time": "", "description": "Description from item", "url": "URL from item", "categories": ["museum"]}
]

ITEMS:
%[2]s
`, date, excerpt)
}

// detailFocus tells the Stage-2 prompt what matters per category
var detailFocus = map[model.Category]string{
	model.CategoryEvents:   "the event's actual date(s) and start time",
	model.CategoryClasses:  "the class session date(s), start time and instructor; keep series markers such as \"Week 3\" in the title",
	model.CategoryMeetings: "the meeting date, start time and location; keep the official meeting title exactly",
}

// DetailPrompt builds the Stage-2 prompt for one item's detail page
func DetailPrompt(category model.Category, title, listingDate, pageText string, today time.Time) string {
	focus, ok := detailFocus[category]
	if !ok {
		focus = detailFocus[model.CategoryEvents]
	}
	if listingDate == "" {
		listingDate = "unknown"
	}

	return fmt.Sprintf(`You are verifying one calendar item against its own detail page. Focus on %[1]s.

TODAY'S DATE: %[2]s
ITEM TITLE FROM LISTING: %[3]s
DATE SHOWN ON LISTING: %[4]s

RULES:
1. "status": "cancelled" or "postponed" if the page says so, otherwise "active"
2. "dates": every date the item occurs on, as YYYY-MM-DD (several for multi-day items); [] if the page shows no date
3. "time": start time as HH:MM 24-hour, or "" if not shown
4. "description": one or two sentences, under 200 characters
5. "recurring_pattern": a phrase like "first friday" if it repeats monthly on a fixed weekday, otherwise ""
6. "corrected_title": the item's official name if the page shows a different or fuller one, otherwise ""

Return ONLY a JSON object (no markdown, no extra text):
{"status": "active", "dates": ["%[2]s"], "time": "19:00", "description": "", "recurring_pattern": "", "corrected_title": ""}

PAGE TEXT:
%[5]s
`, focus, today.Format(model.DateLayout), title, listingDate, pageText)
}
