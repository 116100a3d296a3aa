package models

// Item holds one classifieds listing as extracted from the list page.
// Every field except ID degrades independently to its zero value when the
// corresponding element is missing from the card.
type Item struct {
	ID       string   // numeric post id from the listing URL; never empty
	URL      string   // absolute listing URL
	Title    string
	RawPrice *int     // numeric price; nil when the card has no parseable price
	Price    string   // display price as shown on the page, e.g. "11,000원"
	Status   []string // status icon texts in page order (거래완료, 구매중, S급, ...)
	Author   string
	Age      string // relative time text, e.g. "3분 전"
	Thumb    string // absolute thumbnail URL, "" when the card has none
	Views    string
	Comments string
	Date     int64 // epoch seconds, stamped when the item is first recorded as seen
}

// HasStatus reports whether any status icon on the card matches tag.
func (i *Item) HasStatus(tag string) bool {
	for _, s := range i.Status {
		if s == tag {
			return true
		}
	}
	return false
}

// SeenEntry is the durable dedup record, one row per distinct post id.
// Rows are inserted once and never updated or deleted.
type SeenEntry struct {
	PostID      string `db:"post_id"`
	FirstSeenTS int64  `db:"first_seen_ts"`
	ProductName string `db:"product_name"`
	Price       *int   `db:"price"`
}
